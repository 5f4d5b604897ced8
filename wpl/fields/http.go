package fields

import (
	"strconv"
	"strings"
)

// HttpRequest is the decomposed "METHOD /path HTTP/1.1" request line.
type HttpRequest struct {
	Method, Path, Proto string
}

func ParseHttpRequest(s string) (HttpRequest, bool) {
	parts := strings.SplitN(s, " ", 3)
	if len(parts) != 3 {
		return HttpRequest{}, false
	}
	return HttpRequest{Method: parts[0], Path: parts[1], Proto: parts[2]}, true
}

func ParseHttpStatus(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 100 || n > 599 {
		return 0, false
	}
	return n, true
}

var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "HEAD": true,
	"OPTIONS": true, "PATCH": true, "TRACE": true, "CONNECT": true,
}

func ParseHttpMethod(s string) (string, bool) {
	m := strings.ToUpper(strings.TrimSpace(s))
	return m, httpMethods[m]
}

// ParseHttpAgent is intentionally permissive — a user-agent string is
// free-form text, the field type exists only to name the column.
func ParseHttpAgent(s string) string { return s }
