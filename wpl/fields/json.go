package fields

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ScanJSONScope finds the balanced, escape-aware extent of a JSON value
// (object or array) starting at s[0], returning the byte length consumed.
// It never actually parses the JSON, it just finds where it ends, so
// malformed-but-balanced input can still be handed to a real decoder
// afterward.
func ScanJSONScope(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, errors.New("empty input")
	}
	open := s[0]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return 0, errors.New("not a json scope")
	}
	depth := 0
	inStr := false
	esc := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, errors.New("unbalanced json scope")
}

// Pointer is one JSON-pointer-like path component: a map key, or an array
// index when the component is of the form key[0].
type Pointer struct {
	Key   string
	Index int
	HasIx bool
}

// ParsePath splits "a/b[0]/c" into its components.
func ParsePath(path string) []Pointer {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	out := make([]Pointer, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if i := strings.IndexByte(p, '['); i >= 0 && strings.HasSuffix(p, "]") {
			idx, err := strconv.Atoi(p[i+1 : len(p)-1])
			if err == nil {
				out = append(out, Pointer{Key: p[:i], Index: idx, HasIx: true})
				continue
			}
		}
		out = append(out, Pointer{Key: p})
	}
	return out
}

// LookupPath resolves a JSON-pointer-like path against a decoded document.
func LookupPath(doc interface{}, path string) (interface{}, bool) {
	cur := doc
	for _, p := range ParsePath(path) {
		if p.Key != "" {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return nil, false
			}
			cur, ok = m[p.Key]
			if !ok {
				return nil, false
			}
		}
		if p.HasIx {
			arr, ok := cur.([]interface{})
			if !ok || p.Index < 0 || p.Index >= len(arr) {
				return nil, false
			}
			cur = arr[p.Index]
		}
	}
	return cur, true
}

// DecodeJSON decodes a scoped JSON value into a generic interface{} tree.
func DecodeJSON(s string) (interface{}, error) {
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
