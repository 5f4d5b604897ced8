package fields

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

var domainRe = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

func ParseDomain(s string) (string, bool) {
	s = strings.TrimSuffix(s, ".")
	if domainRe.MatchString(s) {
		return s, true
	}
	return "", false
}

func ParseEmail(s string) (string, bool) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", false
	}
	return addr.Address, true
}

func ParseURL(s string) (*url.URL, bool) {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

var idCardRe = regexp.MustCompile(`^\d{17}[\dXx]$`)

// ParseIdCard recognizes an 18-digit Chinese resident ID number; it
// validates length/shape only, not the checksum digit, which is
// sufficient for field-type gating in a log line.
func ParseIdCard(s string) (string, bool) {
	if idCardRe.MatchString(s) {
		return s, true
	}
	return "", false
}

var mobilePhoneRe = regexp.MustCompile(`^\+?\d{7,15}$`)

func ParseMobilePhone(s string) (string, bool) {
	if mobilePhoneRe.MatchString(s) {
		return s, true
	}
	return "", false
}

var snRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-]{3,63}$`)

func ParseSN(s string) (string, bool) {
	if snRe.MatchString(s) {
		return s, true
	}
	return "", false
}

func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on":
		return true, true
	case "false", "0", "no", "n", "off":
		return false, true
	}
	return false, false
}
