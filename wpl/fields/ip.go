package fields

import "net/netip"

// ParseIP accepts IPv4 dotted or IPv6 compressed text, mapping the bare
// token "localhost" to 127.0.0.1.
func ParseIP(s string) (netip.Addr, bool) {
	if s == "localhost" {
		return netip.MustParseAddr("127.0.0.1"), true
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return a, true
}

// ParseIPNet parses a CIDR prefix such as "10.0.0.0/8".
func ParseIPNet(s string) (netip.Prefix, bool) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, false
	}
	return p, true
}
