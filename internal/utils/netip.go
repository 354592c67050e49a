package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// HostOnly strips the port from "host:port" and "[v6]:port" forms,
// returning the input unchanged when no port is present.
func HostOnly(s string) string {
	if s == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host
	}
	return s
}

// ClientIP resolves the caller's address. With trustProxy set the
// forwarding headers win over RemoteAddr; without it they are ignored,
// since any direct caller can forge them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := HostOnly(strings.TrimSpace(r.Header.Get("CF-Connecting-IP"))); ip != "" {
			return ip
		}
		if ip := HostOnly(firstForwarded(r.Header.Get("X-Forwarded-For"))); ip != "" {
			return ip
		}
		if ip := HostOnly(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != "" {
			return ip
		}
	}
	return HostOnly(r.RemoteAddr)
}

// firstForwarded picks the left-most entry of an X-Forwarded-For chain,
// the one closest to the original client.
func firstForwarded(xff string) string {
	if i := strings.IndexByte(xff, ','); i >= 0 {
		xff = xff[:i]
	}
	return strings.TrimSpace(xff)
}

// IPMatcher answers membership against a fixed set of addresses and
// CIDR blocks. Entries that parse as neither are dropped silently.
type IPMatcher struct {
	addrs    []netip.Addr
	prefixes []netip.Prefix
}

func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			m.addrs = append(m.addrs, a.Unmap())
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool {
	return len(m.addrs) == 0 && len(m.prefixes) == 0
}

// Allow reports whether ip belongs to the set. Mapped v4-in-v6 forms
// are folded so "::ffff:127.0.0.1" matches a plain 127.0.0.1 rule.
func (m *IPMatcher) Allow(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, v := range m.addrs {
		if v == a {
			return true
		}
	}
	for _, p := range m.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
