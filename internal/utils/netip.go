package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP resolves the caller's IP for logging and allow-listing.
// With trustProxy it prefers CF-Connecting-IP, the left-most X-Forwarded-For
// entry, then X-Real-IP; otherwise only RemoteAddr is used.
//
// NOTE: only enable trustProxy when the relay is reachable solely through a
// trusted reverse proxy or tunnel, since the headers are client-controlled.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, v := range []string{
			r.Header.Get("CF-Connecting-IP"),
			firstForwardedFor(r.Header.Get("X-Forwarded-For")),
			r.Header.Get("X-Real-IP"),
		} {
			if ip := hostOnly(strings.TrimSpace(v)); ip != "" {
				return ip
			}
		}
	}
	return hostOnly(r.RemoteAddr)
}

func hostOnly(s string) string {
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

func firstForwardedFor(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// IPMatcher matches addresses against a list of IPs and CIDRs.
// A bare IP is stored as a single-address prefix.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher parses list, skipping blank or invalid entries.
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
		if addr, err := netip.ParseAddr(s); err == nil {
			addr = addr.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

// Allow reports whether ip falls in one of the configured prefixes.
// IPv4-mapped IPv6 addresses match their IPv4 form.
func (m *IPMatcher) Allow(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap().WithZone("")
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
