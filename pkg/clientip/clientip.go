package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Unknown is returned when no address can be determined.
const Unknown = "unknown"

// headers are consulted in this order; the first valid address wins.
var headers = []string{
	"X-Forwarded-For",  // first entry of the list
	"X-Real-IP",        // nginx
	"CF-Connecting-IP", // Cloudflare
	"True-Client-IP",   // Akamai, Cloudflare Enterprise
}

// GetIP returns the client's IP address.
//
// Proxy headers are trusted as sent, so this is only safe behind a reverse
// proxy that sets or strips them. Without a usable header the transport peer
// address is used, and Unknown when that is missing or malformed too.
func GetIP(r *http.Request) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		if h == "X-Forwarded-For" {
			v, _, _ = strings.Cut(v, ",")
		}
		if ip := parseIP(v); ip != "" {
			return ip
		}
	}

	if r.RemoteAddr == "" {
		return Unknown
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := parseIP(host); ip != "" {
		return ip
	}
	return Unknown
}

// parseIP returns the canonical form of s, or "" when s is not an IP address.
// IPv4-mapped IPv6 addresses are unmapped.
func parseIP(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil || addr.Zone() != "" {
		return ""
	}
	return addr.Unmap().String()
}
