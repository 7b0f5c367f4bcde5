package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ProxyHeaders lists forwarding headers in the order GetIP consults them:
// Cloudflare, DigitalOcean App Platform, the standard X-Forwarded-For chain,
// then the Nginx X-Real-IP header.
var ProxyHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// Resolver extracts the client address from a request. Headers are only
// consulted when they were explicitly trusted; RemoteAddr is always the
// fallback.
type Resolver struct {
	headers []string
}

// New returns a Resolver trusting the given headers in priority order.
// Without headers only the TCP peer address is used.
func New(trustedHeaders ...string) *Resolver {
	headers := make([]string, 0, len(trustedHeaders))
	for _, h := range trustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: headers}
}

var (
	direct  = New()
	proxied = New(ProxyHeaders...)
)

// GetIP returns the client's IP address, trusting ProxyHeaders.
// Use it only behind a proxy that overwrites those headers.
func GetIP(r *http.Request) string {
	return proxied.IP(r)
}

// RemoteIP returns the TCP peer address without looking at any header.
func RemoteIP(r *http.Request) string {
	return direct.IP(r)
}

// IP resolves the address for r. It returns an empty string when neither a
// trusted header nor RemoteAddr holds a valid address.
func (res *Resolver) IP(r *http.Request) string {
	for _, name := range res.headers {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		// X-Forwarded-For style lists: the left-most valid entry is the client
		for candidate := range strings.SplitSeq(value, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an address, unmapping IPv4-in-IPv6
// forms and dropping zones. Invalid input yields "".
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
