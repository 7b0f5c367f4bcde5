// Package clientip resolves the originating client address of an
// *http.Request.
//
// A Resolver only reads forwarding headers it was told to trust, in the
// order given, and falls back to the TCP peer address (RemoteAddr). Lists
// such as X-Forwarded-For yield their left-most valid entry. Results are
// normalized: IPv4-mapped IPv6 addresses are unmapped and zones dropped.
//
//	direct := clientip.New()                          // RemoteAddr only
//	proxied := clientip.New(clientip.ProxyHeaders...) // Cloudflare / DO / XFF / X-Real-IP
//	ip := proxied.IP(r)
//
// GetIP and RemoteIP are shortcuts for those two resolvers. Trusting headers
// is only safe behind a proxy that overwrites them; otherwise any client can
// choose its own address.
//
// Resolver.Middleware stores the resolved address in the request context,
// FromContext reads it back and LoggerExtractor plugs it into the logger
// package.
package clientip
