// Package fingerprint captures the client fingerprint used for session
// hijack detection: the client IP address together with the User-Agent
// header.
//
// Generate takes the address from the TCP peer; WithResolver plugs in a
// clientip.Resolver when the service runs behind a trusted proxy. Equal
// compares fingerprints in constant time and Digest gives a short hash that
// can be logged without exposing the raw address.
//
//	fp := fingerprint.Generate(r)
//	if !fp.Equal(stored) {
//		// rotate the session
//	}
//
// Middleware stores the fingerprint in the request context so that later
// handlers (and the session manager) reuse the same value via FromContext.
package fingerprint
