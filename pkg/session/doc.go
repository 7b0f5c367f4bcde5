// Package session provides server-side HTTP sessions keyed by an opaque
// identifier carried in a cookie, with fingerprint based hijack detection.
//
// Session data lives in a pluggable Store. A concurrent in-memory store
// with per-call expiration timers ships with the package; Redis, Postgres,
// bbolt and MongoDB back-ends live in sub-packages and share the storetest
// conformance suite.
//
// # Request flow
//
// Manager.Middleware resolves the identifier from the session cookie (or a
// placeholder for first-time clients), loads the record and compares the
// stored IP address and User-Agent with the current request. On mismatch,
// including a record that has no fingerprint yet, the session is rotated:
// a new identifier and empty record are issued, the cookie is rewritten
// and the current fingerprint is recorded. Matching requests pass through
// untouched; the expiration is fixed at rotation time and never slides.
//
// # Usage
//
//	import (
//	    "github.com/dmitrymomot/sessionguard/pkg/session"
//	)
//
//	manager := session.New(
//	    session.WithMaxAge(24 * time.Hour),
//	)
//	defer manager.Close()
//
//	mux.Handle("/", manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    sess := session.MustFromContext(r.Context())
//	    _ = sess.Set(r.Context(), "hello", "world")
//
//	    // Rotate after login, keeping the data.
//	    _ = sess.Refresh(r.Context(), false)
//	})))
//
// Handlers should keep the *Session rather than a *Handle: rotation swaps
// the handle inside the session and calls on a replaced handle fail with
// ErrStaleHandle.
//
// # Configuration
//
// Options such as WithMaxAge, WithExpires and WithCookieOptions configure
// the manager directly. Config carries the same settings with env tags and
// is turned into a manager by NewFromConfig, which also enables signed
// cookies when secrets are present.
//
// # Error Handling
//
//   - ErrSessionNotFound - the store holds no record for the identifier
//   - ErrStaleHandle     - a handle was used after its session rotated
//   - ErrLoadFailed      - the middleware could not resolve the session
//   - ErrInvalidRecord   - a stored record could not be decoded
package session
