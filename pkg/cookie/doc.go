// Package cookie is a small HTTP cookie manager.
//
// A Manager carries default attributes (path, domain, SameSite, HttpOnly,
// Secure) that are applied to every cookie it writes; per call Option values
// override them without touching the defaults. Built with NewWithSecrets it
// can also sign values with HMAC-SHA256. Several secrets may be configured:
// the first signs, all of them verify, which allows key rotation.
//
// The Overwrite option replaces any Set-Cookie header for the same name that
// was already queued on the response. Session middleware relies on it so that
// a request which rotates its session more than once still answers with a
// single cookie.
//
// # Usage
//
//	m := cookie.New(cookie.WithSecure(true))
//	_ = m.Set(w, "theme", "dark", cookie.WithMaxAge(3600))
//	theme, err := m.Get(r, "theme")
//
//	signer, err := cookie.NewWithSecrets([]string{os.Getenv("COOKIE_SECRET")})
//	_ = signer.SetSigned(w, "uid", "42", cookie.WithOverwrite(true))
//	uid, err := signer.GetSigned(r, "uid")
//
// # Errors
//
//   - ErrCookieNotFound   – no cookie with that name
//   - ErrInvalidSignature – signature does not match any secret
//   - ErrInvalidFormat    – malformed signed value
//   - ErrSigningDisabled  – signing requested on a manager without secrets
package cookie
