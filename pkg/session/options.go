package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/cookie"
	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStore sets the session store. The caller keeps ownership of it.
func WithStore(store Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithMaxAge sets the session lifetime. It becomes the cookie Max-Age and
// the store expiry of every rotated record. Zero or negative values are
// passed through as is and make new sessions expire immediately.
func WithMaxAge(d time.Duration) Option {
	return func(m *Manager) {
		m.maxAge = &d
	}
}

// WithExpires sets a fixed expiration instant. It is used for the store
// expiry only when no max-age is configured.
func WithExpires(t time.Time) Option {
	return func(m *Manager) {
		m.expires = t
	}
}

// WithCookieName sets the session cookie name
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithCookieOptions sets per cookie attributes applied on every write.
func WithCookieOptions(opts ...cookie.Option) Option {
	return func(m *Manager) {
		m.cookieOptions = append(m.cookieOptions, opts...)
	}
}

// WithCookieManager sets the cookie manager used to read and write the
// session cookie.
func WithCookieManager(cookies *cookie.Manager) Option {
	return func(m *Manager) {
		m.cookies = cookies
	}
}

// WithSignedCookies signs the session cookie with the cookie manager's
// secrets. New panics when the cookie manager cannot sign. A signed cookie
// carries the encoded identifier plus its signature, so its raw value no
// longer equals the KeyID stored in the record.
func WithSignedCookies(signed bool) Option {
	return func(m *Manager) {
		m.signed = signed
	}
}

// WithIDGenerator sets the session identifier generator
func WithIDGenerator(gen IDGenerator) Option {
	return func(m *Manager) {
		if gen != nil {
			m.ids = gen
		}
	}
}

// WithFingerprintFunc sets the function deriving the client fingerprint.
// A fingerprint already stored in the request context takes precedence.
func WithFingerprintFunc(fn fingerprint.Func) Option {
	return func(m *Manager) {
		if fn != nil {
			m.fingerprintFunc = fn
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithErrorHandler sets the handler answering requests whose session could
// not be loaded.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Manager) {
		if h != nil {
			m.errorHandler = h
		}
	}
}

// WithConfig applies the cookie and lifetime settings from cfg. Secrets in
// cfg are ignored here; use NewFromConfig to enable signing.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		if cfg.CookieName != "" {
			m.cookieName = cfg.CookieName
		}
		if cfg.MaxAge != 0 {
			d := cfg.MaxAge
			m.maxAge = &d
		}
		m.cookieOptions = append(m.cookieOptions, cfg.CookieOptions()...)
		if cfg.TrustProxy {
			m.fingerprintFunc = fingerprint.WithResolver(clientip.New(clientip.ProxyHeaders...))
		}
	}
}
