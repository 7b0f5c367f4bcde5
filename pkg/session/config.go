package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/cookie"
)

// Config holds session configuration
type Config struct {
	// CookieName is the name of the session cookie (default: "session")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session"`

	// MaxAge is the session lifetime. Zero leaves it unset and the store
	// falls back to DefaultMaxAge.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"0"`

	CookiePath     string `env:"SESSION_COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly bool   `env:"SESSION_COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string `env:"SESSION_COOKIE_SAME_SITE" envDefault:"lax"`

	// CookieSecrets is a comma separated list of signing secrets, newest
	// first. Signing is enabled when it is not empty.
	CookieSecrets string `env:"SESSION_COOKIE_SECRETS" envDefault:""`

	// TrustProxy reads the fingerprint IP from forwarding headers. Enable it
	// only behind a proxy that overwrites them.
	TrustProxy bool `env:"SESSION_TRUST_PROXY" envDefault:"false"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName:     DefaultCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: "lax",
	}
}

// CookieOptions converts the cookie attributes into cookie options.
func (c Config) CookieOptions() []cookie.Option {
	opts := []cookie.Option{
		cookie.WithHTTPOnly(c.CookieHTTPOnly),
		cookie.WithSecure(c.CookieSecure),
		cookie.WithSameSite(ParseSameSite(c.CookieSameSite)),
	}
	if c.CookiePath != "" {
		opts = append(opts, cookie.WithPath(c.CookiePath))
	}
	if c.CookieDomain != "" {
		opts = append(opts, cookie.WithDomain(c.CookieDomain))
	}
	return opts
}

// ParseSameSite maps "lax", "strict" and "none" to the http.SameSite
// constants. Anything else yields http.SameSiteDefaultMode.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

// CookieConfig maps the cookie attributes onto a cookie.Config.
func (c Config) CookieConfig() cookie.Config {
	return cookie.Config{
		Secrets:  c.CookieSecrets,
		Path:     c.CookiePath,
		Domain:   c.CookieDomain,
		Secure:   c.CookieSecure,
		HttpOnly: c.CookieHTTPOnly,
		SameSite: ParseSameSite(c.CookieSameSite),
	}
}

// NewFromConfig creates a new Manager from the provided Config. When
// secrets are configured the session cookie is signed.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	cookies, err := cookie.NewFromConfig(cfg.CookieConfig())
	if err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithConfig(cfg),
		WithCookieManager(cookies),
		WithSignedCookies(cookies.CanSign()),
	}
	configOpts = append(configOpts, opts...)
	return New(configOpts...), nil
}
