package cookie

import (
	"net/http"
	"strings"
)

// Config holds cookie manager configuration
type Config struct {
	Secrets  string        `env:"COOKIE_SECRETS" envDefault:""`
	Path     string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	HttpOnly bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"2"` // 2 = SameSiteLaxMode
}

// DefaultConfig returns default cookie configuration
func DefaultConfig() Config {
	return Config{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ParseSecrets splits a comma separated secrets list, dropping blanks.
func ParseSecrets(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// Options converts the config into manager defaults. Zero values are skipped.
func (c Config) Options() []Option {
	opts := make([]Option, 0, 5)
	if c.Path != "" {
		opts = append(opts, WithPath(c.Path))
	}
	if c.Domain != "" {
		opts = append(opts, WithDomain(c.Domain))
	}
	if c.Secure {
		opts = append(opts, WithSecure(true))
	}
	opts = append(opts, WithHTTPOnly(c.HttpOnly))
	if c.SameSite != 0 {
		opts = append(opts, WithSameSite(c.SameSite))
	}
	return opts
}

// NewFromConfig creates a Manager from cfg. Signing is enabled only when
// secrets are configured.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	configOpts := append(cfg.Options(), opts...)

	if secrets := ParseSecrets(cfg.Secrets); len(secrets) > 0 {
		return NewWithSecrets(secrets, configOpts...)
	}
	return New(configOpts...), nil
}
