package cookie

import (
	"net/http"
	"time"
)

// Options are the attributes written with every cookie.
// A zero MaxAge omits the attribute, a negative one deletes the cookie.
type Options struct {
	Path     string
	Domain   string
	MaxAge   int
	Expires  time.Time
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite

	// Overwrite drops any Set-Cookie header with the same name that was
	// already added to the response, so the client receives exactly one.
	Overwrite bool
}

type Option func(*Options)

// WithPath sets the cookie path.
func WithPath(path string) Option {
	return func(o *Options) {
		o.Path = path
	}
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(o *Options) {
		o.Domain = domain
	}
}

// WithMaxAge sets the Max-Age attribute in seconds.
func WithMaxAge(seconds int) Option {
	return func(o *Options) {
		o.MaxAge = seconds
	}
}

// WithMaxAgeDuration converts d to whole seconds, rounding up so that
// sub-second lifetimes are not silently turned into session cookies.
// Non-positive durations expire the cookie immediately.
func WithMaxAgeDuration(d time.Duration) Option {
	return func(o *Options) {
		if d <= 0 {
			o.MaxAge = -1
			return
		}
		o.MaxAge = int((d + time.Second - 1) / time.Second)
	}
}

// WithExpires sets an absolute expiry.
func WithExpires(t time.Time) Option {
	return func(o *Options) {
		o.Expires = t
	}
}

// WithSecure sets the Secure attribute.
func WithSecure(secure bool) Option {
	return func(o *Options) {
		o.Secure = secure
	}
}

// WithHTTPOnly sets the HttpOnly attribute.
func WithHTTPOnly(httpOnly bool) Option {
	return func(o *Options) {
		o.HttpOnly = httpOnly
	}
}

// WithSameSite sets the SameSite attribute.
func WithSameSite(sameSite http.SameSite) Option {
	return func(o *Options) {
		o.SameSite = sameSite
	}
}

// WithOverwrite drops earlier Set-Cookie headers for the same name.
func WithOverwrite(overwrite bool) Option {
	return func(o *Options) {
		o.Overwrite = overwrite
	}
}

// applyOptions copies base and applies opts on the copy.
func applyOptions(base Options, opts []Option) Options {
	result := base
	for _, opt := range opts {
		if opt != nil {
			opt(&result)
		}
	}
	return result
}
