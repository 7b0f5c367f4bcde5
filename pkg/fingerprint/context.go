package fingerprint

import (
	"context"
)

type fingerprintContextKey struct{}

// WithContext stores fp in ctx; it takes precedence over a Func.
func WithContext(ctx context.Context, fp Fingerprint) context.Context {
	return context.WithValue(ctx, fingerprintContextKey{}, fp)
}

// FromContext returns the fingerprint stored by WithContext.
func FromContext(ctx context.Context) (Fingerprint, bool) {
	fp, ok := ctx.Value(fingerprintContextKey{}).(Fingerprint)
	return fp, ok
}
