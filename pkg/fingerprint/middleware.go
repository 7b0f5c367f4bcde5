package fingerprint

import "net/http"

// Middleware computes the request fingerprint once with fn and stores it in
// the request context. A nil fn means Generate.
func Middleware(fn Func) func(http.Handler) http.Handler {
	if fn == nil {
		fn = Generate
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithContext(r.Context(), fn(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
