package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

// Middleware loads the session for every request, rotating it when the
// client fingerprint changed, and stores it in the request context.
// Requests whose session cannot be loaded are answered by the error
// handler and never reach next.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Load(w, r)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "failed to load session",
				logger.Component("session"),
				logger.Error(err),
			)
			m.errorHandler(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
