package session

import (
	"context"
	"net/http"
	"sync"
)

// Session is the per-request slot holding the current Handle. Rotation
// swaps the handle in place, so code holding the *Session always talks to
// the live identifier. Handlers should keep the *Session, not a Handle.
type Session struct {
	mu      sync.Mutex
	current *Handle
	w       http.ResponseWriter
}

func newSession(w http.ResponseWriter) *Session {
	return &Session{w: w}
}

// Handle returns the handle currently bound to the session.
func (s *Session) Handle() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// bind installs the first handle.
func (s *Session) bind(id string, m *Manager) *Handle {
	h := newHandle(id, m.store, s, m)
	s.mu.Lock()
	s.current = h
	s.mu.Unlock()
	return h
}

// rebind replaces prev with a handle for id.
func (s *Session) rebind(prev *Handle, id string) *Handle {
	h := newHandle(id, prev.store, s, prev.manager)
	s.mu.Lock()
	s.current = h
	s.mu.Unlock()
	return h
}

// ID returns the current session identifier.
func (s *Session) ID() string {
	return s.Handle().ID()
}

// Snapshot returns a point-in-time copy of the current record.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.Handle().Snapshot(ctx)
}

// Get returns the current value for key.
func (s *Session) Get(ctx context.Context, key string) (any, bool, error) {
	return s.Handle().Get(ctx, key)
}

// GetString returns the value for key when it is a string.
func (s *Session) GetString(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	str, ok := asString(v)
	return str, ok, nil
}

// GetInt returns the value for key when it is numeric.
func (s *Session) GetInt(ctx context.Context, key string) (int, bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, ok := asInt(v)
	return n, ok, nil
}

// Set stores value under key.
func (s *Session) Set(ctx context.Context, key string, value any) error {
	return s.Handle().Set(ctx, key, value)
}

// Delete removes key from the session.
func (s *Session) Delete(ctx context.Context, key string) error {
	return s.Handle().Delete(ctx, key)
}

// Destroy clears the session and rotates its identifier.
func (s *Session) Destroy(ctx context.Context) error {
	return s.Handle().Destroy(ctx)
}

// Refresh rotates the session identifier, dropping the data when reset is set.
func (s *Session) Refresh(ctx context.Context, reset bool) error {
	return s.Handle().Refresh(ctx, reset)
}
