package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/session"
)

// browser replays the session cookie between requests the way a user agent
// would, and lets tests change the client address and User-Agent.
type browser struct {
	t          *testing.T
	handler    http.Handler
	cookieName string
	cookie     *http.Cookie
	remoteAddr string
	userAgent  string
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	return &browser{
		t:          t,
		handler:    h,
		cookieName: session.DefaultCookieName,
		remoteAddr: "192.0.2.10:51000",
		userAgent:  "test-agent/1.0",
	}
}

func (b *browser) do(path string) *httptest.ResponseRecorder {
	b.t.Helper()

	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.RemoteAddr = b.remoteAddr
	r.Header.Set("User-Agent", b.userAgent)
	if b.cookie != nil {
		r.AddCookie(&http.Cookie{Name: b.cookie.Name, Value: b.cookie.Value})
	}

	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, r)

	for _, c := range w.Result().Cookies() {
		if c.Name == b.cookieName {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) cookieValue() string {
	b.t.Helper()
	require.NotNil(b.t, b.cookie, "no session cookie received")
	return b.cookie.Value
}

// sessionCookies returns every Set-Cookie for name in the response.
func sessionCookies(w *httptest.ResponseRecorder, name string) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// recordingStore remembers the ttl of every Expire call.
type recordingStore struct {
	*session.MemoryStore

	mu   sync.Mutex
	ttls []time.Duration
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: session.NewMemoryStore()}
}

func (s *recordingStore) Expire(ctx context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	s.ttls = append(s.ttls, ttl)
	s.mu.Unlock()
	return s.MemoryStore.Expire(ctx, id, ttl)
}

func (s *recordingStore) lastTTL() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ttls) == 0 {
		return 0
	}
	return s.ttls[len(s.ttls)-1]
}

var errBackend = errors.New("backend unavailable")

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (session.Record, error) {
	return nil, errBackend
}

func (failingStore) Set(context.Context, string, session.Record) error {
	return errBackend
}

func (failingStore) Destroy(context.Context, string) error {
	return errBackend
}

func (failingStore) Expire(context.Context, string, time.Duration) error {
	return errBackend
}
