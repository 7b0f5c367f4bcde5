package session

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/cookie"
	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

const (
	// DefaultCookieName is the name of the session cookie.
	DefaultCookieName = "session"

	// DefaultMaxAge is the store lifetime used when neither a max-age nor an
	// expiration instant is configured.
	DefaultMaxAge = 3 * 24 * time.Hour

	// placeholderID stands in for the identifier of a client that has not
	// presented a session cookie yet.
	placeholderID = "__new_session__"
)

// ErrorHandler answers a request whose session could not be loaded.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Manager issues session cookies, resolves sessions against the store and
// rotates them when the client fingerprint does not match.
type Manager struct {
	store           Store
	ownsStore       bool
	cookies         *cookie.Manager
	cookieName      string
	cookieOptions   []cookie.Option
	signed          bool
	maxAge          *time.Duration
	expires         time.Time
	ids             IDGenerator
	fingerprintFunc fingerprint.Func
	logger          *slog.Logger
	errorHandler    ErrorHandler
}

// New creates a session manager with the given options. Without WithStore
// a private MemoryStore is used and released by Close.
func New(opts ...Option) *Manager {
	m := &Manager{
		cookieName:      DefaultCookieName,
		ids:             DefaultIDGenerator,
		fingerprintFunc: fingerprint.Generate,
		logger:          slog.New(slog.DiscardHandler),
		errorHandler:    defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore()
		m.ownsStore = true
	}
	if m.cookies == nil {
		m.cookies = cookie.New()
	}
	if m.signed && !m.cookies.CanSign() {
		panic("session: signed cookies require a cookie manager with secrets")
	}

	return m
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// CookieName returns the session cookie name.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Load runs the per-request session state machine: it resolves the
// identifier from the cookie, creates a bare record for unknown clients and
// rotates the session when the stored fingerprint does not match the
// request. A session that has never recorded a fingerprint takes the same
// path, which is how the fingerprint gets established.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	ctx := r.Context()

	id := m.readCookie(r)
	if id == "" {
		id = placeholderID
	}

	rec, err := m.store.Get(ctx, id)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		rec = NewRecord(id)
		if err := m.store.Set(ctx, id, rec); err != nil {
			return nil, errors.Join(ErrLoadFailed, err)
		}
	case err != nil:
		return nil, errors.Join(ErrLoadFailed, err)
	}

	sess := newSession(w)
	sess.bind(id, m)

	current := m.requestFingerprint(r)
	stored, known := rec.Fingerprint()
	if known && stored.Equal(current) {
		return sess, nil
	}

	if known {
		m.logger.DebugContext(ctx, "session fingerprint mismatch",
			logger.Component("session"),
			logger.Event("tampered"),
			logger.Fingerprint(current.Digest()),
		)
	}

	if err := sess.Destroy(ctx); err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	if err := sess.Set(ctx, KeyIP, current.IP); err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	if err := sess.Set(ctx, KeyUserAgent, current.UserAgent); err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	return sess, nil
}

// Close releases the store when the manager created it.
func (m *Manager) Close() error {
	if !m.ownsStore {
		return nil
	}
	if c, ok := m.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// expiration returns the store lifetime of a freshly rotated record: the
// max-age when set, else the time left until the expiration instant, else
// DefaultMaxAge. Neither value is validated.
func (m *Manager) expiration(now time.Time) time.Duration {
	if m.maxAge != nil {
		return *m.maxAge
	}
	if !m.expires.IsZero() {
		return m.expires.Sub(now)
	}
	return DefaultMaxAge
}

func (m *Manager) writeCookie(w http.ResponseWriter, id string) error {
	opts := make([]cookie.Option, 0, len(m.cookieOptions)+3)
	opts = append(opts, m.cookieOptions...)
	if m.maxAge != nil {
		opts = append(opts, cookie.WithMaxAgeDuration(*m.maxAge))
	}
	if !m.expires.IsZero() {
		opts = append(opts, cookie.WithExpires(m.expires))
	}
	opts = append(opts, cookie.WithOverwrite(true))

	if m.signed {
		return m.cookies.SetSigned(w, m.cookieName, id, opts...)
	}
	return m.cookies.Set(w, m.cookieName, id, opts...)
}

// readCookie returns the identifier presented by the client, or "" when
// the cookie is missing or fails verification.
func (m *Manager) readCookie(r *http.Request) string {
	var (
		id  string
		err error
	)
	if m.signed {
		id, err = m.cookies.GetSigned(r, m.cookieName)
	} else {
		id, err = m.cookies.Get(r, m.cookieName)
	}
	if err != nil {
		return ""
	}
	return id
}

func (m *Manager) requestFingerprint(r *http.Request) fingerprint.Fingerprint {
	if fp, ok := fingerprint.FromContext(r.Context()); ok {
		return fp
	}
	return m.fingerprintFunc(r)
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	http.Error(w, "Session error", http.StatusInternalServerError)
}
