package session_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/cookie"
	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

const testSecret = "this-is-a-very-long-secret-key-32-chars-long"

func TestManager_Expiration(t *testing.T) {
	t.Parallel()

	deadline := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)

	tests := []struct {
		name       string
		opts       []session.Option
		wantTTL    func(t *testing.T, ttl time.Duration)
		wantCookie func(t *testing.T, c *http.Cookie)
	}{
		{
			name: "default",
			wantTTL: func(t *testing.T, ttl time.Duration) {
				assert.Equal(t, session.DefaultMaxAge, ttl)
			},
			wantCookie: func(t *testing.T, c *http.Cookie) {
				assert.Zero(t, c.MaxAge)
				assert.True(t, c.Expires.IsZero())
			},
		},
		{
			name: "max age",
			opts: []session.Option{session.WithMaxAge(time.Hour)},
			wantTTL: func(t *testing.T, ttl time.Duration) {
				assert.Equal(t, time.Hour, ttl)
			},
			wantCookie: func(t *testing.T, c *http.Cookie) {
				assert.Equal(t, 3600, c.MaxAge)
			},
		},
		{
			name: "expires",
			opts: []session.Option{session.WithExpires(deadline)},
			wantTTL: func(t *testing.T, ttl time.Duration) {
				assert.InDelta(t, float64(time.Until(deadline)), float64(ttl), float64(5*time.Second))
			},
			wantCookie: func(t *testing.T, c *http.Cookie) {
				assert.True(t, deadline.Equal(c.Expires))
			},
		},
		{
			name: "max age wins over expires",
			opts: []session.Option{session.WithExpires(deadline), session.WithMaxAge(time.Minute)},
			wantTTL: func(t *testing.T, ttl time.Duration) {
				assert.Equal(t, time.Minute, ttl)
			},
			wantCookie: func(t *testing.T, c *http.Cookie) {
				assert.Equal(t, 60, c.MaxAge)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newRecordingStore()
			t.Cleanup(func() { _ = store.Close() })

			m := session.New(append([]session.Option{session.WithStore(store)}, tt.opts...)...)
			app, _ := newTestApp(t, m)
			b := newBrowser(t, app)
			w := b.do("/")

			cookies := sessionCookies(w, session.DefaultCookieName)
			require.Len(t, cookies, 1)
			tt.wantTTL(t, store.lastTTL())
			tt.wantCookie(t, cookies[0])
		})
	}
}

func TestManager_CookieOptions(t *testing.T) {
	t.Parallel()
	m := session.New(
		session.WithCookieName("sid"),
		session.WithCookieOptions(
			cookie.WithPath("/app"),
			cookie.WithDomain("example.com"),
			cookie.WithSecure(true),
			cookie.WithSameSite(http.SameSiteStrictMode),
		),
	)
	t.Cleanup(func() { _ = m.Close() })
	assert.Equal(t, "sid", m.CookieName())

	app, _ := newTestApp(t, m)
	b := newBrowser(t, app)
	b.cookieName = "sid"
	w := b.do("/")

	cookies := sessionCookies(w, "sid")
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "/app", c.Path)
	assert.Equal(t, "example.com", c.Domain)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Empty(t, sessionCookies(w, session.DefaultCookieName))

	// The cookie round-trips under the custom name.
	w = b.do("/")
	assert.Empty(t, sessionCookies(w, "sid"))
}

func TestManager_SignedCookies(t *testing.T) {
	t.Parallel()
	cookies, err := cookie.NewWithSecrets([]string{testSecret})
	require.NoError(t, err)

	m := session.New(session.WithCookieManager(cookies), session.WithSignedCookies(true))
	t.Cleanup(func() { _ = m.Close() })

	app, obs := newTestApp(t, m)
	b := newBrowser(t, app)
	b.do("/set")

	signed := b.cookieValue()
	assert.Contains(t, signed, ".")
	assert.NotEqual(t, obs.id, signed)

	w := b.do("/")
	assert.Empty(t, sessionCookies(w, session.DefaultCookieName))
	v, _ := obs.snapshot.GetString("hello")
	assert.Equal(t, "world", v)

	t.Run("raw identifier is rejected", func(t *testing.T) {
		forged := newBrowser(t, app)
		forged.cookie = &http.Cookie{Name: session.DefaultCookieName, Value: obs.id}
		w := forged.do("/")
		require.Len(t, sessionCookies(w, session.DefaultCookieName), 1)
		assert.False(t, obs.snapshot.Has("hello"))
	})

	t.Run("tampered signature is rejected", func(t *testing.T) {
		encoded, _, _ := strings.Cut(signed, ".")
		forged := newBrowser(t, app)
		forged.cookie = &http.Cookie{Name: session.DefaultCookieName, Value: encoded + ".bm90LWEtc2lnbmF0dXJl"}
		w := forged.do("/")
		require.Len(t, sessionCookies(w, session.DefaultCookieName), 1)
		assert.False(t, obs.snapshot.Has("hello"))
	})
}

func TestManager_SignedWithoutSecretsPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		session.New(session.WithSignedCookies(true))
	})
}

func TestManager_Load(t *testing.T) {
	t.Parallel()
	m := session.New()
	t.Cleanup(func() { _ = m.Close() })

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("User-Agent", "loader")

	sess, err := m.Load(w, r)
	require.NoError(t, err)

	cookies := sessionCookies(w, session.DefaultCookieName)
	require.Len(t, cookies, 1)
	assert.Equal(t, cookies[0].Value, sess.ID())

	ua, ok, err := sess.GetString(r.Context(), session.KeyUserAgent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "loader", ua)
}

func TestManager_Fingerprint(t *testing.T) {
	t.Parallel()

	t.Run("custom func", func(t *testing.T) {
		t.Parallel()
		// Keys the session on the User-Agent only.
		m := session.New(session.WithFingerprintFunc(func(r *http.Request) fingerprint.Fingerprint {
			return fingerprint.Fingerprint{IP: "any", UserAgent: r.UserAgent()}
		}))
		t.Cleanup(func() { _ = m.Close() })

		app, obs := newTestApp(t, m)
		b := newBrowser(t, app)
		b.do("/set")
		id := obs.id

		b.remoteAddr = "203.0.113.50:1000"
		w := b.do("/")
		assert.Empty(t, sessionCookies(w, session.DefaultCookieName))
		assert.Equal(t, id, obs.id)
	})

	t.Run("context fingerprint takes precedence", func(t *testing.T) {
		t.Parallel()
		m := session.New()
		t.Cleanup(func() { _ = m.Close() })

		app, obs := newTestApp(t, m)
		fixed := fingerprint.Middleware(func(r *http.Request) fingerprint.Fingerprint {
			return fingerprint.Fingerprint{IP: "10.0.0.1", UserAgent: "pinned"}
		})(app)

		b := newBrowser(t, fixed)
		b.do("/")
		ip, _ := obs.snapshot.GetString(session.KeyIP)
		ua, _ := obs.snapshot.GetString(session.KeyUserAgent)
		assert.Equal(t, "10.0.0.1", ip)
		assert.Equal(t, "pinned", ua)
	})
}

func TestManager_IDGenerator(t *testing.T) {
	t.Parallel()

	t.Run("custom", func(t *testing.T) {
		t.Parallel()
		n := 0
		m := session.New(session.WithIDGenerator(session.IDGeneratorFunc(func() (string, error) {
			n++
			return "id-" + strings.Repeat("x", n), nil
		})))
		t.Cleanup(func() { _ = m.Close() })

		app, obs := newTestApp(t, m)
		newBrowser(t, app).do("/")
		assert.Equal(t, "id-x", obs.id)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("entropy exhausted")
		m := session.New(session.WithIDGenerator(session.IDGeneratorFunc(func() (string, error) {
			return "", boom
		})))
		t.Cleanup(func() { _ = m.Close() })

		app, _ := newTestApp(t, m)
		w := newBrowser(t, app).do("/")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	m := session.New(session.WithStore(store))
	require.NoError(t, m.Close())

	// A caller supplied store stays usable after Close.
	require.NoError(t, store.Set(t.Context(), "a", session.NewRecord("a")))
	require.NoError(t, store.Expire(t.Context(), "a", time.Hour))
	assert.Equal(t, 1, store.Pending())
	require.NoError(t, store.Close())
}
