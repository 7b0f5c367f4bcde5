package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/cookie"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

func TestParseSameSite(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want http.SameSite
	}{
		{"lax", http.SameSiteLaxMode},
		{"Strict", http.SameSiteStrictMode},
		{" none ", http.SameSiteNoneMode},
		{"", http.SameSiteDefaultMode},
		{"bogus", http.SameSiteDefaultMode},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, session.ParseSameSite(tt.in))
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		m, err := session.NewFromConfig(session.DefaultConfig())
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close() })
		assert.Equal(t, "session", m.CookieName())

		app, obs := newTestApp(t, m)
		b := newBrowser(t, app)
		b.do("/")
		assert.Equal(t, obs.id, b.cookieValue())
	})

	t.Run("cookie attributes and max age", func(t *testing.T) {
		t.Parallel()
		cfg := session.DefaultConfig()
		cfg.CookieName = "sid"
		cfg.MaxAge = 90 * time.Minute
		cfg.CookiePath = "/app"
		cfg.CookieDomain = "example.com"
		cfg.CookieSecure = true
		cfg.CookieSameSite = "strict"

		m, err := session.NewFromConfig(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close() })

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
		assert.Equal(t, 5400, c.MaxAge)
	})

	t.Run("secrets enable signing", func(t *testing.T) {
		t.Parallel()
		cfg := session.DefaultConfig()
		cfg.CookieSecrets = testSecret

		m, err := session.NewFromConfig(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close() })

		app, obs := newTestApp(t, m)
		b := newBrowser(t, app)
		b.do("/")
		assert.NotEqual(t, obs.id, b.cookieValue())
		assert.Contains(t, b.cookieValue(), ".")
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		cfg := session.DefaultConfig()
		cfg.CookieSecrets = "short"

		_, err := session.NewFromConfig(cfg)
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})

	t.Run("trust proxy", func(t *testing.T) {
		t.Parallel()
		cfg := session.DefaultConfig()
		cfg.TrustProxy = true

		m, err := session.NewFromConfig(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close() })

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		sess, err := m.Load(w, r)
		require.NoError(t, err)

		ip, _, err := sess.GetString(r.Context(), session.KeyIP)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.9", ip)
	})
}

func TestConfig_CookieConfig(t *testing.T) {
	t.Parallel()
	cfg := session.DefaultConfig()
	cfg.CookieDomain = "example.com"
	cfg.CookieSameSite = "none"
	cfg.CookieSecure = true
	cfg.CookieSecrets = testSecret

	cc := cfg.CookieConfig()
	assert.Equal(t, "/", cc.Path)
	assert.Equal(t, "example.com", cc.Domain)
	assert.True(t, cc.Secure)
	assert.True(t, cc.HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, cc.SameSite)

	m, err := cookie.NewFromConfig(cc)
	require.NoError(t, err)
	assert.True(t, m.CanSign())
	assert.Equal(t, "example.com", m.Defaults().Domain)
}
