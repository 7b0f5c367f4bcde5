package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/environment"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

func newTestServer(t *testing.T, checks ...func(context.Context) error) (*httptest.Server, *http.Client) {
	t.Helper()
	store := session.NewMemoryStore()
	manager := session.New(session.WithStore(store))
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.DiscardHandler)
	srv := httptest.NewServer(newRouter(manager, environment.Development, clientip.New(), log, checks...))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func do(t *testing.T, c *http.Client, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func showSession(t *testing.T, c *http.Client, base string) sessionView {
	t.Helper()
	status, body := do(t, c, http.MethodGet, base+"/session/", "")
	require.Equal(t, http.StatusOK, status, body)
	var v sessionView
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestRoutes_SessionLifecycle(t *testing.T) {
	t.Parallel()
	srv, client := newTestServer(t)

	status, _ := do(t, client, http.MethodPut, srv.URL+"/session/hello", `"world"`)
	require.Equal(t, http.StatusNoContent, status)

	status, body := do(t, client, http.MethodGet, srv.URL+"/session/hello", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"hello":"world"}`, body)

	first := showSession(t, client, srv.URL)
	assert.Equal(t, first.ID, first.Values[session.KeyID])
	assert.Equal(t, "127.0.0.1", first.Values[session.KeyIP])

	status, _ = do(t, client, http.MethodPost, srv.URL+"/session/refresh", "")
	require.Equal(t, http.StatusOK, status)

	second := showSession(t, client, srv.URL)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "world", second.Values["hello"])

	status, _ = do(t, client, http.MethodDelete, srv.URL+"/session/hello", "")
	require.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, client, http.MethodGet, srv.URL+"/session/hello", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRoutes_Destroy(t *testing.T) {
	t.Parallel()
	srv, client := newTestServer(t)

	status, _ := do(t, client, http.MethodPut, srv.URL+"/session/n", `42`)
	require.Equal(t, http.StatusNoContent, status)
	before := showSession(t, client, srv.URL)
	assert.EqualValues(t, 42, before.Values["n"])

	status, _ = do(t, client, http.MethodDelete, srv.URL+"/session/", "")
	require.Equal(t, http.StatusNoContent, status)

	after := showSession(t, client, srv.URL)
	assert.NotEqual(t, before.ID, after.ID)
	assert.NotContains(t, after.Values, "n")
}

func TestRoutes_RefreshReset(t *testing.T) {
	t.Parallel()
	srv, client := newTestServer(t)

	status, _ := do(t, client, http.MethodPut, srv.URL+"/session/cart", `"3 items"`)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, client, http.MethodPost, srv.URL+"/session/refresh?reset=true", "")
	require.Equal(t, http.StatusOK, status)

	v := showSession(t, client, srv.URL)
	assert.NotContains(t, v.Values, "cart")
	assert.Equal(t, "127.0.0.1", v.Values[session.KeyIP])
}

func TestRoutes_Health(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)
	status, body := do(t, client, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ALIVE", body)

	status, body = do(t, client, http.MethodGet, srv.URL+"/ready", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "READY", body)

	down, client := newTestServer(t, func(context.Context) error { return errors.New("store down") })
	status, body = do(t, client, http.MethodGet, down.URL+"/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "NOT_READY", body)
}

func TestRoutes_ReservedKeys(t *testing.T) {
	t.Parallel()
	srv, client := newTestServer(t)
	before := showSession(t, client, srv.URL)

	for _, key := range []string{session.KeyID, session.KeyIP, session.KeyUserAgent} {
		t.Run(key, func(t *testing.T) {
			status, _ := do(t, client, http.MethodPut, srv.URL+"/session/"+key, `"attacker-chosen"`)
			assert.Equal(t, http.StatusForbidden, status)

			status, _ = do(t, client, http.MethodDelete, srv.URL+"/session/"+key, "")
			assert.Equal(t, http.StatusForbidden, status)
		})
	}

	after := showSession(t, client, srv.URL)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Values, after.Values)

	cookieURL, err := url.Parse(srv.URL)
	require.NoError(t, err)
	cookies := client.Jar.Cookies(cookieURL)
	require.Len(t, cookies, 1)
	assert.Equal(t, after.ID, cookies[0].Value)
	assert.Equal(t, after.ID, after.Values[session.KeyID])
}
