package httpserver_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func waitReady(t *testing.T, url string) *http.Response {
	t.Helper()
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get(url)
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 10*time.Millisecond)
	return resp
}

func TestServer_ServeAndCancel(t *testing.T) {
	t.Parallel()
	ln := listen(t)
	url := "http://" + ln.Addr().String() + "/"

	srv := httpserver.New(httpserver.WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}))
	}()

	resp := waitReady(t, url)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_Shutdown(t *testing.T) {
	t.Parallel()
	ln := listen(t)
	url := "http://" + ln.Addr().String() + "/"

	srv := httpserver.New()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln, nil) }()

	resp := waitReady(t, url)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ShutdownNotRunning(t *testing.T) {
	t.Parallel()
	assert.NoError(t, httpserver.New().Shutdown(context.Background()))
}

func TestServer_AlreadyRunning(t *testing.T) {
	t.Parallel()
	ln := listen(t)
	srv := httpserver.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, nil) }()
	resp := waitReady(t, "http://"+ln.Addr().String()+"/")
	_ = resp.Body.Close()

	err := srv.Serve(ctx, listen(t), nil)
	assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)

	cancel()
	assert.NoError(t, <-done)
}

func TestServer_RunInvalidAddr(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.WithAddr("256.0.0.1:bad"))
	err := srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	httpserver.LivenessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ALIVE", w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()
	failing := func(context.Context) error { return errors.New("db down") }
	passing := func(context.Context) error { return nil }

	tests := []struct {
		name       string
		checks     []func(context.Context) error
		wantStatus int
		wantBody   string
	}{
		{"no checks", nil, http.StatusOK, "READY"},
		{"all pass", []func(context.Context) error{passing, passing}, http.StatusOK, "READY"},
		{"one fails", []func(context.Context) error{passing, failing}, http.StatusServiceUnavailable, "NOT_READY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			httpserver.ReadinessHandler(nil, tt.checks...).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestReadinessHandler_UsesRequestContext(t *testing.T) {
	t.Parallel()
	type key struct{}
	var got any
	h := httpserver.ReadinessHandler(nil, func(ctx context.Context) error {
		got = ctx.Value(key{})
		return nil
	})
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)
	r = r.WithContext(context.WithValue(r.Context(), key{}, "request"))
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "request", got)
}

func TestAccessLog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := httpserver.AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/brew", nil))

	out := buf.String()
	assert.True(t, strings.Contains(out, `"method":"POST"`), out)
	assert.True(t, strings.Contains(out, `"path":"/brew"`), out)
	assert.True(t, strings.Contains(out, `"status":418`), out)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	ln := listen(t)
	srv := httpserver.NewFromConfig(httpserver.Config{ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, nil) }()
	resp := waitReady(t, "http://"+ln.Addr().String()+"/")
	_ = resp.Body.Close()
	cancel()
	assert.NoError(t, <-done)
}
