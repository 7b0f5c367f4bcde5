package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/environment"
	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/requestid"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

const maxValueSize = 4 << 10

func newRouter(
	manager *session.Manager,
	env environment.Environment,
	ips *clientip.Resolver,
	log *slog.Logger,
	checks ...func(context.Context) error,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		ips.Middleware,
		environment.Middleware(env),
		httpserver.AccessLog(log),
	)

	r.Get("/health", httpserver.LivenessHandler())
	r.Get("/ready", httpserver.ReadinessHandler(log, checks...))

	h := &sessionHandlers{log: log}
	r.Route("/session", func(r chi.Router) {
		r.Use(manager.Middleware)
		r.Get("/", h.show)
		r.Delete("/", h.destroy)
		r.Post("/refresh", h.refresh)
		r.Get("/{key}", h.get)
		r.Put("/{key}", h.set)
		r.Delete("/{key}", h.delete)
	})

	return r
}

type sessionHandlers struct {
	log *slog.Logger
}

type sessionView struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
}

func (h *sessionHandlers) show(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	snap, err := sess.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionView{ID: snap.ID(), Values: snap.Map()})
}

func (h *sessionHandlers) get(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	key := chi.URLParam(r, "key")
	value, ok, err := sess.Get(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{key: value})
}

func (h *sessionHandlers) set(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	key := chi.URLParam(r, "key")
	if session.IsReserved(key) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxValueSize+1))
	if err != nil || len(body) > maxValueSize {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		value = string(body)
	}
	if err := sess.Set(r.Context(), key, value); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	key := chi.URLParam(r, "key")
	if session.IsReserved(key) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err := sess.Delete(r.Context(), key); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	reset, _ := strconv.ParseBool(r.URL.Query().Get("reset"))
	if err := sess.Refresh(r.Context(), reset); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionView{ID: sess.ID()})
}

func (h *sessionHandlers) destroy(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	if err := sess.Destroy(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, session.ErrSessionNotFound) {
		status = http.StatusGone
	}
	h.log.ErrorContext(r.Context(), "session operation failed",
		logger.Component("sessiond"),
		logger.Error(err),
	)
	http.Error(w, http.StatusText(status), status)
}

func (h *sessionHandlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
