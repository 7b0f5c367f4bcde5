package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

// Handle is the per-request API bound to one session identifier. It never
// changes after construction; rotating the session installs a new Handle in
// the owning Session and any further call on the old one fails with
// ErrStaleHandle.
type Handle struct {
	id      string
	store   Store
	slot    *Session
	manager *Manager
}

func newHandle(id string, store Store, slot *Session, m *Manager) *Handle {
	return &Handle{
		id:      id,
		store:   store,
		slot:    slot,
		manager: m,
	}
}

// ID returns the identifier the handle is bound to.
func (h *Handle) ID() string {
	return h.id
}

// Snapshot returns a read-only copy of the whole record as stored now.
// A record that no longer exists yields an empty snapshot.
func (h *Handle) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := h.checkCurrent(); err != nil {
		return Snapshot{}, err
	}

	rec, err := h.store.Get(ctx, h.id)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return Snapshot{}, err
	}
	return newSnapshot(rec), nil
}

// Get returns the current value for key. Unknown keys are not an error.
func (h *Handle) Get(ctx context.Context, key string) (any, bool, error) {
	if err := h.checkCurrent(); err != nil {
		return nil, false, err
	}

	rec, err := h.store.Get(ctx, h.id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	v, ok := rec[key]
	return v, ok, nil
}

// Set writes key through to the store with a read-modify-write cycle.
// Concurrent writers to the same session are last-writer-wins.
func (h *Handle) Set(ctx context.Context, key string, value any) error {
	if err := h.checkCurrent(); err != nil {
		return err
	}

	rec, err := h.store.Get(ctx, h.id)
	if err != nil {
		return err
	}

	rec[key] = value
	return h.store.Set(ctx, h.id, rec)
}

// Delete removes a single key. Deleting an absent key is a no-op.
func (h *Handle) Delete(ctx context.Context, key string) error {
	if err := h.checkCurrent(); err != nil {
		return err
	}

	rec, err := h.store.Get(ctx, h.id)
	if err != nil {
		return err
	}

	if _, ok := rec[key]; !ok {
		return nil
	}
	delete(rec, key)
	return h.store.Set(ctx, h.id, rec)
}

// Destroy clears the session: it rotates to a new identifier with an empty
// payload, keeping only the client fingerprint.
func (h *Handle) Destroy(ctx context.Context) error {
	return h.Refresh(ctx, true)
}

// Refresh rotates the session to a fresh identifier. With reset the data is
// dropped; otherwise every key except the identifier carries over. The old
// record is destroyed, the cookie is reissued and the new record gets a
// fresh expiration.
func (h *Handle) Refresh(ctx context.Context, reset bool) error {
	if err := h.checkCurrent(); err != nil {
		return err
	}
	m := h.manager

	old, err := h.store.Get(ctx, h.id)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	payload := Record{}
	if !reset && old != nil {
		payload = old.Clone()
	}

	newID, err := m.ids.Generate()
	if err != nil {
		return err
	}
	payload[KeyID] = newID

	ttl := m.expiration(time.Now())

	if err := h.store.Destroy(ctx, h.id); err != nil {
		return err
	}
	if err := m.writeCookie(h.slot.w, newID); err != nil {
		return err
	}
	if err := h.store.Set(ctx, newID, payload); err != nil {
		return err
	}
	if err := h.store.Expire(ctx, newID, ttl); err != nil {
		return err
	}

	next := h.slot.rebind(h, newID)

	m.logger.DebugContext(ctx, "session rotated",
		logger.Component("session"),
		logger.Event("rotate"),
		slog.Bool("reset", reset),
		slog.Duration("ttl", ttl),
	)

	if !reset {
		return nil
	}

	// The trusted fingerprint comes from the old record, never from the
	// request that triggered the rotation.
	for _, key := range []string{KeyIP, KeyUserAgent} {
		v, ok := old[key]
		if !ok {
			continue
		}
		if err := next.Set(ctx, key, v); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handle) checkCurrent() error {
	if h.slot != nil && h.slot.Handle() != h {
		return ErrStaleHandle
	}
	return nil
}
