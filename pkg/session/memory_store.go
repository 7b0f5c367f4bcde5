package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. Each Expire call arms its
// own timer; Close stops the ones still pending.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	timers  map[*time.Timer]struct{}
	closed  bool
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		timers:  make(map[*time.Timer]struct{}),
	}
}

// Get returns a copy of the stored record
func (m *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return rec.Clone(), nil
}

// Set stores a copy of rec
func (m *MemoryStore) Set(ctx context.Context, id string, rec Record) error {
	stored := rec.Clone()
	if stored == nil {
		stored = Record{}
	}

	m.mu.Lock()
	m.records[id] = stored
	m.mu.Unlock()
	return nil
}

// Destroy removes the record
func (m *MemoryStore) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()
	return nil
}

// Expire arms a timer that destroys id after ttl
func (m *MemoryStore) Expire(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return m.Destroy(ctx, id)
	}

	// The lock is held while the timer is registered, so the callback cannot
	// observe t before it is assigned.
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok || m.closed {
		return nil
	}

	var t *time.Timer
	t = time.AfterFunc(ttl, func() {
		m.mu.Lock()
		delete(m.timers, t)
		delete(m.records, id)
		m.mu.Unlock()
	})
	m.timers[t] = struct{}{}
	return nil
}

// Len returns the number of live records
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Pending returns the number of armed expiration timers
func (m *MemoryStore) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.timers)
}

// Close stops all pending expiration timers. Records are kept.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for t := range m.timers {
		t.Stop()
	}
	clear(m.timers)
	m.closed = true
	return nil
}
