package session

import (
	"context"
	"time"
)

// Store defines the interface for session persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns a copy of the record stored under id or ErrSessionNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// Set upserts the record, replacing prior contents in full. An
	// expiration already armed for id stays in effect.
	Set(ctx context.Context, id string, rec Record) error

	// Destroy removes the record. Destroying an absent id is a no-op.
	Destroy(ctx context.Context, id string) error

	// Expire schedules destruction of id ttl after the call. Every armed
	// deadline stays live, so the earliest one wins. A non-positive ttl
	// destroys immediately; expiring an absent id is a no-op.
	Expire(ctx context.Context, id string, ttl time.Duration) error
}
