// Package boltstore implements session.Store in an embedded bbolt file.
// Deadlines are stored next to each record; expired records are hidden
// from reads and swept by DeleteExpired.
package boltstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

// DefaultBucket holds the session records.
const DefaultBucket = "sessions"

// ErrStoreFailed wraps bbolt failures.
var ErrStoreFailed = errors.New("session.store_failed")

// Config holds store settings.
type Config struct {
	Path            string        `env:"SESSION_BOLT_PATH" envDefault:"sessions.db"`
	Bucket          string        `env:"SESSION_BOLT_BUCKET" envDefault:"sessions"`
	CleanupInterval time.Duration `env:"SESSION_BOLT_CLEANUP_INTERVAL" envDefault:"1m"`
}

// entry is the on-disk envelope of a record.
type entry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// Store is a bbolt backed session.Store.
type Store struct {
	db     *bbolt.DB
	bucket []byte
	ownsDB bool
	log    *slog.Logger
	now    func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithBucket overrides DefaultBucket.
func WithBucket(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.bucket = []byte(name)
		}
	}
}

// WithLogger sets the logger used by the cleanup loop.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a store in db, creating the bucket if needed. The caller
// keeps ownership of db.
func New(db *bbolt.DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:     db,
		bucket: []byte(DefaultBucket),
		log:    slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return s, nil
}

// Open opens (or creates) the database file at path. Close releases it.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	s, err := New(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewFromConfig opens the file and bucket named in cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Store, error) {
	return Open(cfg.Path, append([]Option{WithBucket(cfg.Bucket)}, opts...)...)
}

// Close closes the database when the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is open and holds the bucket. It is
// suitable as a readiness check.
func (s *Store) Ping(ctx context.Context) error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return fmt.Errorf("bucket %q not found", s.bucket)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Get returns the record for id. Expired entries read as absent.
func (s *Store) Get(ctx context.Context, id string) (session.Record, error) {
	var rec session.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		e, ok, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return session.ErrSessionNotFound
		}
		rec, err = session.DecodeRecord(e.Data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Set replaces the data and keeps a live deadline.
func (s *Store) Set(ctx context.Context, id string, rec session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}
	return s.update(func(b *bbolt.Bucket) error {
		e, _, err := s.loadFrom(b, id)
		if err != nil {
			return err
		}
		e.Data = data
		return s.put(b, id, e)
	})
}

// Destroy removes the entry for id.
func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.update(func(b *bbolt.Bucket) error {
		return b.Delete([]byte(id))
	})
}

// Expire keeps the earlier of the stored and the new deadline.
func (s *Store) Expire(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Destroy(ctx, id)
	}
	return s.update(func(b *bbolt.Bucket) error {
		e, ok, err := s.loadFrom(b, id)
		if err != nil || !ok {
			return err
		}
		deadline := s.now().Add(ttl)
		if e.ExpiresAt == nil || deadline.Before(*e.ExpiresAt) {
			e.ExpiresAt = &deadline
		}
		return s.put(b, id, e)
	})
}

// DeleteExpired removes records past their deadline and reports how many.
func (s *Store) DeleteExpired(ctx context.Context) (int, error) {
	now := s.now()
	var deleted int
	err := s.update(func(b *bbolt.Bucket) error {
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				return errors.Join(session.ErrInvalidRecord, err)
			}
			if e.expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(stale)
		return nil
	})
	return deleted, err
}

// RunCleanup calls DeleteExpired every interval until ctx is done.
func (s *Store) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				s.log.ErrorContext(ctx, "failed to delete expired sessions",
					logger.Component("boltstore"),
					logger.Error(err),
				)
				continue
			}
			if n > 0 {
				s.log.DebugContext(ctx, "expired sessions deleted",
					logger.Component("boltstore"),
					slog.Int("count", n),
				)
			}
		}
	}
}

func (s *Store) update(fn func(b *bbolt.Bucket) error) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(s.bucket))
	})
	if err != nil && !errors.Is(err, session.ErrInvalidRecord) {
		return errors.Join(ErrStoreFailed, err)
	}
	return err
}

func (s *Store) load(tx *bbolt.Tx, id string) (entry, bool, error) {
	return s.loadFrom(tx.Bucket(s.bucket), id)
}

// loadFrom returns the live entry for id. Expired entries read as absent.
func (s *Store) loadFrom(b *bbolt.Bucket, id string) (entry, bool, error) {
	raw := b.Get([]byte(id))
	if raw == nil {
		return entry{}, false, nil
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, false, errors.Join(session.ErrInvalidRecord, err)
	}
	if e.expired(s.now()) {
		return entry{}, false, nil
	}
	return e, true, nil
}

func (s *Store) put(b *bbolt.Bucket, id string, e entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Join(session.ErrInvalidRecord, err)
	}
	return b.Put([]byte(id), data)
}
