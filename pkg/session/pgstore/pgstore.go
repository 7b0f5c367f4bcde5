// Package pgstore implements session.Store on PostgreSQL. Records live in
// the http_sessions table as JSONB; expired rows are invisible to reads and
// removed by DeleteExpired.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/pg"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrStoreFailed wraps database failures.
var ErrStoreFailed = errors.New("session.store_failed")

const (
	getQuery = `SELECT data FROM http_sessions
WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`

	// An expired row that was not swept yet counts as absent, so its old
	// deadline must not carry over to the new record.
	setQuery = `INSERT INTO http_sessions (id, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE SET
	data = EXCLUDED.data,
	updated_at = now(),
	expires_at = CASE WHEN http_sessions.expires_at <= now() THEN NULL ELSE http_sessions.expires_at END`

	destroyQuery = `DELETE FROM http_sessions WHERE id = $1`

	// LEAST ignores NULL, so the earliest deadline always wins.
	expireQuery = `UPDATE http_sessions
SET expires_at = LEAST(expires_at, now() + $2::bigint * interval '1 microsecond')
WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`

	deleteExpiredQuery = `DELETE FROM http_sessions WHERE expires_at <= now()`
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds store settings.
type Config struct {
	CleanupInterval time.Duration `env:"SESSION_PG_CLEANUP_INTERVAL" envDefault:"5m"`
}

// Store is a PostgreSQL backed session.Store.
type Store struct {
	db  DB
	log *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger used by the cleanup loop.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a store on db. Run Migrate first.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the http_sessions table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, table string, log *slog.Logger) error {
	return pg.MigrateFS(ctx, pool, migrations, "migrations", table, log)
}

// Get returns the live record for id or session.ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, id string) (session.Record, error) {
	var data []byte
	if err := s.db.QueryRow(ctx, getQuery, id).Scan(&data); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return session.DecodeRecord(data)
}

// Set upserts the record, keeping an armed deadline unless it has passed.
func (s *Store) Set(ctx context.Context, id string, rec session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, setQuery, id, data); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Destroy deletes the row for id.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, destroyQuery, id); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Expire sets the row deadline using the database clock.
func (s *Store) Expire(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Destroy(ctx, id)
	}
	if _, err := s.db.Exec(ctx, expireQuery, id, max(ttl.Microseconds(), 1)); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// DeleteExpired removes rows whose deadline passed and reports how many.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteExpiredQuery)
	if err != nil {
		return 0, errors.Join(ErrStoreFailed, err)
	}
	return tag.RowsAffected(), nil
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
					logger.Component("pgstore"),
					logger.Error(err),
				)
				continue
			}
			if n > 0 {
				s.log.DebugContext(ctx, "expired sessions deleted",
					logger.Component("pgstore"),
					slog.Int64("count", n),
				)
			}
		}
	}
}
