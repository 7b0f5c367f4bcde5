// Package redisstore implements session.Store on top of Redis. Records are
// stored as JSON strings and expiration is delegated to key TTLs.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionguard/pkg/session"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "session:"

// Config holds store settings.
type Config struct {
	KeyPrefix string `env:"SESSION_REDIS_KEY_PREFIX" envDefault:"session:"`
}

// expireScript arms a deadline unless an earlier one is already set.
// PTTL is -2 for a missing key and -1 for a key without TTL.
var expireScript = redis.NewScript(`
local current = redis.call('PTTL', KEYS[1])
if current == -2 then
	return 0
end
local ttl = tonumber(ARGV[1])
if current == -1 or ttl < current then
	return redis.call('PEXPIRE', KEYS[1], ttl)
end
return 0
`)

// Store is a Redis backed session.Store.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures the Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store using client. The client is not closed by the store.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig creates a store from cfg.
func NewFromConfig(client redis.UniversalClient, cfg Config) *Store {
	return New(client, WithKeyPrefix(cfg.KeyPrefix))
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Get returns the record stored under the prefixed key.
func (s *Store) Get(ctx context.Context, id string) (session.Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return session.DecodeRecord(data)
}

// Set writes the record with KEEPTTL so an armed expiration survives.
func (s *Store) Set(ctx context.Context, id string, rec session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.client.SetArgs(ctx, s.key(id), data, redis.SetArgs{KeepTTL: true}).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Destroy deletes the key for id.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Expire arms a deadline unless an earlier one is already set.
func (s *Store) Expire(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Destroy(ctx, id)
	}

	ms := max(ttl.Milliseconds(), 1)
	if err := expireScript.Run(ctx, s.client, []string{s.key(id)}, ms).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}
