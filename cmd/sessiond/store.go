package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/sessionguard/pkg/config"
	"github.com/dmitrymomot/sessionguard/pkg/mongo"
	"github.com/dmitrymomot/sessionguard/pkg/pg"
	"github.com/dmitrymomot/sessionguard/pkg/redis"
	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/session/boltstore"
	"github.com/dmitrymomot/sessionguard/pkg/session/mongostore"
	"github.com/dmitrymomot/sessionguard/pkg/session/pgstore"
	"github.com/dmitrymomot/sessionguard/pkg/session/redisstore"
)

type storeConfig struct {
	Backend string `env:"SESSION_STORE" envDefault:"memory"`
}

// backend is an opened session store with its readiness checks and
// background jobs.
type backend struct {
	name       string
	store      session.Store
	checks     []func(context.Context) error
	background []func(context.Context)
	closers    []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openStore(ctx context.Context, log *slog.Logger) (*backend, error) {
	var cfg storeConfig
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	switch name := strings.ToLower(strings.TrimSpace(cfg.Backend)); name {
	case "", "memory":
		mem := session.NewMemoryStore()
		return &backend{
			name:    "memory",
			store:   mem,
			closers: []func(){func() { _ = mem.Close() }},
		}, nil

	case "redis":
		var (
			connCfg  redis.Config
			storeCfg redisstore.Config
		)
		if err := config.Load(&connCfg); err != nil {
			return nil, err
		}
		if err := config.Load(&storeCfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, connCfg)
		if err != nil {
			return nil, err
		}
		return &backend{
			name:    name,
			store:   redisstore.NewFromConfig(client, storeCfg),
			checks:  []func(context.Context) error{redis.Healthcheck(client)},
			closers: []func(){func() { _ = client.Close() }},
		}, nil

	case "postgres", "pg":
		var (
			connCfg  pg.Config
			storeCfg pgstore.Config
		)
		if err := config.Load(&connCfg); err != nil {
			return nil, err
		}
		if err := config.Load(&storeCfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, connCfg)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool, "", log); err != nil {
			pool.Close()
			return nil, err
		}
		store := pgstore.New(pool, pgstore.WithLogger(log))
		return &backend{
			name:   "postgres",
			store:  store,
			checks: []func(context.Context) error{pg.Healthcheck(pool)},
			background: []func(context.Context){
				func(ctx context.Context) { store.RunCleanup(ctx, storeCfg.CleanupInterval) },
			},
			closers: []func(){pool.Close},
		}, nil

	case "bolt":
		var storeCfg boltstore.Config
		if err := config.Load(&storeCfg); err != nil {
			return nil, err
		}
		store, err := boltstore.NewFromConfig(storeCfg, boltstore.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &backend{
			name:   name,
			store:  store,
			checks: []func(context.Context) error{store.Ping},
			background: []func(context.Context){
				func(ctx context.Context) { store.RunCleanup(ctx, storeCfg.CleanupInterval) },
			},
			closers: []func(){func() { _ = store.Close() }},
		}, nil

	case "mongo", "mongodb":
		var (
			connCfg  mongo.Config
			storeCfg mongostore.Config
		)
		if err := config.Load(&connCfg); err != nil {
			return nil, err
		}
		if err := config.Load(&storeCfg); err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, connCfg)
		if err != nil {
			return nil, err
		}
		disconnect := func() { _ = client.Disconnect(context.Background()) }
		store := mongostore.NewFromConfig(client.Database(connCfg.Database), storeCfg)
		if err := store.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, err
		}
		return &backend{
			name:    "mongo",
			store:   store,
			checks:  []func(context.Context) error{mongo.Healthcheck(client)},
			closers: []func(){disconnect},
		}, nil

	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Backend)
	}
}
