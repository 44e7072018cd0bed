// Package storage selects and opens the durable backend behind the session
// and cart stores.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/ports"
	"github.com/greenleaf/storefront/internal/infrastructure/db/mongo"
	"github.com/greenleaf/storefront/internal/infrastructure/db/redis"
	"github.com/greenleaf/storefront/internal/infrastructure/db/sqlite"
	"github.com/greenleaf/storefront/internal/pkg/config"
)

// Backend is an opened storage backend.
type Backend interface {
	ports.Storage
	ports.Pinger
	io.Closer
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*sqlite.Storage)(nil)
	_ Backend = (*redis.Storage)(nil)
	_ Backend = (*mongo.Storage)(nil)
	_ Lister  = (*Memory)(nil)
	_ Lister  = (*sqlite.Storage)(nil)
)

// Open connects the backend named by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Warn().Msg("using in-memory storage; sessions and carts will not survive a restart")
		return NewMemory(), nil

	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("connected to sqlite")
		return s, nil

	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("connected to redis")
		return redis.NewStorage(client, cfg.Redis.TTL), nil

	case config.BackendMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, fmt.Errorf("open mongo storage: %w", err)
		}
		s := mongo.NewStorage(client, db)
		if err := s.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to create mongo indexes")
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
