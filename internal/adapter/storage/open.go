package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/pantry/internal/config"
	"github.com/rl1809/pantry/internal/port"
)

// Store bundles the configured gateway with the connections it owns.
type Store struct {
	Gateway     port.Gateway
	Idempotency port.IdempotencyStore
	closers     []func() error
}

// Close releases every connection opened by Open.
func (s *Store) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*Store, error) {
	store := &Store{Idempotency: NewMemoryIdempotency(idempotencyKeyTTL)}

	switch cfg.Backend {
	case config.BackendMemory:
		store.Gateway = NewMemoryAdapter()

	case config.BackendBadger:
		db, err := OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, db.Close)
		store.Gateway = NewBadgerAdapter(db)

	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, db.Close)
		adapter := NewSQLiteAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		store.Gateway = adapter

	case config.BackendMySQL:
		db, err := openMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, db.Close)
		adapter := NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		store.Gateway = adapter

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store.closers = append(store.closers, rdb.Close)
		store.Gateway = NewRedisAdapter(rdb)
		store.Idempotency = NewRedisIdempotency(rdb)

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	logger.Info("store opened", zap.String("backend", cfg.Backend))
	return store, nil
}
