// Package database opens the configured backing store.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/config"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store/gormstore"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store/pgstore"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
	"gorm.io/gorm"
)

const connectAttempts = 5

// Connect opens and migrates the sqlite database at cfg.DatabasePath.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return gormstore.Open(cfg.DatabasePath)
}

// NewPool creates and validates a pgx pool for url. It retries a few times so
// the service can start alongside its database container.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	log := logger.Named("database")
	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		log.Warn(ctx, "postgres connect failed", logger.Int("attempt", attempt), logger.Error(err))
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// Open returns the store selected by cfg.DatabaseDriver and a func releasing
// its resources.
func Open(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return pgstore.New(pool), pool.Close, nil

	default:
		db, err := Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return gormstore.New(db), closeFn, nil
	}
}
