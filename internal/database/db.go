// Package database wraps a PostgreSQL/TimescaleDB connection pool with
// the transactional-flush helper and health-check surface the ingestion
// engine needs. Schema installation (hypertable creation, indexes) is
// assumed to have happened out-of-band; this package only ever issues
// DML against tables that already exist.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Config controls pool construction.
type Config struct {
	URL string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns pool-tuning defaults sized for a single ingestion
// process with a handful of concurrent analytics workers.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// DB wraps a pgxpool.Pool.
type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// New builds a connection pool from cfg and verifies connectivity with a
// ping.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("database: parse config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return &DB{
		Pool: pool,
		log:  log.With().Str("component", "database").Logger(),
	}, nil
}

// Close releases all pooled connections.
func (db *DB) Close() {
	db.Pool.Close()
}

// WithTransaction runs fn inside a single transaction acquired from the
// pool. fn's error causes a rollback; otherwise the transaction commits.
// A panic inside fn is recovered, the transaction is rolled back, and
// the panic is re-raised, guaranteeing the acquired connection is always
// released.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies the pool can still serve a trivial query within
// timeout. Used by the periodic health-check task (see internal/health).
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var one int
	if err := db.Pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database: health check query: %w", err)
	}
	if one != 1 {
		return fmt.Errorf("database: health check returned unexpected value %d", one)
	}
	return nil
}

// Stats exposes the pool's current connection statistics for
// diagnostics.
func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}
