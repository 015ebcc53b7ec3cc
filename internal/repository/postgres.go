package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type scanner interface {
	Scan(dest ...any) error
}

// Options sizes the connection pool and bounds how long a transaction
// waits on a row lock held by a concurrent settlement.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LockTimeout     time.Duration
}

// DB is the pool plus the lock timeout every service transaction runs
// under. Repositories take the bare pool from Conn.
type DB struct {
	pool        *sql.DB
	lockTimeout time.Duration
}

// Open connects to Postgres and returns the transaction-aware wrapper.
func Open(ctx context.Context, databaseURL string, opts Options) (*DB, error) {
	pool, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	db, err := Wrap(ctx, pool, opts)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	return db, nil
}

// Wrap applies opts to an already opened pool and pings it. The pool is
// closed when the ping fails.
func Wrap(ctx context.Context, pool *sql.DB, opts Options) (*DB, error) {
	pool.SetMaxOpenConns(opts.MaxOpenConns)
	pool.SetMaxIdleConns(opts.MaxIdleConns)
	pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return NewDB(pool, opts.LockTimeout), nil
}

// NewDB wraps pool without touching its settings. A non-zero lockTimeout is
// applied to every transaction opened through BeginTx so a blocked row lock
// surfaces as a concurrency conflict instead of hanging until the request
// deadline.
func NewDB(pool *sql.DB, lockTimeout time.Duration) *DB {
	return &DB{pool: pool, lockTimeout: lockTimeout}
}

func (d *DB) Conn() *sql.DB {
	return d.pool
}

func (d *DB) Close() error {
	return d.pool.Close()
}

func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := d.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("BeginTx: %w", mapError(err))
	}
	if d.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("BeginTx: lock timeout: %w", mapError(err))
		}
	}
	return tx, nil
}
