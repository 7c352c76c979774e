// Package postgres implements the leaderboard collaborator interfaces on top of
// PostgreSQL through pgx. The engine only reads; the tables below are owned by
// the profile, social, session and task services:
//
//	users(id, name, username, email, avatar, level, xp, country, streak_days, best_streak)
//	friendships(user_id, friend_id, status)
//	focus_sessions(user_id, type, completed, duration, start_time)
//	tasks(user_id, status, updated_at)
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alem-hub/focus-leaderboard/pkg/circuitbreaker"
	"github.com/alem-hub/focus-leaderboard/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrConnectionClosed indicates the connection pool is closed.
	ErrConnectionClosed = errors.New("postgres: connection pool is closed")

	// ErrNoRows is returned when a query returns no rows.
	ErrNoRows = pgx.ErrNoRows
)

// IsNoRows checks if the error is a "no rows" error.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsBreakerFailure reports whether err says something about database health.
// A missing row or an abandoned request does not.
func IsBreakerFailure(err error) bool {
	return !IsNoRows(err) && !errors.Is(err, context.Canceled)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTION POOL
// ══════════════════════════════════════════════════════════════════════════════

// Config holds PostgreSQL connection configuration.
type Config struct {
	// URL is a postgres:// connection string.
	URL string

	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	// ConnectTimeout bounds the whole bootstrap, retries included.
	ConnectTimeout time.Duration
}

// DefaultConfig returns sensible pool defaults.
func DefaultConfig() Config {
	return Config{
		MaxConns:          20,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		ConnectTimeout:    15 * time.Second,
	}
}

// PoolConfig returns pgxpool configuration.
func (c Config) PoolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}
	if c.MaxConns > 0 {
		cfg.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		cfg.MinConns = c.MinConns
	}
	if c.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = c.HealthCheckPeriod
	}
	return cfg, nil
}

// Connection wraps a pgx pool. Every read goes through a circuit breaker.
type Connection struct {
	pool    *pgxpool.Pool
	breaker *circuitbreaker.CircuitBreaker
	closed  bool
	mu      sync.RWMutex
}

// NewConnection creates the pool and pings it, retrying while the database
// comes up. The breaker may be nil.
func NewConnection(ctx context.Context, cfg Config, retrier *retry.Retrier, breaker *circuitbreaker.CircuitBreaker) (*Connection, error) {
	poolConfig, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}
	if retrier == nil {
		retrier = retry.New(retry.WithMaxAttempts(1))
	}
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := retry.DoWithData(ctx, retrier, func(ctx context.Context) (*pgxpool.Pool, error) {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("postgres: failed to create connection pool: %w", err))
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	return &Connection{pool: pool, breaker: breaker}, nil
}

// NewConnectionFromPool wraps an existing pool.
func NewConnectionFromPool(pool *pgxpool.Pool, breaker *circuitbreaker.CircuitBreaker) *Connection {
	return &Connection{pool: pool, breaker: breaker}
}

// Close closes the connection pool.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.pool.Close()
}

// Ping checks if the database connection is alive.
func (c *Connection) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
	}
	return c.pool.Ping(ctx)
}

// HealthStatus contains pool statistics.
type HealthStatus struct {
	Healthy       bool
	Error         string
	PingLatency   time.Duration
	TotalConns    int32
	IdleConns     int32
	AcquiredConns int32
	MaxConns      int32
	BreakerState  string
}

// Health pings the database and reports pool statistics.
func (c *Connection) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{}
	if c.breaker != nil {
		status.BreakerState = c.breaker.State().String()
	}

	start := time.Now()
	if err := c.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.PingLatency = time.Since(start)

	stats := c.pool.Stat()
	status.TotalConns = stats.TotalConns()
	status.IdleConns = stats.IdleConns()
	status.AcquiredConns = stats.AcquiredConns()
	status.MaxConns = stats.MaxConns()
	status.Healthy = true
	return status
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// poolQuerier is the read subset of *pgxpool.Pool used by the repositories.
type poolQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// read runs fn under the circuit breaker.
func (c *Connection) read(ctx context.Context, fn func(ctx context.Context, q poolQuerier) error) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}
	pool := c.pool
	c.mu.RUnlock()

	run := func(ctx context.Context) error { return fn(ctx, pool) }
	if c.breaker == nil {
		return run(ctx)
	}
	return c.breaker.Execute(ctx, run)
}

// queryRow scans a single row.
func (c *Connection) queryRow(ctx context.Context, sql string, args []any, dest ...any) error {
	return c.read(ctx, func(ctx context.Context, pool poolQuerier) error {
		return pool.QueryRow(ctx, sql, args...).Scan(dest...)
	})
}

// queryCount runs a SELECT COUNT(*) statement.
func (c *Connection) queryCount(ctx context.Context, sql string, args []any) (int, error) {
	var n int64
	if err := c.queryRow(ctx, sql, args, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// queryRows collects every row with scan.
func queryRows[T any](ctx context.Context, c *Connection, sql string, args []any, scan func(pgx.Row) (T, error)) ([]T, error) {
	var out []T
	err := c.read(ctx, func(ctx context.Context, pool poolQuerier) error {
		rows, err := pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
