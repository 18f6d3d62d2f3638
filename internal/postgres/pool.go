// Package postgres provides the resilient connection layer between the
// memory store and a cloud-hosted Postgres whose compute suspends after
// idle periods and silently invalidates open connections.
//
// Every checkout is validated before hand-off. Stale connections are
// destroyed and replaced transparently; when the whole pool has gone stale
// the Manager tears it down and rebuilds it with bounded backoff, riding
// out the remote's cold start. Callers never see staleness — they see a
// live connection or a typed failure.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// validateAttempts bounds checkout+validate cycles per acquisition: the
// first attempt plus one retry after a stale hit. Exhausting the bound
// fails deterministically with ErrPoolExhausted instead of looping.
const validateAttempts = 2

// Config controls pool sizing and recovery behavior.
type Config struct {
	// ConnString is the Postgres connection string (URL or keyword form).
	ConnString string

	// MinConns and MaxConns bound the pool. Zero leaves the driver default.
	MinConns int32
	MaxConns int32

	// StatementTimeout is applied server-side to every pooled connection so
	// a stuck query cannot wedge the process.
	StatementTimeout time.Duration
	// ConnectTimeout bounds the dial of each physical connection.
	ConnectTimeout time.Duration
	// ValidateTimeout bounds the liveness round-trip on checkout.
	ValidateTimeout time.Duration

	// RebuildAttempts caps the outer recovery tier: how many full pool
	// teardown+redial cycles are tried when everything is stale or the
	// database is unreachable.
	RebuildAttempts int
	// RebuildBackoff is the delay before the second rebuild attempt; it
	// doubles per attempt up to RebuildMaxBackoff.
	RebuildBackoff    time.Duration
	RebuildMaxBackoff time.Duration
}

// DefaultConfig returns production defaults. ConnString must still be set
// by the caller.
func DefaultConfig() Config {
	return Config{
		MaxConns:          4,
		StatementTimeout:  30 * time.Second,
		ConnectTimeout:    10 * time.Second,
		ValidateTimeout:   5 * time.Second,
		RebuildAttempts:   3,
		RebuildBackoff:    time.Second,
		RebuildMaxBackoff: 8 * time.Second,
	}
}

// Conn is the query surface handed to callers. It is checked out from the
// pool and must be released exactly once, on every exit path:
//
//	conn, err := pool.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer conn.Release()
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Release()
}

// poolConn extends Conn with destruction of the physical connection.
// Stale connections are discarded, never returned to the pool.
type poolConn interface {
	Conn
	discard(ctx context.Context)
}

// basePool is the slice of the underlying driver pool the Manager drives.
// Tests substitute a fake through the openPool variable.
type basePool interface {
	Acquire(ctx context.Context) (poolConn, error)
	Stat() PoolStat
	Close()
}

// PoolStat is a point-in-time snapshot for the health surface. The
// StaleDiscarded and Rebuilds counters accumulate over the process lifetime.
type PoolStat struct {
	TotalConns     int32 `json:"total_conns"`
	IdleConns      int32 `json:"idle_conns"`
	AcquiredConns  int32 `json:"acquired_conns"`
	StaleDiscarded int64 `json:"stale_discarded"`
	Rebuilds       int64 `json:"rebuilds"`
}

// Manager owns the connection pool and is the only way the rest of the
// process reaches the database. It has an explicit lifecycle: constructed
// without I/O, pool built lazily on first Acquire, rebuilt wholesale on
// total failure, closed at shutdown.
type Manager struct {
	cfg Config
	log *slog.Logger

	mu   sync.Mutex
	pool basePool

	staleDiscarded atomic.Int64
	rebuilds       atomic.Int64
}

// NewManager creates a Manager. No connection is made until the first
// Acquire.
func NewManager(cfg Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{cfg: cfg, log: log}
}

// Acquire returns a connection that passed liveness validation immediately
// before hand-off — it never returns an unvalidated connection. Staleness
// and pool rebuilds are handled here and are invisible to the caller; the
// errors that do escape are genuine query failures or ErrColdStart once the
// rebuild budget is spent.
func (m *Manager) Acquire(ctx context.Context) (Conn, error) {
	conn, err := m.acquireValidated(ctx)
	if err == nil {
		return conn, nil
	}
	if !errors.Is(err, ErrPoolExhausted) && !IsTransient(err) {
		return nil, err
	}
	return m.rebuildAndAcquire(ctx, err)
}

// Ping acquires and validates a connection, reporting database
// reachability for the health surface.
func (m *Manager) Ping(ctx context.Context) error {
	conn, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

// Stat returns pool statistics merged with the Manager's recovery counters.
func (m *Manager) Stat() PoolStat {
	m.mu.Lock()
	pool := m.pool
	m.mu.Unlock()

	var st PoolStat
	if pool != nil {
		st = pool.Stat()
	}
	st.StaleDiscarded = m.staleDiscarded.Load()
	st.Rebuilds = m.rebuilds.Load()
	return st
}

// Close tears down the pool. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
}

// acquireValidated is the inner tier: checkout, validate, and on a stale
// hit destroy the physical connection and retry, bounded by
// validateAttempts.
func (m *Manager) acquireValidated(ctx context.Context) (poolConn, error) {
	pool, err := m.ensurePool(ctx)
	if err != nil {
		return nil, err
	}

	v := Validator{Timeout: m.cfg.ValidateTimeout}
	for attempt := 1; attempt <= validateAttempts; attempt++ {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("postgres: acquire connection: %w", err)
		}
		err = v.Validate(ctx, conn)
		if err == nil {
			return conn, nil
		}
		if !errors.Is(err, ErrStaleConn) {
			conn.Release()
			return nil, err
		}
		conn.discard(ctx)
		m.staleDiscarded.Add(1)
		m.log.Warn("discarded stale connection",
			"attempt", attempt, "max_attempts", validateAttempts)
	}
	return nil, fmt.Errorf("%w (bound %d reached)", ErrPoolExhausted, validateAttempts)
}

// rebuildAndAcquire is the outer recovery tier: tear the pool down, dial a
// fresh one, and try a single validated checkout, backing off between
// attempts. This is the path that rides out the remote's cold start.
func (m *Manager) rebuildAndAcquire(ctx context.Context, cause error) (Conn, error) {
	backoff := m.cfg.RebuildBackoff
	for attempt := 1; attempt <= m.cfg.RebuildAttempts; attempt++ {
		m.log.Warn("rebuilding connection pool",
			"attempt", attempt, "max_attempts", m.cfg.RebuildAttempts, "cause", cause)

		conn, err := m.rebuildOnce(ctx)
		if err == nil {
			m.log.Info("connection pool rebuilt", "attempt", attempt)
			return conn, nil
		}
		if !errors.Is(err, ErrStaleConn) && !IsTransient(err) {
			return nil, err
		}
		cause = err

		if attempt == m.cfg.RebuildAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("postgres: pool rebuild canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, m.cfg.RebuildMaxBackoff)
	}
	return nil, fmt.Errorf("%w: %v", ErrColdStart, cause)
}

// rebuildOnce replaces the pool and attempts one validated checkout.
func (m *Manager) rebuildOnce(ctx context.Context) (poolConn, error) {
	pool, err := m.resetPool(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquire connection: %w", err)
	}
	v := Validator{Timeout: m.cfg.ValidateTimeout}
	if err := v.Validate(ctx, conn); err != nil {
		if errors.Is(err, ErrStaleConn) {
			conn.discard(ctx)
			m.staleDiscarded.Add(1)
		} else {
			conn.Release()
		}
		return nil, err
	}
	return conn, nil
}

// ensurePool lazily builds the pool on first use.
func (m *Manager) ensurePool(ctx context.Context) (basePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool != nil {
		return m.pool, nil
	}
	pool, err := openPool(ctx, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	m.pool = pool
	return pool, nil
}

// resetPool closes the current pool (if any) and dials a fresh one.
func (m *Manager) resetPool(ctx context.Context) (basePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
	m.rebuilds.Add(1)
	pool, err := openPool(ctx, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	m.pool = pool
	return pool, nil
}
