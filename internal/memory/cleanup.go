package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ─── Sweeping ────────────────────────────────────────────────────────────────

// SweepResult reports what one cleanup pass removed.
type SweepResult struct {
	Deleted   int `json:"deleted"`
	Handovers int `json:"handovers"`
}

// SweepExpired deletes every session whose expiry is at or before cutoff.
// Sessions that are bound to a project and carry a non-empty summary get a
// handover written in the same transaction before the delete — expiring a
// session must never lose its accumulated state. Rows locked by a
// concurrent sweep are skipped and picked up on a later pass.
func (s *Store) SweepExpired(ctx context.Context, cutoff time.Time) (SweepResult, error) {
	var result SweepResult

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return result, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("memory: sweep: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT session_id, project_name, session_summary
		 FROM sessions
		 WHERE expires_at <= $1
		 FOR UPDATE SKIP LOCKED`,
		cutoff)
	if err != nil {
		return result, fmt.Errorf("memory: sweep: select expired: %w", err)
	}

	type expired struct {
		id      string
		binding ProjectBinding
		summary SessionSummary
	}
	var victims []expired
	for rows.Next() {
		var (
			e          expired
			projectCol string
			raw        []byte
		)
		if err := rows.Scan(&e.id, &projectCol, &raw); err != nil {
			rows.Close()
			return result, fmt.Errorf("memory: sweep: scan: %w", err)
		}
		e.binding = bindingFromColumn(projectCol)
		if e.summary, err = decodeSummary(raw); err != nil {
			rows.Close()
			return result, fmt.Errorf("memory: sweep: %w", err)
		}
		victims = append(victims, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return result, fmt.Errorf("memory: sweep: %w", err)
	}
	rows.Close()

	if len(victims) == 0 {
		return result, tx.Commit(ctx)
	}

	ids := make([]string, 0, len(victims))
	for _, v := range victims {
		ids = append(ids, v.id)
		project, bound := v.binding.Project()
		if !bound || v.summary.Empty() {
			continue
		}
		if _, err := upsertHandover(ctx, tx, project, v.id, v.summary); err != nil {
			return result, fmt.Errorf("memory: sweep: session %s: %w", v.id, err)
		}
		result.Handovers++
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM sessions WHERE session_id = ANY($1)`, ids)
	if err != nil {
		return result, fmt.Errorf("memory: sweep: delete: %w", err)
	}
	result.Deleted = int(tag.RowsAffected())

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("memory: sweep: commit: %w", err)
	}
	return result, nil
}

// ─── Cleaner ─────────────────────────────────────────────────────────────────

// sweeper is the slice of the store the cleaner drives.
type sweeper interface {
	SweepExpired(ctx context.Context, cutoff time.Time) (SweepResult, error)
}

// CleanerConfig holds cleanup scheduling configuration.
type CleanerConfig struct {
	// Interval is how often the regular sweep removes everything past its
	// expiry.
	Interval time.Duration
	// Aggressive enables the frequent low-blast-radius tier, which only
	// removes sessions expired for longer than Grace.
	Aggressive         bool
	AggressiveInterval time.Duration
	Grace              time.Duration
}

// DefaultCleanerConfig returns the default cleanup schedule.
func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfig{
		Interval:           time.Hour,
		Aggressive:         false,
		AggressiveInterval: 10 * time.Minute,
		Grace:              time.Hour,
	}
}

// Cleaner periodically removes expired sessions. It runs off the request
// path on its own timers: an hourly regular sweep, plus an optional
// aggressive tier that fires more often but only touches sessions expired
// well past their limit.
type Cleaner struct {
	store sweeper
	cfg   CleanerConfig
	log   *slog.Logger
	now   func() time.Time
}

// NewCleaner creates a Cleaner driving the given store.
func NewCleaner(store *Store, cfg CleanerConfig, log *slog.Logger) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{store: store, cfg: cfg, log: log, now: time.Now}
}

// Run sweeps on the configured intervals until ctx is canceled. A failed
// sweep is logged and retried on the next tick; nothing that happens in
// here may take the host process down.
func (c *Cleaner) Run(ctx context.Context) {
	regular := time.NewTicker(c.cfg.Interval)
	defer regular.Stop()

	aggressive := make(<-chan time.Time)
	if c.cfg.Aggressive {
		t := time.NewTicker(c.cfg.AggressiveInterval)
		defer t.Stop()
		aggressive = t.C
	}

	c.log.Info("cleanup scheduler started",
		"interval", c.cfg.Interval,
		"aggressive", c.cfg.Aggressive)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("cleanup scheduler stopped")
			return
		case <-regular.C:
			c.sweep(ctx, "regular", c.now().UTC())
		case <-aggressive:
			c.sweep(ctx, "aggressive", c.now().UTC().Add(-c.cfg.Grace))
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context, tier string, cutoff time.Time) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("cleanup sweep panicked", "tier", tier, "panic", r)
		}
	}()

	result, err := c.store.SweepExpired(ctx, cutoff)
	if err != nil {
		c.log.Error("cleanup sweep failed, will retry on next tick",
			"tier", tier, "error", err)
		return
	}
	if result.Deleted > 0 {
		c.log.Info("cleanup sweep removed expired sessions",
			"tier", tier, "deleted", result.Deleted, "handovers", result.Handovers)
	}
}
