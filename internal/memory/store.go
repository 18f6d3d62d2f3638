// Package memory implements Drey's durable, project-scoped memory engine.
//
// It stores sessions, projects, memories, and handovers in PostgreSQL and
// performs every query through a connection manager that revalidates
// connections on checkout, so a provider-side suspend between tool calls
// is invisible to callers. Sessions start unbound; most operations require
// a project to be selected first, which CheckAccess enforces.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hollowtree/drey/internal/postgres"
)

// ─── Errors ──────────────────────────────────────────────────────────────────

var (
	// ErrSessionNotFound is returned when a session id does not resolve to
	// a live session row.
	ErrSessionNotFound = errors.New("memory: session not found")

	// ErrNoHandover is returned when a project has no handover yet.
	ErrNoHandover = errors.New("memory: no handover recorded for project")

	// ErrInvalidProjectName is returned for names that fail validation.
	ErrInvalidProjectName = errors.New("memory: invalid project name")
)

// UnknownProjectError is returned by SelectProject when the requested
// project does not exist. The session stays pending; Available carries the
// valid choices so the caller can present them.
type UnknownProjectError struct {
	Name      string
	Available []string
}

func (e *UnknownProjectError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("memory: unknown project %q (no projects exist yet)", e.Name)
	}
	return fmt.Sprintf("memory: unknown project %q (valid projects: %s)",
		e.Name, strings.Join(e.Available, ", "))
}

// ─── Types ───────────────────────────────────────────────────────────────────

// Session is one caller's logical session. Binding starts pending and is
// moved to a project by SelectProject; Summary accumulates via
// UpdateSummary and feeds the handover written when the session ends.
type Session struct {
	ID           string         `json:"session_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActive   time.Time      `json:"last_active"`
	Capabilities string         `json:"capabilities,omitempty"`
	ExpiresAt    time.Time      `json:"expires_at"`
	ClientInfo   string         `json:"client_info,omitempty"`
	Binding      ProjectBinding `json:"project"`
	Summary      SessionSummary `json:"session_summary"`
}

// ProjectStats is one row of the project listing: how much is stored under
// the project and when it was last touched.
type ProjectStats struct {
	Name        string     `json:"project_name"`
	ItemCount   int        `json:"item_count"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	LastUsedAgo string     `json:"last_used_ago"`
}

// Handover is a persisted snapshot of an ending session's summary,
// readable by the next session that binds to the same project.
type Handover struct {
	ID        int64          `json:"id"`
	Project   string         `json:"project"`
	SessionID string         `json:"session_id"`
	Summary   SessionSummary `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

// Memory is a single stored item of project memory.
type Memory struct {
	ID        int64     `json:"id"`
	Project   string    `json:"project"`
	SessionID string    `json:"session_id,omitempty"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult embeds a Memory with its full-text rank.
type SearchResult struct {
	Memory
	Rank float32 `json:"rank"`
}

// SaveMemoryParams holds the input for storing a new memory.
type SaveMemoryParams struct {
	Project   string   `json:"project"`
	SessionID string   `json:"session_id,omitempty"`
	Kind      string   `json:"kind,omitempty"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
}

// SessionCounts breaks the session table down for the health surface.
type SessionCounts struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// Health is the operational snapshot returned by Health.
type Health struct {
	Status    string            `json:"status"`
	Database  string            `json:"database"`
	Sessions  SessionCounts     `json:"sessions"`
	Pool      postgres.PoolStat `json:"pool"`
	CheckedAt time.Time         `json:"checked_at"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration.
type Config struct {
	SessionTTL       time.Duration
	MaxContentLength int
	MaxSearchResults int
	MaxRecentResults int
}

// DefaultConfig returns the default configuration for the memory store.
func DefaultConfig() Config {
	return Config{
		SessionTTL:       24 * time.Hour,
		MaxContentLength: 4000,
		MaxSearchResults: 20,
		MaxRecentResults: 20,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// connSource is the slice of the pool manager the store uses. It is an
// interface to allow test injection.
type connSource interface {
	Acquire(ctx context.Context) (postgres.Conn, error)
	Stat() postgres.PoolStat
}

// Store is the persistent session/project memory engine backed by
// PostgreSQL. All I/O goes through the injected pool manager, which hands
// out only connections that just passed validation.
type Store struct {
	pool connSource
	cfg  Config
	log  *slog.Logger
}

// New creates a Store on top of an existing pool manager.
func New(pool *postgres.Manager, cfg Config, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{pool: pool, cfg: cfg, log: log}
}

// ─── Sessions ────────────────────────────────────────────────────────────────

const sessionColumns = `session_id, created_at, last_active, capabilities,
       expires_at, client_info, project_name, session_summary`

// CreateSession registers a new session. It starts unbound to any project
// with an empty summary and an expiry computed from the configured TTL.
func (s *Store) CreateSession(ctx context.Context, clientInfo, capabilities string) (*Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	row := conn.QueryRow(ctx,
		`INSERT INTO sessions (session_id, capabilities, client_info, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+sessionColumns,
		uuid.New().String(), capabilities, clientInfo,
		time.Now().UTC().Add(s.cfg.SessionTTL),
	)
	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("memory: create session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	row := conn.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = $1`, id)
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get session: %w", err)
	}
	return sess, nil
}

// Touch updates a session's last_active to now. Safe to call repeatedly
// and from concurrent callers.
func (s *Store) Touch(ctx context.Context, id string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx,
		`UPDATE sessions SET last_active = now() WHERE session_id = $1`, id)
	if err != nil {
		return fmt.Errorf("memory: touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SelectProject binds a session to an existing project. Binding to a
// project that does not exist fails with UnknownProjectError and leaves
// the session pending; re-selecting the same project is a no-op.
func (s *Store) SelectProject(ctx context.Context, sessionID, project string) error {
	name, err := normalizeProjectName(project)
	if err != nil {
		return err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("memory: select project: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("memory: select project: lookup: %w", err)
	}
	if !exists {
		available, err := projectNames(ctx, tx)
		if err != nil {
			return fmt.Errorf("memory: select project: list available: %w", err)
		}
		return &UnknownProjectError{Name: name, Available: available}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE sessions SET project_name = $1, last_active = now() WHERE session_id = $2`,
		BoundTo(name).column(), sessionID)
	if err != nil {
		return fmt.Errorf("memory: select project: bind: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("memory: select project: commit: %w", err)
	}
	return nil
}

// UpdateSummary merges patch into the session's summary and returns the
// merged result. Accumulating fields only ever grow; see
// SessionSummary.Merge for the field rules.
func (s *Store) UpdateSummary(ctx context.Context, sessionID string, patch SessionSummary) (SessionSummary, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return SessionSummary{}, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("memory: update summary: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT session_summary FROM sessions WHERE session_id = $1 FOR UPDATE`,
		sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return SessionSummary{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionSummary{}, fmt.Errorf("memory: update summary: read: %w", err)
	}

	current, err := decodeSummary(raw)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("memory: update summary: %w", err)
	}
	merged := current.Merge(patch)

	data, err := json.Marshal(merged)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("memory: update summary: encode: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET session_summary = $1, last_active = now() WHERE session_id = $2`,
		string(data), sessionID); err != nil {
		return SessionSummary{}, fmt.Errorf("memory: update summary: write: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return SessionSummary{}, fmt.Errorf("memory: update summary: commit: %w", err)
	}
	return merged, nil
}

// EndSession deletes a session, first persisting its summary as a handover
// when the session is bound to a project and has recorded anything. The
// written handover is returned, or nil when there was nothing to hand over.
func (s *Store) EndSession(ctx context.Context, sessionID string) (*Handover, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: end session: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		projectCol string
		raw        []byte
	)
	err = tx.QueryRow(ctx,
		`SELECT project_name, session_summary FROM sessions WHERE session_id = $1 FOR UPDATE`,
		sessionID).Scan(&projectCol, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("memory: end session: read: %w", err)
	}

	summary, err := decodeSummary(raw)
	if err != nil {
		return nil, fmt.Errorf("memory: end session: %w", err)
	}

	var handover *Handover
	if project, bound := bindingFromColumn(projectCol).Project(); bound && !summary.Empty() {
		handover, err = upsertHandover(ctx, tx, project, sessionID, summary)
		if err != nil {
			return nil, fmt.Errorf("memory: end session: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM sessions WHERE session_id = $1`, sessionID); err != nil {
		return nil, fmt.Errorf("memory: end session: delete: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("memory: end session: commit: %w", err)
	}
	return handover, nil
}

// ─── Projects ────────────────────────────────────────────────────────────────

// CreateProject registers a project name. Returns false when the project
// already existed; creating an existing project is not an error.
func (s *Store) CreateProject(ctx context.Context, name, description string) (created bool, err error) {
	normalized, err := normalizeProjectName(name)
	if err != nil {
		return false, err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx,
		`INSERT INTO projects (name, description) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`,
		normalized, description)
	if err != nil {
		return false, fmt.Errorf("memory: create project: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListProjectsWithStats returns every registered project with its stored
// item count and last-use time, most recently used first. Projects with no
// items yet are included with a zero count.
func (s *Store) ListProjectsWithStats(ctx context.Context) ([]ProjectStats, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT p.name, count(m.id), max(m.created_at)
		FROM projects p
		LEFT JOIN memories m ON m.project = p.name
		GROUP BY p.name
		ORDER BY max(m.created_at) DESC NULLS LAST, p.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("memory: list projects: %w", err)
	}
	defer rows.Close()

	var stats []ProjectStats
	for rows.Next() {
		var (
			ps       ProjectStats
			count    int64
			lastUsed *time.Time
		)
		if err := rows.Scan(&ps.Name, &count, &lastUsed); err != nil {
			return nil, fmt.Errorf("memory: list projects: scan: %w", err)
		}
		ps.ItemCount = int(count)
		ps.LastUsed = lastUsed
		ps.LastUsedAgo = humanizeAgo(lastUsed, time.Now().UTC())
		stats = append(stats, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: list projects: %w", err)
	}
	return stats, nil
}

// ─── Handovers ───────────────────────────────────────────────────────────────

// WriteHandover persists a summary snapshot for a project. One handover
// exists per (project, ending session); writing again for the same pair
// replaces the snapshot, which makes retried sweeps safe.
func (s *Store) WriteHandover(ctx context.Context, project, sessionID string, summary SessionSummary) (int64, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	h, err := upsertHandover(ctx, conn, project, sessionID, summary)
	if err != nil {
		return 0, fmt.Errorf("memory: write handover: %w", err)
	}
	return h.ID, nil
}

// ReadLatestHandover returns the most recent handover for a project, or
// ErrNoHandover when none has been written yet.
func (s *Store) ReadLatestHandover(ctx context.Context, project string) (*Handover, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var (
		h   Handover
		raw []byte
	)
	err = conn.QueryRow(ctx,
		`SELECT id, project, session_id, summary, created_at
		 FROM handovers
		 WHERE project = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		project).Scan(&h.ID, &h.Project, &h.SessionID, &raw, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoHandover
	}
	if err != nil {
		return nil, fmt.Errorf("memory: read handover: %w", err)
	}
	if h.Summary, err = decodeSummary(raw); err != nil {
		return nil, fmt.Errorf("memory: read handover: %w", err)
	}
	return &h, nil
}

// ─── Memories ────────────────────────────────────────────────────────────────

// SaveMemory stores one memory item under a project.
func (s *Store) SaveMemory(ctx context.Context, p SaveMemoryParams) (int64, error) {
	kind := strings.TrimSpace(strings.ToLower(p.Kind))
	if kind == "" {
		kind = "note"
	}
	content := p.Content
	if s.cfg.MaxContentLength > 0 && len(content) > s.cfg.MaxContentLength {
		content = content[:s.cfg.MaxContentLength] + "... [truncated]"
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{} // a nil slice would write NULL into a NOT NULL column
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var id int64
	err = conn.QueryRow(ctx,
		`INSERT INTO memories (project, session_id, kind, title, content, tags)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		p.Project, p.SessionID, kind, p.Title, content, tags).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("memory: save memory: %w", err)
	}
	return id, nil
}

// SearchMemories runs a full-text search over a project's memories. An
// empty query falls back to the most recent memories with a zero rank.
func (s *Store) SearchMemories(ctx context.Context, project, query string, limit int) ([]SearchResult, error) {
	limit = clampLimit(limit, s.cfg.MaxSearchResults)

	if strings.TrimSpace(query) == "" {
		recent, err := s.RecentMemories(ctx, project, limit)
		if err != nil {
			return nil, err
		}
		results := make([]SearchResult, len(recent))
		for i, m := range recent {
			results[i] = SearchResult{Memory: m}
		}
		return results, nil
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT id, project, session_id, kind, title, content, tags, created_at,
		       ts_rank(search, websearch_to_tsquery('english', $2)) AS rank
		FROM memories
		WHERE project = $1 AND search @@ websearch_to_tsquery('english', $2)
		ORDER BY rank DESC, created_at DESC
		LIMIT $3`,
		project, query, limit)
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var sr SearchResult
		if err := rows.Scan(&sr.ID, &sr.Project, &sr.SessionID, &sr.Kind,
			&sr.Title, &sr.Content, &sr.Tags, &sr.CreatedAt, &sr.Rank); err != nil {
			return nil, fmt.Errorf("memory: search: scan: %w", err)
		}
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	return results, nil
}

// RecentMemories returns a project's newest memories.
func (s *Store) RecentMemories(ctx context.Context, project string, limit int) ([]Memory, error) {
	limit = clampLimit(limit, s.cfg.MaxRecentResults)

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT id, project, session_id, kind, title, content, tags, created_at
		FROM memories
		WHERE project = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		project, limit)
	if err != nil {
		return nil, fmt.Errorf("memory: recent memories: %w", err)
	}
	defer rows.Close()

	var results []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.Project, &m.SessionID, &m.Kind,
			&m.Title, &m.Content, &m.Tags, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("memory: recent memories: scan: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: recent memories: %w", err)
	}
	return results, nil
}

// ─── Health ──────────────────────────────────────────────────────────────────

// Health reports database reachability, session counts, and pool
// statistics. An unreachable database yields a degraded report, not an
// error, so the status surface stays available while the remote is waking.
func (s *Store) Health(ctx context.Context) *Health {
	h := &Health{
		Status:    "ok",
		Database:  "reachable",
		CheckedAt: time.Now().UTC(),
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		s.log.Warn("health check could not reach database", "error", err)
		h.Status = "degraded"
		h.Database = fmt.Sprintf("unreachable: %v", err)
		h.Pool = s.pool.Stat()
		return h
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE expires_at > now()),
		       count(*) FILTER (WHERE expires_at <= now())
		FROM sessions`).Scan(&h.Sessions.Total, &h.Sessions.Active, &h.Sessions.Expired)
	if err != nil {
		h.Status = "degraded"
		h.Database = fmt.Sprintf("query failed: %v", err)
	}
	h.Pool = s.pool.Stat()
	return h
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// rowQuerier covers both a pooled connection and a transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// rowsQuerier covers both a pooled connection and a transaction.
type rowsQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanSession(row pgx.Row) (*Session, error) {
	var (
		sess       Session
		projectCol string
		raw        []byte
	)
	err := row.Scan(&sess.ID, &sess.CreatedAt, &sess.LastActive, &sess.Capabilities,
		&sess.ExpiresAt, &sess.ClientInfo, &projectCol, &raw)
	if err != nil {
		return nil, err
	}
	sess.Binding = bindingFromColumn(projectCol)
	if sess.Summary, err = decodeSummary(raw); err != nil {
		return nil, err
	}
	return &sess, nil
}

func decodeSummary(raw []byte) (SessionSummary, error) {
	var summary SessionSummary
	if len(raw) == 0 {
		return summary, nil
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		return SessionSummary{}, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

func upsertHandover(ctx context.Context, q rowQuerier, project, sessionID string, summary SessionSummary) (*Handover, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encode handover: %w", err)
	}

	h := Handover{Project: project, SessionID: sessionID, Summary: summary}
	err = q.QueryRow(ctx,
		`INSERT INTO handovers (project, session_id, summary)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (project, session_id)
		 DO UPDATE SET summary = EXCLUDED.summary, created_at = now()
		 RETURNING id, created_at`,
		project, sessionID, string(data)).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("write handover: %w", err)
	}
	return &h, nil
}

func projectNames(ctx context.Context, q rowsQuerier) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT name FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

var projectNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// normalizeProjectName lowercases and trims a project name and validates
// it against the allowed shape. The leading-character rule keeps reserved
// values like the pending sentinel from ever naming a real project.
func normalizeProjectName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" || len(normalized) > 64 || !projectNamePattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q (want lowercase letters, digits, '.', '_' or '-', starting with a letter or digit)",
			ErrInvalidProjectName, name)
	}
	return normalized, nil
}

func humanizeAgo(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}
	d := now.Sub(*t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
