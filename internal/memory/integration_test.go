//go:build integration

package memory_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/hollowtree/drey/internal/memory"
	"github.com/hollowtree/drey/internal/postgres"
)

// These tests need a real PostgreSQL database. Point DREY_TEST_DATABASE_URL
// at a disposable one and run with -tags integration.

func newIntegrationStore(t *testing.T, cfg memory.Config) *memory.Store {
	t.Helper()

	connString := os.Getenv("DREY_TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("DREY_TEST_DATABASE_URL not set")
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := memory.Migrate(context.Background(), connString, log); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	poolCfg := postgres.DefaultConfig()
	poolCfg.ConnString = connString
	manager := postgres.NewManager(poolCfg, log)
	t.Cleanup(manager.Close)

	return memory.New(manager, cfg, log)
}

// uniqueName avoids collisions with earlier runs against the same database.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// ─── Full Session Lifecycle ──────────────────────────────────────────────────

func TestIntegration_FullSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newIntegrationStore(t, memory.DefaultConfig())
	project := uniqueName("lifecycle")

	// 1. Start a session: it must come back pending with an empty summary
	// and an expiry in the future.
	sess, err := s.CreateSession(ctx, "transport=stdio", "tools")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.Binding.Bound() {
		t.Fatalf("new session bound to %v, want pending", sess.Binding)
	}
	if !sess.Summary.Empty() {
		t.Fatalf("new session summary = %+v, want empty", sess.Summary)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Fatalf("new session already expired: %v", sess.ExpiresAt)
	}

	// 2. The gate must refuse the pending session.
	access, err := s.CheckAccess(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if access.Permitted() {
		t.Fatal("gate permitted a pending session")
	}

	// 3. Selecting a project that does not exist leaves the session pending.
	err = s.SelectProject(ctx, sess.ID, uniqueName("ghost"))
	var unknown *memory.UnknownProjectError
	if !errors.As(err, &unknown) {
		t.Fatalf("SelectProject(ghost) = %v, want UnknownProjectError", err)
	}
	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Binding.Bound() {
		t.Fatal("failed selection still bound the session")
	}

	// 4. Create the project; the listing must include it with zero items.
	created, err := s.CreateProject(ctx, project, "integration test project")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if !created {
		t.Fatal("CreateProject reported an existing project as new")
	}
	stats, err := s.ListProjectsWithStats(ctx)
	if err != nil {
		t.Fatalf("ListProjectsWithStats: %v", err)
	}
	var fresh *memory.ProjectStats
	for i := range stats {
		if stats[i].Name == project {
			fresh = &stats[i]
		}
	}
	if fresh == nil {
		t.Fatalf("project %q missing from listing", project)
	}
	if fresh.ItemCount != 0 || fresh.LastUsedAgo != "never" {
		t.Errorf("fresh project stats = %+v, want zero items and never used", fresh)
	}

	// 5. Select the real project; the gate now permits.
	if err := s.SelectProject(ctx, sess.ID, project); err != nil {
		t.Fatalf("SelectProject: %v", err)
	}
	if err := s.SelectProject(ctx, sess.ID, project); err != nil {
		t.Fatalf("SelectProject (repeat): %v", err)
	}
	access, err = s.CheckAccess(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CheckAccess after select: %v", err)
	}
	name, ok := access.Project()
	if !access.Permitted() || !ok || name != project {
		t.Fatalf("gate = %+v, want permitted on %q", access, project)
	}

	// 6. Accumulate summary and store a memory.
	merged, err := s.UpdateSummary(ctx, sess.ID, memory.SessionSummary{
		WorkDone:  []string{"chose postgres full-text search"},
		ToolsUsed: []string{"drey_save"},
	})
	if err != nil {
		t.Fatalf("UpdateSummary: %v", err)
	}
	merged, err = s.UpdateSummary(ctx, sess.ID, memory.SessionSummary{
		NextSteps: []string{"wire the ranking"},
	})
	if err != nil {
		t.Fatalf("UpdateSummary (second patch): %v", err)
	}
	if len(merged.WorkDone) != 1 || len(merged.NextSteps) != 1 {
		t.Fatalf("merged summary = %+v", merged)
	}

	id, err := s.SaveMemory(ctx, memory.SaveMemoryParams{
		Project:   project,
		SessionID: sess.ID,
		Kind:      "decision",
		Title:     "Full-text search",
		Content:   "Use websearch_to_tsquery with a stored tsvector column.",
		Tags:      []string{"postgres", "fts"},
	})
	if err != nil {
		t.Fatalf("SaveMemory: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveMemory returned id 0")
	}

	results, err := s.SearchMemories(ctx, project, "tsvector column", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(results) != 1 || results[0].ID != id {
		t.Fatalf("search results = %+v, want the stored memory", results)
	}
	if tags := results[0].Tags; len(tags) != 2 || tags[0] != "postgres" {
		t.Errorf("stored tags = %v, want [postgres fts]", tags)
	}

	// 7. End the session; its summary must survive as the latest handover.
	handover, err := s.EndSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if handover == nil {
		t.Fatal("EndSession wrote no handover for a bound, summarized session")
	}

	latest, err := s.ReadLatestHandover(ctx, project)
	if err != nil {
		t.Fatalf("ReadLatestHandover: %v", err)
	}
	if latest.SessionID != sess.ID {
		t.Errorf("latest handover session = %q, want %q", latest.SessionID, sess.ID)
	}
	if len(latest.Summary.WorkDone) != 1 {
		t.Errorf("handover summary = %+v", latest.Summary)
	}

	if _, err := s.GetSession(ctx, sess.ID); !errors.Is(err, memory.ErrSessionNotFound) {
		t.Errorf("GetSession after end = %v, want ErrSessionNotFound", err)
	}
}

// ─── Touch ───────────────────────────────────────────────────────────────────

func TestIntegration_TouchUpdatesLastActive(t *testing.T) {
	ctx := context.Background()
	s := newIntegrationStore(t, memory.DefaultConfig())

	sess, err := s.CreateSession(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer func() { _, _ = s.EndSession(ctx, sess.ID) }()

	time.Sleep(50 * time.Millisecond)
	if err := s.Touch(ctx, sess.ID); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !got.LastActive.After(sess.LastActive) {
		t.Errorf("last_active %v not after %v", got.LastActive, sess.LastActive)
	}
	if got.Binding.Bound() {
		t.Error("touch changed the binding")
	}

	if err := s.Touch(ctx, "no-such-session"); !errors.Is(err, memory.ErrSessionNotFound) {
		t.Errorf("Touch(unknown) = %v, want ErrSessionNotFound", err)
	}
}

// ─── Cleanup ─────────────────────────────────────────────────────────────────

func TestIntegration_SweepWritesHandoverBeforeDelete(t *testing.T) {
	ctx := context.Background()
	cfg := memory.DefaultConfig()
	cfg.SessionTTL = -time.Hour // sessions are born expired
	s := newIntegrationStore(t, cfg)
	project := uniqueName("sweep")

	if _, err := s.CreateProject(ctx, project, ""); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	bound, err := s.CreateSession(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.SelectProject(ctx, bound.ID, project); err != nil {
		t.Fatalf("SelectProject: %v", err)
	}
	if _, err := s.UpdateSummary(ctx, bound.ID, memory.SessionSummary{
		WorkDone: []string{"work that must not be lost"},
	}); err != nil {
		t.Fatalf("UpdateSummary: %v", err)
	}

	pending, err := s.CreateSession(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateSession (pending): %v", err)
	}

	result, err := s.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if result.Deleted < 2 {
		t.Errorf("deleted = %d, want at least the two expired sessions", result.Deleted)
	}
	if result.Handovers < 1 {
		t.Errorf("handovers = %d, want at least 1", result.Handovers)
	}

	latest, err := s.ReadLatestHandover(ctx, project)
	if err != nil {
		t.Fatalf("ReadLatestHandover after sweep: %v", err)
	}
	if latest.SessionID != bound.ID {
		t.Errorf("handover session = %q, want %q", latest.SessionID, bound.ID)
	}

	for _, id := range []string{bound.ID, pending.ID} {
		if _, err := s.GetSession(ctx, id); !errors.Is(err, memory.ErrSessionNotFound) {
			t.Errorf("GetSession(%q) = %v, want ErrSessionNotFound", id, err)
		}
	}
}

// ─── Health ──────────────────────────────────────────────────────────────────

func TestIntegration_Health(t *testing.T) {
	ctx := context.Background()
	s := newIntegrationStore(t, memory.DefaultConfig())

	h := s.Health(ctx)
	if h.Status != "ok" {
		t.Errorf("health status = %q (%s), want ok", h.Status, h.Database)
	}
	if h.Sessions.Total < h.Sessions.Active {
		t.Errorf("session counts inconsistent: %+v", h.Sessions)
	}
	if h.CheckedAt.IsZero() {
		t.Error("health timestamp unset")
	}
}
