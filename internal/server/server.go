// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it resolves configuration, prepares the
// database, and injects the memory store into the tools/prompts/resources
// that depend on it. No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hollowtree/drey/internal/config"
	"github.com/hollowtree/drey/internal/memory"
	"github.com/hollowtree/drey/internal/memtools"
	"github.com/hollowtree/drey/internal/postgres"
	"github.com/hollowtree/drey/internal/prompts"
	"github.com/hollowtree/drey/internal/resources"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// ctx bounds startup work — schema migrations run against a database
// that may still be waking from an idle suspend.
//
// The returned cleanup function stops the background session cleaner and
// closes the connection pool; it must be called on shutdown (typically
// via defer). It is always non-nil and safe to call even if startup failed.
func New(ctx context.Context) (*server.MCPServer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, noop, err
	}

	// The stdio transport owns stdout, so all logging goes to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(log)

	// --- Prepare the database ---

	if err := memory.Migrate(ctx, cfg.DatabaseURL, log); err != nil {
		return nil, noop, fmt.Errorf("preparing database schema: %w", err)
	}

	poolCfg := postgres.DefaultConfig()
	poolCfg.ConnString = cfg.DatabaseURL
	poolCfg.MinConns = cfg.PoolMinConns
	poolCfg.MaxConns = cfg.PoolMaxConns
	poolCfg.StatementTimeout = cfg.StatementTimeout
	poolCfg.ConnectTimeout = cfg.ConnectTimeout
	manager := postgres.NewManager(poolCfg, log)

	storeCfg := memory.DefaultConfig()
	storeCfg.SessionTTL = cfg.SessionTTL
	store := memory.New(manager, storeCfg, log)

	// --- Start the session cleaner ---
	//
	// The cleaner runs off the request path on its own context so shutdown
	// ordering stays explicit: cleanup stops the sweeps first, then closes
	// the pool out from under them.

	cleanerCfg := memory.CleanerConfig{
		Interval:           cfg.CleanupInterval,
		Aggressive:         cfg.CleanupAggressive,
		AggressiveInterval: cfg.CleanupAggressiveInterval,
		Grace:              cfg.CleanupGrace,
	}
	cleanerCtx, stopCleaner := context.WithCancel(context.Background())
	cleaner := memory.NewCleaner(store, cleanerCfg, log)
	go cleaner.Run(cleanerCtx)

	cleanup := func() {
		stopCleaner()
		manager.Close()
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"drey",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, store)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	handoffPrompt := prompts.NewHandoffPrompt()
	s.AddPrompt(handoffPrompt.Definition(), handoffPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)
	s.AddResource(resourceHandler.HealthResource(), resourceHandler.HandleHealth)

	return s, cleanup, nil
}

// noop is the cleanup returned when startup fails before anything that
// needs stopping has been started.
func noop() {}

// registerTools registers all 11 memory MCP tools with the server.
func registerTools(s *server.MCPServer, store *memory.Store) {
	// --- Session lifecycle ---
	sessionStart := memtools.NewSessionStartTool(store)
	s.AddTool(sessionStart.Definition(), sessionStart.Handle)

	sessionEnd := memtools.NewSessionEndTool(store)
	s.AddTool(sessionEnd.Definition(), sessionEnd.Handle)

	sessionSummary := memtools.NewSessionSummaryTool(store)
	s.AddTool(sessionSummary.Definition(), sessionSummary.Handle)

	// --- Projects ---
	selectProject := memtools.NewSelectProjectTool(store)
	s.AddTool(selectProject.Definition(), selectProject.Handle)

	createProject := memtools.NewCreateProjectTool(store)
	s.AddTool(createProject.Definition(), createProject.Handle)

	listProjects := memtools.NewListProjectsTool(store)
	s.AddTool(listProjects.Definition(), listProjects.Handle)

	// --- Project memory ---
	saveTool := memtools.NewSaveTool(store)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	searchTool := memtools.NewSearchTool(store)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	contextTool := memtools.NewContextTool(store)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	readHandover := memtools.NewReadHandoverTool(store)
	s.AddTool(readHandover.Definition(), readHandover.Handle)

	// --- Operations ---
	statusTool := memtools.NewStatusTool(store, Version)
	s.AddTool(statusTool.Definition(), statusTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use Drey effectively.
func serverInstructions() string {
	return `You have access to Drey, a persistent project-memory MCP server.

Drey stores what you learn while working — decisions, fixes, discoveries —
scoped to named projects, and carries context across sessions through
handovers. Memory lives in PostgreSQL and survives between conversations.

## SESSION LIFECYCLE (follow this order)

1. drey_session_start — begins a session and returns a session_id.
   Keep the session_id: every other call needs it.
2. drey_select_project — binds the session to a project. REQUIRED before
   any memory operation. If the project does not exist yet, create it
   with drey_create_project first.
3. drey_context — load the project's latest handover and recent memories.
   Call this right after binding to recover what prior sessions knew.
4. Work. Save observations with drey_save and keep the running summary
   current with drey_session_summary.
5. drey_session_end — closes the session. A recorded summary is written
   as the project's handover for the next session.

## CRITICAL: Project Binding

Every memory tool (drey_save, drey_search, drey_context, drey_read_handover,
drey_session_summary) requires the session to be bound to a project. Calls
made before drey_select_project are refused, and the refusal lists the
projects you can choose from — select one (or create one) and retry.
Never invent project names: use drey_list_projects to see what exists.

## When to Save (call drey_save PROACTIVELY after each of these)

- Architectural decisions or tradeoffs made
- Bug fixes: what was wrong, why, how it was fixed
- New patterns or conventions established
- Configuration changes or environment setup
- Important discoveries, gotchas, or edge cases

### Content format (use this structure for drey_save content)

**What**: [concise description of what was done]
**Why**: [the reasoning, user request, or problem that drove it]
**Where**: [files/paths affected, e.g. src/auth/middleware.ts]
**Learned**: [gotchas, edge cases, or decisions — omit if none]

### Title guidelines

Short and searchable: "JWT auth middleware", "Fixed N+1 in user list",
"Switched from REST to gRPC".

### Kind categories

Use the kind parameter: note, decision, architecture, bugfix, pattern,
config, discovery.

## Session Summaries and Handovers

Call drey_session_summary as work progresses, not only at the end — a
session can expire or be cut off, and whatever the summary holds at that
moment is what survives. The summary accumulates across calls:

- work_done: accomplishments (newline-separated; entries append)
- next_steps: what remains (newline-separated; each call replaces the list)
- tools_used: comma-separated; deduplicated across calls
- context: free-form working state (each call replaces it)

When a bound session with a non-empty summary ends — explicitly via
drey_session_end or by expiring — the summary is written as the project's
handover. The next session reads it with drey_context or
drey_read_handover. This is how work survives between conversations.

## When to Search (call drey_search)

- After drey_context, for specific topics from prior sessions
- Before decisions that might repeat or contradict earlier ones
- When encountering familiar errors or patterns

An empty query returns the most recent memories.

### Response verbosity (detail_level parameter)

drey_search accepts detail_level to control response size:
- summary: titles and metadata only — use for orientation and triage
- standard: truncated content snippets (default)
- full: complete untruncated content

Start with summary to scan what exists, then drill into specifics.

### Navigation hints

When results are capped by limit, responses append a "📊 Showing X of Y"
footer. This tells you whether you are seeing everything or need to raise
the limit or narrow the query.

## Operational Notes

Drey's database is a serverless Postgres that suspends its compute when
idle. The first call after a quiet period can take a few seconds while it
wakes — this is normal and handled automatically. If a call reports that
the database is still waking, wait a moment and retry the same call. Use
drey_status to check database reachability, session counts, and connection
pool health.

Sessions expire after 24 hours by default. An expired session's summary is
still written as a handover before cleanup removes the session. When a
tool reports an unknown or expired session, start a new one with
drey_session_start — the project handover holds what the previous session
recorded.`
}
