// Package memtools provides the MCP tool handlers for Drey's project memory.
//
// Each tool handler follows the same pattern:
//   - A struct with its Store dependency injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// Tools split into a lifecycle surface (session start/end, project selection)
// and a domain surface (save, search, context, handover, summary). Domain
// tools consult the lifecycle gate exactly once per invocation, before
// touching any project data.
package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hollowtree/drey/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// Store is the subset of the memory engine the tools depend on.
// Using an interface keeps the tool package loosely coupled and testable.
type Store interface {
	CreateSession(ctx context.Context, clientInfo, capabilities string) (*memory.Session, error)
	Touch(ctx context.Context, sessionID string) error
	SelectProject(ctx context.Context, sessionID, project string) error
	UpdateSummary(ctx context.Context, sessionID string, patch memory.SessionSummary) (memory.SessionSummary, error)
	EndSession(ctx context.Context, sessionID string) (*memory.Handover, error)
	CheckAccess(ctx context.Context, sessionID string) (*memory.Access, error)

	CreateProject(ctx context.Context, name, description string) (bool, error)
	ListProjectsWithStats(ctx context.Context) ([]memory.ProjectStats, error)
	ReadLatestHandover(ctx context.Context, project string) (*memory.Handover, error)

	SaveMemory(ctx context.Context, p memory.SaveMemoryParams) (int64, error)
	SearchMemories(ctx context.Context, project, query string, limit int) ([]memory.SearchResult, error)
	RecentMemories(ctx context.Context, project string, limit int) ([]memory.Memory, error)

	Health(ctx context.Context) *memory.Health
}

// requireProject runs the lifecycle gate for a domain tool call: it resolves
// the caller's session, refuses with a project menu while the session is
// still pending, and records session activity once the call is permitted.
func requireProject(ctx context.Context, store Store, req mcp.CallToolRequest) (project, sessionID string, refusal *mcp.CallToolResult) {
	sessionID = req.GetString("session_id", "")
	if sessionID == "" {
		return "", "", mcp.NewToolResultError("'session_id' is required — call drey_session_start first")
	}

	access, err := store.CheckAccess(ctx, sessionID)
	if err != nil {
		if errors.Is(err, memory.ErrSessionNotFound) {
			return "", "", mcp.NewToolResultError(fmt.Sprintf(
				"unknown or expired session %q — call drey_session_start to begin a new one", sessionID))
		}
		return "", "", mcp.NewToolResultError(fmt.Sprintf("session lookup failed: %v", err))
	}

	name, ok := access.Project()
	if !ok {
		return "", "", pendingRefusal(access.AvailableProjects)
	}

	// Activity renewal is best-effort; a failed touch must not block the call.
	_ = store.Touch(ctx, sessionID)

	return name, sessionID, nil
}

// pendingRefusal formats the policy signal returned while a session has not
// selected a project. It carries the current project list so the caller can
// present real choices instead of guessing names.
func pendingRefusal(available []memory.ProjectStats) *mcp.CallToolResult {
	var b strings.Builder
	b.WriteString("No project selected for this session. Call drey_select_project before using project memory.\n")

	if len(available) == 0 {
		b.WriteString("\nNo projects exist yet — create one with drey_create_project.")
	} else {
		b.WriteString("\nAvailable projects:\n")
		for _, p := range available {
			fmt.Fprintf(&b, "- %s (%d items, last used %s)\n", p.Name, p.ItemCount, p.LastUsedAgo)
		}
	}

	return mcp.NewToolResultError(b.String())
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// splitLines turns a newline-separated parameter into trimmed list entries.
func splitLines(s string) []string {
	return splitOn(s, "\n")
}

// splitComma turns a comma-separated parameter into trimmed list entries.
func splitComma(s string) []string {
	return splitOn(s, ",")
}

func splitOn(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
