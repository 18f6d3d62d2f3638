package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hollowtree/drey/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// ContextTool handles the drey_context MCP tool.
type ContextTool struct {
	store Store
}

// NewContextTool creates a ContextTool.
func NewContextTool(store Store) *ContextTool {
	return &ContextTool{store: store}
}

// Definition returns the MCP tool definition for drey_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_context",
		mcp.WithDescription(
			"Load the session's project context: the latest handover from a previous session "+
				"plus the most recent memories. Call this right after selecting a project to "+
				"understand what was done before.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier (the session must have a project selected)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of recent memories to include (default: 10, max: 20)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("Verbosity: summary, standard (default), or full"),
			mcp.Enum(memory.DetailLevelValues()...),
		),
	)
}

// Handle processes the drey_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, _, refusal := requireProject(ctx, t.store, req)
	if refusal != nil {
		return refusal, nil
	}

	limit := intArg(req, "limit", 10)
	detail := memory.ParseDetailLevel(req.GetString("detail_level", ""))

	var b strings.Builder
	fmt.Fprintf(&b, "# Project context: %s\n", project)

	handover, err := t.store.ReadLatestHandover(ctx, project)
	switch {
	case errors.Is(err, memory.ErrNoHandover):
		b.WriteString("\nNo handover from a previous session.\n")
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to read handover: %v", err)), nil
	default:
		fmt.Fprintf(&b, "\n## Latest handover (session %s, %s)\n\n",
			shortID(handover.SessionID), handover.CreatedAt.Format("2006-01-02 15:04"))
		b.WriteString(handover.Summary.Format())
		b.WriteString("\n")
	}

	recent, err := t.store.RecentMemories(ctx, project, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load recent memories: %v", err)), nil
	}

	if len(recent) == 0 {
		b.WriteString("\nNo memories recorded yet. Save discoveries with drey_save.\n")
	} else {
		b.WriteString("\n## Recent memories\n\n")
		for i, m := range recent {
			fmt.Fprintf(&b, "[%d] #%d (%s) — %s\n", i+1, m.ID, m.Kind, m.Title)
			if snippet := memory.Snippet(m.Content, detail); snippet != "" {
				fmt.Fprintf(&b, "    %s\n", strings.ReplaceAll(snippet, "\n", "\n    "))
			}
		}
		b.WriteString(projectNavigation(ctx, t.store, project, len(recent)))
	}

	if detail == memory.DetailSummary {
		b.WriteString(memory.SummaryFooter)
	}
	b.WriteString(memory.TokenFooter(memory.EstimateTokens(b.String())))

	return mcp.NewToolResultText(b.String()), nil
}

// projectNavigation reports how much of the project's memory the response
// covers, using the aggregated stats for the true total.
func projectNavigation(ctx context.Context, store Store, project string, showing int) string {
	stats, err := store.ListProjectsWithStats(ctx)
	if err != nil {
		return ""
	}
	for _, p := range stats {
		if p.Name == project {
			return memory.NavigationHint(showing, p.ItemCount, "Use drey_search to find older memories.")
		}
	}
	return ""
}

// shortID abbreviates a session id for display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// ─── ReadHandoverTool ───────────────────────────────────────────────────────

// ReadHandoverTool handles the drey_read_handover MCP tool.
type ReadHandoverTool struct {
	store Store
}

// NewReadHandoverTool creates a ReadHandoverTool.
func NewReadHandoverTool(store Store) *ReadHandoverTool {
	return &ReadHandoverTool{store: store}
}

// Definition returns the MCP tool definition for drey_read_handover.
func (t *ReadHandoverTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_read_handover",
		mcp.WithDescription(
			"Read the latest handover for the session's project — the summary a previous "+
				"session left behind when it ended. Use it to pick up where that session stopped.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier (the session must have a project selected)"),
		),
	)
}

// Handle processes the drey_read_handover tool call.
func (t *ReadHandoverTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, _, refusal := requireProject(ctx, t.store, req)
	if refusal != nil {
		return refusal, nil
	}

	handover, err := t.store.ReadLatestHandover(ctx, project)
	if err != nil {
		if errors.Is(err, memory.ErrNoHandover) {
			return mcp.NewToolResultText(fmt.Sprintf(
				"No handover recorded for project %q yet. One is written automatically when a "+
					"summarized session ends.", project,
			)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read handover: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Handover for %q\n", project)
	fmt.Fprintf(&b, "From session %s at %s\n\n", shortID(handover.SessionID), handover.CreatedAt.Format(time.RFC3339))
	b.WriteString(handover.Summary.Format())

	return mcp.NewToolResultText(b.String()), nil
}
