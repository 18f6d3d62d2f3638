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

// SessionStartTool handles the drey_session_start MCP tool.
type SessionStartTool struct {
	store Store
}

// NewSessionStartTool creates a SessionStartTool.
func NewSessionStartTool(store Store) *SessionStartTool {
	return &SessionStartTool{store: store}
}

// Definition returns the MCP tool definition for drey_session_start.
func (t *SessionStartTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_session_start",
		mcp.WithDescription(
			"Begin a new memory session. Call this once at the start of a conversation. "+
				"The session starts unbound: select a project with drey_select_project before "+
				"saving or searching memories.",
		),
		mcp.WithString("client_info",
			mcp.Description("Free-form client metadata, e.g. transport kind or client name"),
		),
		mcp.WithString("capabilities",
			mcp.Description("Comma-separated capabilities the client wants recorded"),
		),
	)
}

// Handle processes the drey_session_start tool call.
func (t *SessionStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientInfo := req.GetString("client_info", "")
	capabilities := req.GetString("capabilities", "")

	sess, err := t.store.CreateSession(ctx, clientInfo, capabilities)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start session: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session started.\nID: %s\nExpires: %s (in %s)\n",
		sess.ID,
		sess.ExpiresAt.Format(time.RFC3339),
		time.Until(sess.ExpiresAt).Round(time.Minute),
	)
	b.WriteString("\nNo project selected yet. Bind one with drey_select_project")

	projects, err := t.store.ListProjectsWithStats(ctx)
	if err != nil || len(projects) == 0 {
		b.WriteString(" or create one with drey_create_project.")
		return mcp.NewToolResultText(b.String()), nil
	}

	b.WriteString(".\n\nAvailable projects:\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s (%d items, last used %s)\n", p.Name, p.ItemCount, p.LastUsedAgo)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// ─── SessionEndTool ─────────────────────────────────────────────────────────

// SessionEndTool handles the drey_session_end MCP tool.
type SessionEndTool struct {
	store Store
}

// NewSessionEndTool creates a SessionEndTool.
func NewSessionEndTool(store Store) *SessionEndTool {
	return &SessionEndTool{store: store}
}

// Definition returns the MCP tool definition for drey_session_end.
func (t *SessionEndTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_session_end",
		mcp.WithDescription(
			"End a memory session. If the session is bound to a project and has an accumulated "+
				"summary, it is preserved as that project's latest handover for the next session. "+
				"A final summary patch can be merged in the same call.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier to close"),
		),
		mcp.WithString("work_done",
			mcp.Description("Final accomplishments to append before ending, one per line"),
		),
		mcp.WithString("next_steps",
			mcp.Description("Final follow-up list, one per line (replaces the previous list)"),
		),
		mcp.WithString("context",
			mcp.Description("Final context for the next session (replaces the previous value)"),
		),
	)
}

// Handle processes the drey_session_end tool call.
func (t *SessionEndTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	patch := memory.SessionSummary{
		WorkDone:  splitLines(req.GetString("work_done", "")),
		NextSteps: splitLines(req.GetString("next_steps", "")),
		Context:   strings.TrimSpace(req.GetString("context", "")),
	}
	if !patch.Empty() {
		if _, err := t.store.UpdateSummary(ctx, sessionID, patch); err != nil {
			if errors.Is(err, memory.ErrSessionNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("unknown or expired session %q", sessionID)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed to record final summary: %v", err)), nil
		}
	}

	handover, err := t.store.EndSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, memory.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown or expired session %q", sessionID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to end session: %v", err)), nil
	}

	if handover == nil {
		return mcp.NewToolResultText(
			"Session ended. No handover was written — the session had no project selected or an empty summary.",
		), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Session ended. Handover written for project %q — the next session can load it with drey_read_handover.",
		handover.Project,
	)), nil
}

// ─── SessionSummaryTool ─────────────────────────────────────────────────────

// SessionSummaryTool handles the drey_session_summary MCP tool.
type SessionSummaryTool struct {
	store Store
}

// NewSessionSummaryTool creates a SessionSummaryTool.
func NewSessionSummaryTool(store Store) *SessionSummaryTool {
	return &SessionSummaryTool{store: store}
}

// Definition returns the MCP tool definition for drey_session_summary.
func (t *SessionSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_session_summary",
		mcp.WithDescription(
			"Record what this session accomplished. Call it incrementally as work completes — "+
				"work done and tools used accumulate across calls, next steps and context replace "+
				"their previous values. The final summary becomes the handover when the session ends.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier"),
		),
		mcp.WithString("work_done",
			mcp.Description("Accomplishments to append, one per line"),
		),
		mcp.WithString("next_steps",
			mcp.Description("Planned follow-ups, one per line (replaces the previous list)"),
		),
		mcp.WithString("tools_used",
			mcp.Description("Comma-separated tool names to record"),
		),
		mcp.WithString("context",
			mcp.Description("Important context for the next session (replaces the previous value)"),
		),
	)
}

// Handle processes the drey_session_summary tool call.
func (t *SessionSummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, sessionID, refusal := requireProject(ctx, t.store, req)
	if refusal != nil {
		return refusal, nil
	}

	patch := memory.SessionSummary{
		WorkDone:  splitLines(req.GetString("work_done", "")),
		NextSteps: splitLines(req.GetString("next_steps", "")),
		ToolsUsed: splitComma(req.GetString("tools_used", "")),
		Context:   strings.TrimSpace(req.GetString("context", "")),
	}
	if patch.Empty() {
		return mcp.NewToolResultError(
			"provide at least one of 'work_done', 'next_steps', 'tools_used', or 'context'",
		), nil
	}

	merged, err := t.store.UpdateSummary(ctx, sessionID, patch)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update summary: %v", err)), nil
	}

	return mcp.NewToolResultText("Session summary updated.\n\n" + merged.Format()), nil
}
