package memtools

import (
	"context"
	"fmt"

	"github.com/hollowtree/drey/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// SaveTool handles the drey_save MCP tool.
type SaveTool struct {
	store Store
}

// NewSaveTool creates a SaveTool with the given memory store.
func NewSaveTool(store Store) *SaveTool {
	return &SaveTool{store: store}
}

// Definition returns the MCP tool definition for drey_save.
func (t *SaveTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_save",
		mcp.WithDescription(
			"Save an important memory to the session's project. Call this PROACTIVELY after "+
				"completing significant work — don't wait to be asked. Save architectural decisions, "+
				"bug fixes, new patterns, config changes, discoveries, gotchas.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier (the session must have a project selected)"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short, searchable title (e.g. 'JWT auth middleware', 'Fixed N+1 query')"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Structured content using **What**, **Why**, **Where**, **Learned** format"),
		),
		mcp.WithString("kind",
			mcp.Description("Category: decision, architecture, bugfix, pattern, config, discovery, learning (default: note)"),
		),
		mcp.WithString("tags",
			mcp.Description("Optional comma-separated tags (e.g. 'auth, jwt, middleware')"),
		),
	)
}

// Handle processes the drey_save tool call.
func (t *SaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, sessionID, refusal := requireProject(ctx, t.store, req)
	if refusal != nil {
		return refusal, nil
	}

	title := req.GetString("title", "")
	content := req.GetString("content", "")

	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	kind := req.GetString("kind", "note")
	tags := splitComma(req.GetString("tags", ""))

	id, err := t.store.SaveMemory(ctx, memory.SaveMemoryParams{
		Project:   project,
		SessionID: sessionID,
		Kind:      kind,
		Title:     title,
		Content:   content,
		Tags:      tags,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save memory: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Memory saved to %q: %q (%s)\nID: %d", project, title, kind, id,
	)), nil
}
