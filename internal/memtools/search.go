package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hollowtree/drey/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles the drey_search MCP tool.
type SearchTool struct {
	store Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store Store) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the MCP tool definition for drey_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_search",
		mcp.WithDescription(
			"Search the session's project memory. Use this to find past decisions, bugs fixed, "+
				"patterns used, or any context recorded in previous sessions. An empty query "+
				"returns the most recent memories.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier (the session must have a project selected)"),
		),
		mcp.WithString("query",
			mcp.Description("Search query — natural language or keywords; empty for most recent"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 20)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("Verbosity: summary, standard (default), or full"),
			mcp.Enum(memory.DetailLevelValues()...),
		),
	)
}

// Handle processes the drey_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, _, refusal := requireProject(ctx, t.store, req)
	if refusal != nil {
		return refusal, nil
	}

	query := req.GetString("query", "")
	limit := intArg(req, "limit", 10)
	detail := memory.ParseDetailLevel(req.GetString("detail_level", ""))

	results, err := t.store.SearchMemories(ctx, project, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No memories found in project %q. Save discoveries with drey_save.", project,
		)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d memories in %q:\n\n", len(results), project)

	for i, r := range results {
		fmt.Fprintf(&b, "[%d] #%d (%s) — %s\n", i+1, r.ID, r.Kind, r.Title)
		if len(r.Tags) > 0 {
			fmt.Fprintf(&b, "    tags: %s\n", strings.Join(r.Tags, ", "))
		}
		if snippet := memory.Snippet(r.Content, detail); snippet != "" {
			fmt.Fprintf(&b, "    %s\n", strings.ReplaceAll(snippet, "\n", "\n    "))
		}
		fmt.Fprintf(&b, "    saved %s\n\n", r.CreatedAt.Format("2006-01-02 15:04"))
	}

	if detail == memory.DetailSummary {
		b.WriteString(memory.SummaryFooter)
	}

	return mcp.NewToolResultText(b.String()), nil
}
