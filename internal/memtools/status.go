package memtools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the drey_status MCP tool.
type StatusTool struct {
	store   Store
	version string
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(store Store, version string) *StatusTool {
	return &StatusTool{store: store, version: version}
}

// Definition returns the MCP tool definition for drey_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_status",
		mcp.WithDescription(
			"Show memory system health — database reachability, session counts, and "+
				"connection pool state. Works even while the database is waking from suspend.",
		),
	)
}

// Handle processes the drey_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h := t.store.Health(ctx)

	var b strings.Builder
	b.WriteString("## Drey status\n\n")
	fmt.Fprintf(&b, "- **Server**: drey v%s\n", t.version)
	fmt.Fprintf(&b, "- **Database**: %s (%s)\n", h.Status, h.Database)
	fmt.Fprintf(&b, "- **Sessions**: %d active, %d expired awaiting cleanup (%d total)\n",
		h.Sessions.Active, h.Sessions.Expired, h.Sessions.Total)
	fmt.Fprintf(&b, "- **Pool**: %d open connections (%d idle, %d in use)\n",
		h.Pool.TotalConns, h.Pool.IdleConns, h.Pool.AcquiredConns)
	fmt.Fprintf(&b, "- **Recovered**: %d stale connections discarded, %d pool rebuilds\n",
		h.Pool.StaleDiscarded, h.Pool.Rebuilds)
	fmt.Fprintf(&b, "- Checked at %s\n", h.CheckedAt.Format(time.RFC3339))

	return mcp.NewToolResultText(b.String()), nil
}
