// Package resources implements MCP resource handlers for the memory system.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (drey://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hollowtree/drey/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// Store is the slice of the memory engine the resource handlers read from.
type Store interface {
	ListProjectsWithStats(ctx context.Context) ([]memory.ProjectStats, error)
	Health(ctx context.Context) *memory.Health
}

// Handler manages Drey's resource endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// ProjectsResource returns the MCP resource definition for the project listing.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		"drey://projects",
		"Drey Projects",
		mcp.WithResourceDescription("All projects with memory counts and last activity"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns the aggregated project listing as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := h.store.ListProjectsWithStats(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling projects: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// HealthResource returns the MCP resource definition for system health.
func (h *Handler) HealthResource() mcp.Resource {
	return mcp.NewResource(
		"drey://health",
		"Drey Health",
		mcp.WithResourceDescription("Database reachability, session counts, and connection pool state"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleHealth returns the current health snapshot as JSON. It never fails
// outright: an unreachable database yields a degraded snapshot instead.
func (h *Handler) HandleHealth(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.store.Health(ctx), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling health: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
