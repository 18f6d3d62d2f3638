package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hollowtree/drey/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// SelectProjectTool handles the drey_select_project MCP tool.
type SelectProjectTool struct {
	store Store
}

// NewSelectProjectTool creates a SelectProjectTool.
func NewSelectProjectTool(store Store) *SelectProjectTool {
	return &SelectProjectTool{store: store}
}

// Definition returns the MCP tool definition for drey_select_project.
func (t *SelectProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_select_project",
		mcp.WithDescription(
			"Bind the current session to a project. Required before saving, searching, or "+
				"loading project memory. The project must already exist — list candidates with "+
				"drey_list_projects or create one with drey_create_project.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier"),
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Name of an existing project"),
		),
	)
}

// Handle processes the drey_select_project tool call.
func (t *SelectProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	project := req.GetString("project", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if project == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}

	err := t.store.SelectProject(ctx, sessionID, project)
	if err == nil {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Session bound to project %q. Load its memory with drey_context or drey_read_handover.",
			project,
		)), nil
	}

	var unknown *memory.UnknownProjectError
	switch {
	case errors.As(err, &unknown):
		var b strings.Builder
		fmt.Fprintf(&b, "%v. The session is still unbound.\n", unknown)
		if len(unknown.Available) > 0 {
			b.WriteString("\nExisting projects:\n")
			for _, name := range unknown.Available {
				fmt.Fprintf(&b, "- %s\n", name)
			}
		}
		fmt.Fprintf(&b, "\nCreate it first with drey_create_project if the name is right.")
		return mcp.NewToolResultError(b.String()), nil
	case errors.Is(err, memory.ErrSessionNotFound):
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown or expired session %q — call drey_session_start to begin a new one", sessionID)), nil
	case errors.Is(err, memory.ErrInvalidProjectName):
		return mcp.NewToolResultError(fmt.Sprintf("%v", err)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("failed to select project: %v", err)), nil
	}
}

// ─── CreateProjectTool ──────────────────────────────────────────────────────

// CreateProjectTool handles the drey_create_project MCP tool.
type CreateProjectTool struct {
	store Store
}

// NewCreateProjectTool creates a CreateProjectTool.
func NewCreateProjectTool(store Store) *CreateProjectTool {
	return &CreateProjectTool{store: store}
}

// Definition returns the MCP tool definition for drey_create_project.
func (t *CreateProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_create_project",
		mcp.WithDescription(
			"Register a new project in the memory system. Project names are lowercase and may "+
				"contain letters, digits, dots, dashes, and underscores after the first character. "+
				"Pass session_id to bind the session to the project in the same call.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Project name (e.g. 'drey', 'billing-api')"),
		),
		mcp.WithString("description",
			mcp.Description("One-line description of the project"),
		),
		mcp.WithString("session_id",
			mcp.Description("Optional session to bind to the project once it exists"),
		),
	)
}

// Handle processes the drey_create_project tool call.
func (t *CreateProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	created, err := t.store.CreateProject(ctx, name, req.GetString("description", ""))
	if err != nil {
		if errors.Is(err, memory.ErrInvalidProjectName) {
			return mcp.NewToolResultError(fmt.Sprintf("%v", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to create project: %v", err)), nil
	}

	state := "created"
	if !created {
		state = "already exists"
	}

	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Project %q %s. Bind a session to it with drey_select_project.", name, state,
		)), nil
	}

	if err := t.store.SelectProject(ctx, sessionID, name); err != nil {
		// The project exists at this point; say so, or the caller may
		// re-create instead of re-binding.
		if errors.Is(err, memory.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"project %q %s, but binding failed: unknown or expired session %q — "+
					"call drey_session_start and bind with drey_select_project",
				name, state, sessionID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf(
			"project %q %s, but binding failed: %v", name, state, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Project %q %s and bound to this session. Load its memory with drey_context or start saving with drey_save.",
		name, state,
	)), nil
}

// ─── ListProjectsTool ───────────────────────────────────────────────────────

// ListProjectsTool handles the drey_list_projects MCP tool.
type ListProjectsTool struct {
	store Store
}

// NewListProjectsTool creates a ListProjectsTool.
func NewListProjectsTool(store Store) *ListProjectsTool {
	return &ListProjectsTool{store: store}
}

// Definition returns the MCP tool definition for drey_list_projects.
func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("drey_list_projects",
		mcp.WithDescription(
			"List all projects with their memory counts and last activity, most recently used first. "+
				"Projects without any memories yet are included with zero counts.",
		),
	)
}

// Handle processes the drey_list_projects tool call.
func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.store.ListProjectsWithStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects yet. Create one with drey_create_project."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Projects (%d)\n\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&b, "- **%s** — %d items, last used %s\n", p.Name, p.ItemCount, p.LastUsedAgo)
	}

	return mcp.NewToolResultText(b.String()), nil
}
