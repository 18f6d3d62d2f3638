// Package prompts implements MCP prompt handlers for the memory lifecycle.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the drey-start MCP prompt.
// It guides the AI through opening a session and binding it to a project.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("drey-start",
		mcp.WithPromptDescription(
			"Start a memory session and load project context. "+
				"Walks through session creation, project selection, and "+
				"catching up on what previous sessions left behind.",
		),
		mcp.WithArgument("project",
			mcp.ArgumentDescription("Project to bind the session to (omit to choose from the list)"),
		),
	)
}

// Handle processes the drey-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	project := ""
	if args := req.Params.Arguments; args != nil {
		if name, ok := args["project"]; ok {
			project = name
		}
	}

	selectStep := "2. Show me the available projects and ask which one to use, " +
		"then run `drey_select_project` with my choice (create it with `drey_create_project` if it's new)\n"
	if project != "" {
		selectStep = fmt.Sprintf(
			"2. Run `drey_select_project` with project='%s' (create it with `drey_create_project` if it doesn't exist yet)\n",
			project,
		)
	}

	return &mcp.GetPromptResult{
		Description: "Start a memory session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to pick up work with persistent memory.\n\n" +
						"Please:\n" +
						"1. Run `drey_session_start` and keep the session id for every later call\n" +
						selectStep +
						"3. Run `drey_context` to load the latest handover and recent memories\n" +
						"4. Give me a short recap of where the project stands and what was planned next\n" +
						"5. As we work, save important decisions and discoveries with `drey_save` " +
						"and record progress with `drey_session_summary`",
				),
			},
		},
	}, nil
}
