package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// HandoffPrompt handles the drey-handoff MCP prompt.
// It instructs the AI to wrap up the session so the next one can resume.
type HandoffPrompt struct{}

// NewHandoffPrompt creates a HandoffPrompt.
func NewHandoffPrompt() *HandoffPrompt {
	return &HandoffPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *HandoffPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("drey-handoff",
		mcp.WithPromptDescription(
			"Wrap up the current memory session. Records a final summary and "+
				"ends the session so its state becomes the project's handover.",
		),
	)
}

// Handle processes the drey-handoff prompt request.
func (p *HandoffPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Hand off the session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"We're wrapping up this session. Please:\n\n" +
						"1. Review what we accomplished and run `drey_session_summary` with the final " +
						"work_done, next_steps, and any context the next session must know\n" +
						"2. Save any unrecorded decisions or discoveries with `drey_save`\n" +
						"3. Run `drey_session_end` to close the session and write the handover\n" +
						"4. Confirm the handover was written and tell me what the next session will see",
				),
			},
		},
	}, nil
}
