package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the datacheck-review MCP prompt.
// It asks the AI to summarise how a session's checks developed.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("datacheck-review",
		mcp.WithPromptDescription(
			"Review every check of a session: what changed, what improved and what to do next.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Session to review"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the datacheck-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := ""
	if args := req.Params.Arguments; args != nil {
		id = args["session_id"]
	}
	if id == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	return &mcp.GetPromptResult{
		Description: "Review a datacheck session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please run `datacheck_history` and `datacheck_compare` for session `%s`.\n\n"+
						"Then:\n"+
						"1. Tell me whether the data is ready now\n"+
						"2. List the changes I made and what they did\n"+
						"3. Suggest what to do next, if anything\n\n"+
						"Keep it short and avoid technical terms.",
					id,
				)),
			},
		},
	}, nil
}
