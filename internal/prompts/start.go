// Package prompts implements MCP prompt handlers for datacheck.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to run a specific sequence of tools.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the datacheck-start MCP prompt.
// It guides the AI through opening and checking a dataset.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("datacheck-start",
		mcp.WithPromptDescription(
			"Check whether a CSV file is ready to use for predicting one of its columns, "+
				"fix what can be fixed, and save a cleaned copy.",
		),
		mcp.WithArgument("path",
			mcp.ArgumentDescription("Path to the CSV file to check"),
		),
		mcp.WithArgument("target",
			mcp.ArgumentDescription("Column to predict. If omitted, you will be asked."),
		),
	)
}

// Handle processes the datacheck-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	path, target := "", ""
	if args := req.Params.Arguments; args != nil {
		path = args["path"]
		target = args["target"]
	}

	open := "1. Ask me for the CSV file, then run `datacheck_open` with its path\n"
	if path != "" {
		open = fmt.Sprintf("1. Run `datacheck_open` with path='%s'\n", path)
	}
	check := "2. Show me the columns and ask which one I want to predict, then run `datacheck_check` with it\n"
	if target != "" {
		check = fmt.Sprintf("2. Run `datacheck_check` with target='%s'\n", target)
	}

	return &mcp.GetPromptResult{
		Description: "Check a dataset",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to know whether my data is ready to use.\n\n" +
						"Please:\n" +
						open +
						check +
						"3. Explain the result in plain words, without technical terms\n" +
						"4. If it needs work, suggest changes, apply the ones I agree to with `datacheck_fix`, " +
						"then run `datacheck_reassess` and `datacheck_compare`\n" +
						"5. When I am happy, save the cleaned data with `datacheck_export`",
				),
			},
		},
	}, nil
}
