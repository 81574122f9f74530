package tools

import (
	"context"

	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/mark3labs/mcp-go/mcp"
)

// ResetTool handles the datacheck_reset MCP tool.
type ResetTool struct {
	registry *history.Registry
}

// NewResetTool creates a ResetTool.
func NewResetTool(registry *history.Registry) *ResetTool {
	return &ResetTool{registry: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *ResetTool) Definition() mcp.Tool {
	return mcp.NewTool("datacheck_reset",
		mcp.WithDescription(
			"Start a session over: forget every check and undo every change, "+
				"going back to the data as it was opened. A different column can be chosen afterwards.",
		),
		sessionParam(),
	)
}

// Handle processes the datacheck_reset tool call.
func (t *ResetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return withSession(t.registry, req, func(s *history.Session, c *history.Coordinator) (*mcp.CallToolResult, error) {
		c.Reset()
		return mcp.NewToolResultText(
			"# Session Reset\n\nAll checks and changes were cleared. " +
				"Call `datacheck_check` with the column to predict to start again.\n"), nil
	})
}
