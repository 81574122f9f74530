package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/HendryAvila/datacheck/internal/quality"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// CheckTool handles the datacheck_check MCP tool.
// It runs the first check of a session against the chosen column.
type CheckTool struct {
	registry *history.Registry
	logger   *zap.Logger
}

// NewCheckTool creates a CheckTool.
func NewCheckTool(registry *history.Registry, logger *zap.Logger) *CheckTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckTool{registry: registry, logger: logger}
}

// Definition returns the MCP tool definition for registration.
func (t *CheckTool) Definition() mcp.Tool {
	return mcp.NewTool("datacheck_check",
		mcp.WithDescription(
			"Check whether the opened data is ready to use for predicting one column. "+
				"Common problems are fixed automatically and reported in plain words. "+
				"The chosen column stays fixed for the rest of the session. "+
				"If the column is missing or misspelled, nothing is recorded and you can call this again.",
		),
		sessionParam(),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("The column the user wants to predict."),
		),
	)
}

// Handle processes the datacheck_check tool call.
func (t *CheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target := strings.TrimSpace(req.GetString("target", ""))

	return withSession(t.registry, req, func(s *history.Session, c *history.Coordinator) (*mcp.CallToolResult, error) {
		res, err := c.Assess(ctx, target, progressLogger(t.logger, s.ID()))
		if err != nil {
			return stateError(err)
		}
		if res.HasIssue(quality.IssueMissingTarget) {
			return mcp.NewToolResultError(res.Summary + "\n\nColumns: " + strings.Join(c.Current().Names(), ", ")), nil
		}

		text := formatResult("Data Check", res)
		if res.IsReady {
			text += "\n## Next step\n\nUse `datacheck_export` to save the cleaned data.\n"
		} else {
			text += "\n## Next step\n\nUse `datacheck_fix` to change the data, then `datacheck_reassess` to check again.\n"
		}
		return mcp.NewToolResultText(text), nil
	})
}
