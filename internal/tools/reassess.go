package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// ReassessTool handles the datacheck_reassess MCP tool.
// It checks the changed data again with the column chosen at the first
// check.
type ReassessTool struct {
	registry *history.Registry
	logger   *zap.Logger
}

// NewReassessTool creates a ReassessTool.
func NewReassessTool(registry *history.Registry, logger *zap.Logger) *ReassessTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReassessTool{registry: registry, logger: logger}
}

// Definition returns the MCP tool definition for registration.
func (t *ReassessTool) Definition() mcp.Tool {
	return mcp.NewTool("datacheck_reassess",
		mcp.WithDescription(
			"Check the data again after one or more datacheck_fix changes. "+
				"Uses the same column as the first check. Refused when nothing changed since the last check. "+
				"If the check cannot finish, earlier results and the data stay as they were.",
		),
		sessionParam(),
	)
}

// Handle processes the datacheck_reassess tool call.
func (t *ReassessTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return withSession(t.registry, req, func(s *history.Session, c *history.Coordinator) (*mcp.CallToolResult, error) {
		if err := c.RequestReassessment(); err != nil {
			return stateError(err)
		}
		fixes := c.PendingFixes()
		res, err := c.Reassess(ctx, progressLogger(t.logger, s.ID()))
		if err != nil {
			return stateError(err)
		}

		var b strings.Builder
		b.WriteString(formatResult(fmt.Sprintf("Data Check #%d", len(c.Entries())), res))
		b.WriteString("\n## Changes since the last check\n\n")
		for _, f := range fixes {
			fmt.Fprintf(&b, "- %s\n", f.Description)
		}
		b.WriteString("\nUse `datacheck_compare` to see this check next to the first one.\n")
		return mcp.NewToolResultText(b.String()), nil
	})
}
