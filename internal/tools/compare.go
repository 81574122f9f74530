package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
)

// CompareTool handles the datacheck_compare MCP tool.
// It shows the first check of a session next to the latest one.
type CompareTool struct {
	registry *history.Registry
}

// NewCompareTool creates a CompareTool.
func NewCompareTool(registry *history.Registry) *CompareTool {
	return &CompareTool{registry: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *CompareTool) Definition() mcp.Tool {
	return mcp.NewTool("datacheck_compare",
		mcp.WithDescription(
			"Show the first check of a session next to the latest one. "+
				"Needs at least two checks.",
		),
		sessionParam(),
	)
}

// Handle processes the datacheck_compare tool call.
func (t *CompareTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return withSession(t.registry, req, func(s *history.Session, c *history.Coordinator) (*mcp.CallToolResult, error) {
		cmp, err := c.Compare()
		if err != nil {
			return stateError(err)
		}

		var b strings.Builder
		b.WriteString("# Before and After\n\n")
		fmt.Fprintf(&b, "**Column to predict:** %s\n\n", cmp.Target)
		b.WriteString("| | First check | Latest check |\n")
		b.WriteString("|---|---|---|\n")
		fmt.Fprintf(&b, "| Check | #%d | #%d |\n", cmp.First.Seq, cmp.Latest.Seq)
		fmt.Fprintf(&b, "| Verdict | %s | %s |\n", readyLabel(cmp.First.IsReady), readyLabel(cmp.Latest.IsReady))
		fmt.Fprintf(&b, "| Quality score | %s | %s |\n", scoreText(cmp.First.Score), scoreText(cmp.Latest.Score))
		fmt.Fprintf(&b, "| Automatic fixes | %d | %d |\n\n", cmp.First.Actions, cmp.Latest.Actions)

		switch {
		case cmp.Delta != nil && *cmp.Delta > 0:
			fmt.Fprintf(&b, "The quality score went up by %s points.\n", humanize.FtoaWithDigits(*cmp.Delta, 1))
		case cmp.Delta != nil && *cmp.Delta < 0:
			fmt.Fprintf(&b, "The quality score went down by %s points.\n", humanize.FtoaWithDigits(-*cmp.Delta, 1))
		case cmp.Delta != nil:
			b.WriteString("The quality score did not change.\n")
		default:
			b.WriteString("A score change is only shown when both checks measured one.\n")
		}
		if cmp.StatusChanged {
			fmt.Fprintf(&b, "The verdict changed from %s to %s.\n", readyLabel(cmp.First.IsReady), readyLabel(cmp.Latest.IsReady))
		}

		if applied := c.AppliedFixes(); len(applied) > 0 {
			b.WriteString("\n## Your changes\n\n")
			for _, a := range applied {
				fmt.Fprintf(&b, "- %s\n", a.Description)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

func readyLabel(ready bool) string {
	if ready {
		return "ready"
	}
	return "needs work"
}
