package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/HendryAvila/datacheck/internal/quality"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// FixTool handles the datacheck_fix MCP tool.
// It applies one user-requested change to the session's data.
type FixTool struct {
	registry *history.Registry
	cleaner  *quality.Cleaner
	logger   *zap.Logger
}

// NewFixTool creates a FixTool.
func NewFixTool(registry *history.Registry, cleaner *quality.Cleaner, logger *zap.Logger) *FixTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FixTool{registry: registry, cleaner: cleaner, logger: logger}
}

func fixTypes() []string {
	out := make([]string, len(quality.SupportedFixes))
	for i, f := range quality.SupportedFixes {
		out[i] = string(f)
	}
	return out
}

// Definition returns the MCP tool definition for registration.
func (t *FixTool) Definition() mcp.Tool {
	return mcp.NewTool("datacheck_fix",
		mcp.WithDescription(
			"Apply one change to a column of the opened data. "+
				"remove_column drops the column; fill_missing fills empty cells with a typical value; "+
				"group_rare_categories groups uncommon text entries as \"other\"; "+
				"encode_category turns text into numbers; remove_rows leaves out rows where the column is empty. "+
				"Once checked, the chosen column can only lose rows or have uncommon entries grouped. "+
				"Call datacheck_reassess afterwards to see the effect.",
		),
		sessionParam(),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Kind of change."),
			mcp.Enum(fixTypes()...),
		),
		mcp.WithString("column",
			mcp.Required(),
			mcp.Description("Column to change."),
		),
	)
}

// Handle processes the datacheck_fix tool call.
func (t *FixTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fix := quality.Fix{
		Type:   quality.ActionType(strings.TrimSpace(req.GetString("type", ""))),
		Column: req.GetString("column", ""),
	}
	if fix.Type == "" || fix.Column == "" {
		return mcp.NewToolResultError("Please pass both `type` and `column`."), nil
	}

	return withSession(t.registry, req, func(s *history.Session, c *history.Coordinator) (*mcp.CallToolResult, error) {
		next, action, err := t.cleaner.ApplyFix(c.Current(), fix, c.Target())
		if err != nil {
			return t.fixError(fix, err), nil
		}
		if err := c.RecordFix(next, action); err != nil {
			return nil, fmt.Errorf("recording fix: %w", err)
		}

		var b strings.Builder
		b.WriteString("# Change Applied\n\n")
		fmt.Fprintf(&b, "- %s\n\n", action.Description)
		fmt.Fprintf(&b, "Changes waiting for a new check: %d\n", len(c.PendingFixes()))
		if c.State() == history.StateInitial {
			b.WriteString("\nUse `datacheck_check` to check the data.\n")
		} else {
			b.WriteString("\nUse `datacheck_reassess` to check the data again.\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

func (t *FixTool) fixError(fix quality.Fix, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, quality.ErrUnknownColumn):
		return mcp.NewToolResultError(fmt.Sprintf("There is no column named %q.", fix.Column))
	case errors.Is(err, quality.ErrUnsupportedFix):
		return mcp.NewToolResultError(fmt.Sprintf("Unknown change %q. Use one of: %s.", fix.Type, strings.Join(fixTypes(), ", ")))
	case errors.Is(err, quality.ErrTargetProtected):
		return mcp.NewToolResultError("The column chosen for checking cannot be changed this way. You can still leave out rows where it is empty with remove_rows.")
	case errors.Is(err, quality.ErrNothingToFix):
		return mcp.NewToolResultError(fmt.Sprintf("There is nothing to change in %q with %s.", fix.Column, fix.Type))
	case errors.Is(err, dataset.ErrNoColumns):
		return mcp.NewToolResultError("That would leave the data with no columns.")
	}
	t.logger.Warn("applying fix",
		zap.String("type", string(fix.Type)),
		zap.String("column", fix.Column),
		zap.Error(err))
	return mcp.NewToolResultError("The change could not be applied. The data was left as it was.")
}
