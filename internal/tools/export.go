package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// maxInlineRows bounds how much CSV is returned in the tool result when
// no path is given.
const maxInlineRows = 200

// ExportTool handles the datacheck_export MCP tool.
// It writes the cleaned data from the latest check as CSV.
type ExportTool struct {
	registry *history.Registry
	logger   *zap.Logger
}

// NewExportTool creates an ExportTool.
func NewExportTool(registry *history.Registry, logger *zap.Logger) *ExportTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportTool{registry: registry, logger: logger}
}

// Definition returns the MCP tool definition for registration.
func (t *ExportTool) Definition() mcp.Tool {
	return mcp.NewTool("datacheck_export",
		mcp.WithDescription(
			"Save the cleaned data from the latest check as a CSV file. "+
				"Without `path`, the first rows are returned as CSV text instead.",
		),
		sessionParam(),
		mcp.WithString("path",
			mcp.Description("Where to write the CSV file. Parent folders are created."),
		),
	)
}

// Handle processes the datacheck_export tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("path", ""))

	return withSession(t.registry, req, func(s *history.Session, c *history.Coordinator) (*mcp.CallToolResult, error) {
		latest := c.Latest()
		if latest == nil {
			return stateError(history.ErrNotAssessed)
		}
		cleaned := latest.CleanedDataset
		if cleaned == nil {
			return mcp.NewToolResultError("The latest check stopped before cleaning, so there is nothing to save. " + latest.Summary), nil
		}

		var b strings.Builder
		b.WriteString("# Data Exported\n\n")
		if !latest.IsReady {
			b.WriteString("⚠️ The latest check says this data still needs work.\n\n")
		}
		fmt.Fprintf(&b, "**Rows:** %s\n", humanize.Comma(int64(cleaned.Rows())))
		fmt.Fprintf(&b, "**Columns:** %s\n", humanize.Comma(int64(cleaned.Width())))

		if path != "" {
			if err := dataset.WriteCSVFile(path, cleaned); err != nil {
				return saveError(t.logger, path, err), nil
			}
			fmt.Fprintf(&b, "**Saved to:** `%s`\n", path)
			return mcp.NewToolResultText(b.String()), nil
		}

		shown := cleaned
		if cleaned.Rows() > maxInlineRows {
			rows := make([]int, maxInlineRows)
			for i := range rows {
				rows[i] = i
			}
			shown = cleaned.SelectRows(rows)
			fmt.Fprintf(&b, "\nShowing the first %d rows. Pass `path` to save everything.\n", maxInlineRows)
		}
		var csv strings.Builder
		if err := dataset.WriteCSV(&csv, shown); err != nil {
			return nil, fmt.Errorf("writing csv: %w", err)
		}
		fmt.Fprintf(&b, "\n```csv\n%s```\n", csv.String())
		return mcp.NewToolResultText(b.String()), nil
	})
}
