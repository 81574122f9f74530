package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// PastSessions finds earlier sessions opened on the same content.
// *store.Store satisfies it.
type PastSessions interface {
	SessionsByContext(contextKey string) ([]history.SessionInfo, error)
}

// OpenTool handles the datacheck_open MCP tool.
// It loads a CSV file or pasted CSV text and opens a session on it.
type OpenTool struct {
	registry *history.Registry
	past     PastSessions
	logger   *zap.Logger
}

// NewOpenTool creates an OpenTool.
func NewOpenTool(registry *history.Registry, logger *zap.Logger) *OpenTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenTool{registry: registry, logger: logger}
}

// SetPastSessions attaches the optional lookup of earlier sessions.
func (t *OpenTool) SetPastSessions(p PastSessions) { t.past = p }

// Definition returns the MCP tool definition for registration.
func (t *OpenTool) Definition() mcp.Tool {
	return mcp.NewTool("datacheck_open",
		mcp.WithDescription(
			"Open a table of data for checking. Pass either `path` to a CSV file "+
				"or the CSV text itself in `csv` (first line is the header). "+
				"Returns a session_id to use with the other datacheck tools, "+
				"plus an overview of the columns. Opening the same data twice "+
				"returns the same session.",
		),
		mcp.WithString("path",
			mcp.Description("Path to a CSV file."),
		),
		mcp.WithString("csv",
			mcp.Description("CSV text with a header line. Used when no path is given."),
		),
		mcp.WithString("name",
			mcp.Description("Friendly name for the data. Defaults to the file name."),
		),
	)
}

// Handle processes the datacheck_open tool call.
func (t *OpenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("path", ""))
	text := req.GetString("csv", "")
	name := strings.TrimSpace(req.GetString("name", ""))

	var (
		ds  *dataset.Dataset
		err error
	)
	switch {
	case path != "":
		ds, err = dataset.ReadCSVFile(path)
		if name == "" {
			name = filepath.Base(path)
		}
	case strings.TrimSpace(text) != "":
		ds, err = dataset.ReadCSV(strings.NewReader(text))
		if name == "" {
			name = "pasted data"
		}
	default:
		return mcp.NewToolResultError("Please pass a CSV file `path` or the CSV text in `csv`."), nil
	}
	if err != nil {
		return readError(t.logger, err), nil
	}

	s, reused, err := t.registry.Open(name, ds)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	info := s.Info()

	var b strings.Builder
	if reused {
		b.WriteString("# Data Already Open\n\n")
	} else {
		b.WriteString("# Data Opened\n\n")
	}
	fmt.Fprintf(&b, "**Session:** `%s`\n", info.ID)
	fmt.Fprintf(&b, "**Name:** %s\n", info.Name)
	fmt.Fprintf(&b, "**Rows:** %s\n", humanize.Comma(int64(info.Rows)))
	fmt.Fprintf(&b, "**Columns:** %s\n\n", humanize.Comma(int64(info.Columns)))
	b.WriteString(columnTable(ds))

	if earlier := t.earlier(info); earlier != "" {
		b.WriteString("\n")
		b.WriteString(earlier)
	}

	b.WriteString("\n## Next step\n\n")
	b.WriteString("Ask which column the user wants to predict, then call `datacheck_check` with that column.\n")
	return mcp.NewToolResultText(b.String()), nil
}

// earlier mentions stored sessions on the same content, if any.
func (t *OpenTool) earlier(info history.SessionInfo) string {
	if t.past == nil {
		return ""
	}
	sessions, err := t.past.SessionsByContext(info.ContextKey)
	if err != nil {
		t.logger.Warn("looking up earlier sessions", zap.String("session", info.ID), zap.Error(err))
		return ""
	}
	var lines []string
	for _, s := range sessions {
		if s.ID == info.ID {
			continue
		}
		lines = append(lines, fmt.Sprintf("- `%s` (%s, %s)", s.ID, s.Name, humanize.Time(s.OpenedAt)))
	}
	if len(lines) == 0 {
		return ""
	}
	return "This same data was opened before. Use `datacheck_history` with one of these sessions to see its checks:\n\n" +
		strings.Join(lines, "\n") + "\n"
}
