package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/HendryAvila/datacheck/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// StoredHistory reads persisted checks. *store.Store satisfies it.
type StoredHistory interface {
	ListAssessments(sessionID string) ([]store.Assessment, error)
}

// HistoryTool handles the datacheck_history MCP tool.
// It lists every check of a session, including sessions that are no
// longer open when a store is attached.
type HistoryTool struct {
	registry *history.Registry
	stored   StoredHistory
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(registry *history.Registry) *HistoryTool {
	return &HistoryTool{registry: registry}
}

// SetStore attaches the optional persisted history.
func (t *HistoryTool) SetStore(s StoredHistory) { t.stored = s }

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("datacheck_history",
		mcp.WithDescription(
			"List every check recorded for a session, oldest first, "+
				"including sessions opened before the server restarted.",
		),
		sessionParam(),
	)
}

type historyRow struct {
	seq     int
	at      time.Time
	ready   bool
	score   *float64
	actions int
}

// Handle processes the datacheck_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("Please pass a session_id."), nil
	}

	var rows []historyRow
	if t.stored != nil {
		stored, err := t.stored.ListAssessments(id)
		if err != nil {
			return nil, fmt.Errorf("reading stored checks: %w", err)
		}
		for _, a := range stored {
			rows = append(rows, historyRow{a.Seq, a.RecordedAt, a.Result.IsReady, a.Score, len(a.Result.CleaningActions)})
		}
	} else if s, ok := t.registry.Get(id); ok {
		_ = s.Do(func(c *history.Coordinator) error {
			for _, e := range c.Entries() {
				rows = append(rows, historyRow{e.Seq, e.RecordedAt, e.Result.IsReady, e.Result.ValidationScore, len(e.Result.CleaningActions)})
			}
			return nil
		})
	}

	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("# Check History\n\nNo checks recorded for session `%s`.\n", id)), nil
	}

	var b strings.Builder
	b.WriteString("# Check History\n\n")
	b.WriteString("| Check | When | Verdict | Quality score | Automatic fixes |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| #%d | %s | %s | %s | %d |\n",
			r.seq, r.at.Local().Format("2006-01-02 15:04"), readyLabel(r.ready), scoreText(r.score), r.actions)
	}
	return mcp.NewToolResultText(b.String()), nil
}
