// Package tools implements the MCP tool handlers for datacheck.
//
// Each tool is a struct holding its dependencies with a Definition for
// registration and a Handle matching mcp-go's tool handler signature.
// User mistakes come back as tool errors with a plain message; only
// infrastructure faults are returned as Go errors.
//
// Everything a tool writes back is read by people who are not data
// specialists, so the text stays free of modeling vocabulary.
package tools

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/HendryAvila/datacheck/internal/quality"
	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// sessionParam is the argument every per-session tool takes.
func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session ID returned by datacheck_open."),
	)
}

// withSession looks up the session named in the request and runs fn under
// the session lock. A missing or expired session is a tool error.
func withSession(reg *history.Registry, req mcp.CallToolRequest, fn func(s *history.Session, c *history.Coordinator) (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("Please pass the session_id you got from datacheck_open."), nil
	}
	s, ok := reg.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Session %q is not open. It may have been closed to make room; open the file again with datacheck_open.", id)), nil
	}

	var out *mcp.CallToolResult
	err := s.Do(func(c *history.Coordinator) error {
		var err error
		out, err = fn(s, c)
		return err
	})
	return out, err
}

// stateError turns a coordinator refusal into a tool error.
func stateError(err error) (*mcp.CallToolResult, error) {
	var re *history.ReassessError
	switch {
	case errors.As(err, &re):
		return mcp.NewToolResultError(re.UserMessage()), nil
	case errors.Is(err, history.ErrAlreadyAssessed):
		return mcp.NewToolResultError("This data has already been checked. Apply a fix and use datacheck_reassess, or start over with datacheck_reset."), nil
	case errors.Is(err, history.ErrNotAssessed):
		return mcp.NewToolResultError("This data has not been checked yet. Run datacheck_check first."), nil
	case errors.Is(err, history.ErrNothingChanged):
		return mcp.NewToolResultError("Nothing has changed since the last check. Apply a fix first, then check again."), nil
	case errors.Is(err, history.ErrAlreadyPending), errors.Is(err, history.ErrNotPending):
		return mcp.NewToolResultError("A check is already in progress for this session. Try again in a moment."), nil
	case errors.Is(err, history.ErrTooFewEntries):
		return mcp.NewToolResultError("Check the data again after a fix to see a before and after view."), nil
	}
	return nil, err
}

// readError turns a failure to load data into a fixed sentence and logs
// the underlying error.
func readError(logger *zap.Logger, err error) *mcp.CallToolResult {
	logger.Warn("reading data", zap.Error(err))
	var pe *csv.ParseError
	switch {
	case errors.Is(err, os.ErrNotExist):
		return mcp.NewToolResultError("Could not find that file. Check the path and try again.")
	case errors.Is(err, os.ErrPermission):
		return mcp.NewToolResultError("Could not open that file because access was denied.")
	case errors.Is(err, dataset.ErrEmptyFile):
		return mcp.NewToolResultError("The data is empty. The first line should list the column names.")
	case errors.Is(err, dataset.ErrNoColumns):
		return mcp.NewToolResultError("The data has no columns.")
	case errors.Is(err, dataset.ErrDuplicateColumn):
		return mcp.NewToolResultError("Two columns have the same name. Give every column its own name and try again.")
	case errors.As(err, &pe):
		return mcp.NewToolResultError(fmt.Sprintf("Line %d could not be read. Look for a stray or unclosed quote mark.", pe.Line))
	}
	return mcp.NewToolResultError("Could not read the data as a CSV table.")
}

// saveError turns a failure to write a file into a fixed sentence and
// logs the underlying error.
func saveError(logger *zap.Logger, path string, err error) *mcp.CallToolResult {
	logger.Warn("saving data", zap.String("path", path), zap.Error(err))
	switch {
	case errors.Is(err, os.ErrPermission):
		return mcp.NewToolResultError("Could not save the file because access was denied. Try another folder.")
	case errors.Is(err, os.ErrNotExist):
		return mcp.NewToolResultError("Could not save the file because its folder could not be created. Try another path.")
	}
	return mcp.NewToolResultError("Could not save the file. Try another path.")
}

// progressLogger reports pipeline progress to the server log.
func progressLogger(logger *zap.Logger, session string) quality.ProgressFunc {
	return func(phase string, percent int) {
		logger.Debug("progress", zap.String("session", session), zap.String("phase", phase), zap.Int("percent", percent))
	}
}

// --- Formatting ---

func kindLabel(k dataset.Kind) string {
	switch k {
	case dataset.KindNumeric:
		return "numbers"
	case dataset.KindCategorical:
		return "text"
	default:
		return "empty"
	}
}

// columnTable lists columns with their kind and empty cells.
func columnTable(ds *dataset.Dataset) string {
	var b strings.Builder
	b.WriteString("| Column | Holds | Empty cells |\n")
	b.WriteString("|--------|-------|-------------|\n")
	for i := 0; i < ds.Width(); i++ {
		col := ds.ColumnAt(i)
		fmt.Fprintf(&b, "| %s | %s | %s |\n", col.Name, kindLabel(col.Kind), humanize.Comma(int64(col.MissingCount())))
	}
	return b.String()
}

func verdict(res *quality.AssessmentResult) string {
	if res.IsReady {
		return "✅ Ready"
	}
	return "⚠️ Needs work"
}

func scoreText(score *float64) string {
	if score == nil {
		return "not measured"
	}
	return fmt.Sprintf("%s / 100", humanize.FtoaWithDigits(*score, 1))
}

// formatResult renders an assessment for the user.
func formatResult(title string, res *quality.AssessmentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Verdict:** %s\n", verdict(res))
	fmt.Fprintf(&b, "**Column to predict:** %s\n", orDash(res.TargetColumn))
	fmt.Fprintf(&b, "**Quality score:** %s\n", scoreText(res.ValidationScore))
	fmt.Fprintf(&b, "**Rows:** %s → %s\n", humanize.Comma(int64(res.OriginalRows)), humanize.Comma(int64(res.CleanedRows)))
	fmt.Fprintf(&b, "**Columns:** %s → %s\n\n", humanize.Comma(int64(res.OriginalColumns)), humanize.Comma(int64(res.CleanedColumns)))
	b.WriteString(res.Summary)
	b.WriteString("\n")

	if len(res.Warnings) > 0 {
		b.WriteString("\n## Things to know\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	if len(res.CleaningActions) > 0 {
		b.WriteString("\n## What we fixed\n\n")
		for _, a := range res.CleaningActions {
			fmt.Fprintf(&b, "- %s\n", a.Description)
		}
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
