// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources. No business logic
// lives here, only wiring.
package server

import (
	"fmt"

	"github.com/HendryAvila/datacheck/internal/config"
	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/HendryAvila/datacheck/internal/oracle"
	"github.com/HendryAvila/datacheck/internal/prompts"
	"github.com/HendryAvila/datacheck/internal/quality"
	"github.com/HendryAvila/datacheck/internal/resources"
	"github.com/HendryAvila/datacheck/internal/store"
	"github.com/HendryAvila/datacheck/internal/templates"
	"github.com/HendryAvila/datacheck/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewChecker builds the pipeline from configuration. The CLI uses it
// directly; the MCP server shares one checker across sessions.
func NewChecker(cfg *config.Config, scoring bool, logger *zap.Logger) (*quality.Checker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := quality.DefaultOptions()
	opts.ScoringEnabled = scoring
	opts.CallBudget = cfg.CallBudget
	opts.Scorer.SampleCap = cfg.SampleCap
	opts.Scorer.Timeout = cfg.ScoreTimeout

	var o quality.Oracle
	if scoring {
		o = oracle.Select(cfg.OracleURL, cfg.OracleToken, cfg.ScoreTimeout, logger.Named("oracle"))
	}
	return quality.NewChecker(opts, o, logger.Named("quality"))
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup function closes the history store and must be
// called on shutdown (typically via defer). It is always non-nil and safe
// to call even if the store could not be opened.
func New(cfg *config.Config, logger *zap.Logger) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// --- Create shared dependencies ---

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	checker, err := NewChecker(cfg, cfg.Scoring, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("creating checker: %w", err)
	}

	registry, err := history.NewRegistry(cfg.MaxSessions, checker, logger.Named("history"))
	if err != nil {
		return nil, noop, fmt.Errorf("creating session registry: %w", err)
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"datacheck",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	openTool := tools.NewOpenTool(registry, logger.Named("tools"))
	s.AddTool(openTool.Definition(), openTool.Handle)

	checkTool := tools.NewCheckTool(registry, logger.Named("tools"))
	s.AddTool(checkTool.Definition(), checkTool.Handle)

	fixTool := tools.NewFixTool(registry, quality.NewCleaner(renderer), logger.Named("tools"))
	s.AddTool(fixTool.Definition(), fixTool.Handle)

	reassessTool := tools.NewReassessTool(registry, logger.Named("tools"))
	s.AddTool(reassessTool.Definition(), reassessTool.Handle)

	compareTool := tools.NewCompareTool(registry)
	s.AddTool(compareTool.Definition(), compareTool.Handle)

	exportTool := tools.NewExportTool(registry, logger.Named("tools"))
	s.AddTool(exportTool.Definition(), exportTool.Handle)

	resetTool := tools.NewResetTool(registry)
	s.AddTool(resetTool.Definition(), resetTool.Handle)

	historyTool := tools.NewHistoryTool(registry)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	// --- Wire the history store ---
	//
	// Persistence is optional: if the store cannot be opened, sessions
	// still work in memory and history is lost on restart.

	cleanup := noop
	var stats resources.StatsSource
	st, stErr := store.New(store.Config{DataDir: cfg.DataDir})
	if stErr != nil {
		logger.Warn("history store disabled", zap.String("dir", cfg.DataDir), zap.Error(stErr))
	} else {
		cleanup = func() {
			if err := st.Close(); err != nil {
				logger.Warn("history store close", zap.Error(err))
			}
		}
		registry.SetRecorder(store.NewBridge(st, logger.Named("store")))
		openTool.SetPastSessions(st)
		historyTool.SetStore(st)
		stats = st
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(registry, stats)
	s.AddResource(resourceHandler.BlocklistResource(), resourceHandler.HandleBlocklist)
	s.AddResource(resourceHandler.SessionsResource(), resourceHandler.HandleSessions)

	logger.Info("server ready",
		zap.String("version", Version),
		zap.Bool("scoring", cfg.Scoring),
		zap.Bool("remote_scoring", cfg.OracleURL != ""),
		zap.Int("max_sessions", cfg.MaxSessions))
	return s, cleanup, nil
}

// noop is the default cleanup when the store is disabled.
func noop() {}

// serverInstructions tells the AI how to use datacheck.
func serverInstructions() string {
	return `You have access to datacheck, which checks whether a table of data is ready to use for predicting one of its columns.

## WHEN TO USE datacheck

Use it when the user:
- Shares a CSV file and asks whether it is "good enough", "clean" or "ready"
- Wants to predict or estimate one column from the others
- Asks you to tidy up a spreadsheet before using it

## Workflow

1. datacheck_open with the file path (or the CSV text). Keep the session_id.
2. Ask which column the user wants to predict. Do not guess.
3. datacheck_check with that column. Common problems are fixed automatically.
4. If the data needs work, suggest changes and apply the ones the user agrees to with datacheck_fix.
5. datacheck_reassess, then datacheck_compare to show before and after.
6. datacheck_export to save the cleaned data.
7. datacheck_reset starts a session over, and the user may pick a different column.

## How to talk about results

The people using this are usually not data specialists. Repeat the summary and warnings
in your own plain words. Do not introduce technical terms; the resource
datacheck://templates/blocklist lists the words to avoid.

The column chosen at the first check stays fixed for the session. Re-checking is refused
until at least one change has been applied.`
}
