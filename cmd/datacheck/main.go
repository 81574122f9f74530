// datacheck: data readiness checks for people who are not data specialists.
//
// Usage:
//
//	datacheck serve                          # Start MCP server (stdio transport)
//	datacheck check data.csv -target churned # One-shot check, writes the cleaned CSV
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/HendryAvila/datacheck/internal/config"
	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/logging"
	"github.com/HendryAvila/datacheck/internal/quality"
	dcserver "github.com/HendryAvila/datacheck/internal/server"
	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// exitNeedsWork is returned by check when the data is not ready, so
// scripts can gate on the verdict.
const exitNeedsWork = 3

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "check":
		code, err := runCheck(os.Args[2:], os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(code)
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("datacheck v%s\n", dcserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func run() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s, cleanup, err := dcserver.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return server.ServeStdio(s)
}

// runCheck runs the pipeline once over a CSV file. It returns the exit
// code: 0 when ready, exitNeedsWork otherwise.
func runCheck(args []string, stdout io.Writer) (int, error) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	target := fs.String("target", "", "column to predict (required)")
	score := fs.Bool("score", false, "run the quick quality check against the scoring service")
	out := fs.String("out", "", "where to write the cleaned CSV (default: <input>.clean.csv)")
	asJSON := fs.Bool("json", false, "print the result as JSON")

	// Accept the file before or after the flags.
	var input string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		input, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return 1, err
	}
	if input == "" && fs.NArg() > 0 {
		input = fs.Arg(0)
	}
	if input == "" {
		return 1, errors.New("usage: datacheck check <file.csv> -target <column>")
	}

	cfg, logger, err := setup()
	if err != nil {
		return 1, err
	}
	defer func() { _ = logger.Sync() }()

	ds, err := dataset.ReadCSVFile(input)
	if err != nil {
		return 1, err
	}

	checker, err := dcserver.NewChecker(cfg, *score || cfg.Scoring, logger)
	if err != nil {
		return 1, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := checker.CheckAndExport(ctx, ds, *target, func(phase string, percent int) {
		logger.Debug("progress", zap.String("phase", phase), zap.Int("percent", percent))
	})

	written := ""
	if res.CleanedDataset != nil {
		written = *out
		if written == "" {
			written = strings.TrimSuffix(input, filepath.Ext(input)) + ".clean.csv"
		}
		if err := dataset.WriteCSVFile(written, res.CleanedDataset); err != nil {
			return 1, fmt.Errorf("writing cleaned data: %w", err)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return 1, err
		}
	} else {
		printReport(stdout, res, written)
	}

	if !res.IsReady {
		return exitNeedsWork, nil
	}
	return 0, nil
}

func printReport(w io.Writer, res *quality.AssessmentResult, written string) {
	verdict := "READY"
	if !res.IsReady {
		verdict = "NEEDS WORK"
	}
	fmt.Fprintf(w, "%s\n\n%s\n", verdict, res.Summary)
	if res.ValidationScore != nil {
		fmt.Fprintf(w, "\nQuality score: %s / 100\n", humanize.FtoaWithDigits(*res.ValidationScore, 1))
	}
	fmt.Fprintf(w, "Rows: %s -> %s, columns: %s -> %s\n",
		humanize.Comma(int64(res.OriginalRows)), humanize.Comma(int64(res.CleanedRows)),
		humanize.Comma(int64(res.OriginalColumns)), humanize.Comma(int64(res.CleanedColumns)))

	if len(res.Warnings) > 0 {
		fmt.Fprintln(w, "\nThings to know:")
		for _, s := range res.Warnings {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	if len(res.CleaningActions) > 0 {
		fmt.Fprintln(w, "\nWhat we fixed:")
		for _, a := range res.CleaningActions {
			fmt.Fprintf(w, "  - %s\n", a.Description)
		}
	}
	if written != "" {
		fmt.Fprintf(w, "\nCleaned data saved to %s\n", written)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `datacheck v%s - is your data ready to use?

Usage:
  datacheck serve                       Start the MCP server (stdio transport)
  datacheck check <file.csv> [flags]    Check a file once and save a cleaned copy
  datacheck version                     Print the version

Check flags:
  -target <column>   column to predict (required)
  -score             also run the quick quality check
  -out <path>        where to write the cleaned CSV
  -json              print the full result as JSON

check exits with 0 when the data is ready and %d when it needs work.

Configuration (environment or .env):
  DATACHECK_DATA_DIR        history database folder (default ~/.datacheck)
  DATACHECK_ORACLE_URL      scoring service; empty uses the built-in one
  DATACHECK_ORACLE_TOKEN    bearer token for the scoring service
  DATACHECK_SCORING         run the quick quality check in serve mode
  DATACHECK_CALL_BUDGET     scoring calls per check (at most 5)
  DATACHECK_SAMPLE_CAP      rows sent for scoring (default 10000)
  DATACHECK_SCORE_TIMEOUT   time limit for scoring (default 20s)
  DATACHECK_MAX_SESSIONS    sessions kept open (default 32)
  DATACHECK_LOG_LEVEL       debug, info, warn or error

MCP config:

  {
    "mcpServers": {
      "datacheck": {
        "command": "datacheck",
        "args": ["serve"]
      }
    }
  }
`, dcserver.Version, exitNeedsWork)
}
