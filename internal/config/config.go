// Package config loads datacheck settings from the environment.
//
// Settings come from DATACHECK_* variables. An optional .env file in the
// working directory is read first; variables already set in the process
// environment win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxCallBudget is the hard ceiling on scoring-service calls per run.
const MaxCallBudget = 5

// Config holds every runtime setting.
type Config struct {
	// Storage
	DataDir string

	// Scoring service. An empty OracleURL selects the in-process baseline.
	OracleURL    string
	OracleToken  string
	Scoring      bool
	CallBudget   int
	SampleCap    int
	ScoreTimeout time.Duration

	// Sessions held open by the MCP server.
	MaxSessions int

	// Logging
	LogLevel string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:      filepath.Join(home, ".datacheck"),
		CallBudget:   MaxCallBudget,
		SampleCap:    10000,
		ScoreTimeout: 20 * time.Second,
		MaxSessions:  32,
		LogLevel:     "info",
	}
}

// Load reads the optional .env file and the environment on top of
// DefaultConfig.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is not
// an error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	def := DefaultConfig()
	cfg := &Config{
		DataDir:      getEnv("DATACHECK_DATA_DIR", def.DataDir),
		OracleURL:    getEnv("DATACHECK_ORACLE_URL", ""),
		OracleToken:  getEnv("DATACHECK_ORACLE_TOKEN", ""),
		Scoring:      getEnvAsBool("DATACHECK_SCORING", false),
		CallBudget:   getEnvAsInt("DATACHECK_CALL_BUDGET", def.CallBudget),
		SampleCap:    getEnvAsInt("DATACHECK_SAMPLE_CAP", def.SampleCap),
		ScoreTimeout: getEnvAsDuration("DATACHECK_SCORE_TIMEOUT", def.ScoreTimeout),
		MaxSessions:  getEnvAsInt("DATACHECK_MAX_SESSIONS", def.MaxSessions),
		LogLevel:     strings.ToLower(getEnv("DATACHECK_LOG_LEVEL", def.LogLevel)),
	}
	if cfg.CallBudget > MaxCallBudget {
		cfg.CallBudget = MaxCallBudget
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory is required")
	}
	if c.CallBudget < 0 {
		return errors.New("call budget cannot be negative")
	}
	if c.SampleCap <= 0 {
		return errors.New("sample cap must be positive")
	}
	if c.ScoreTimeout <= 0 {
		return errors.New("score timeout must be positive")
	}
	if c.MaxSessions <= 0 {
		return errors.New("max sessions must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
