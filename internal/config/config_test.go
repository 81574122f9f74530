package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"DATACHECK_DATA_DIR",
	"DATACHECK_ORACLE_URL",
	"DATACHECK_ORACLE_TOKEN",
	"DATACHECK_SCORING",
	"DATACHECK_CALL_BUDGET",
	"DATACHECK_SAMPLE_CAP",
	"DATACHECK_SCORE_TIMEOUT",
	"DATACHECK_MAX_SESSIONS",
	"DATACHECK_LOG_LEVEL",
}

// clearEnv unsets every DATACHECK_* variable for the duration of the test.
// t.Setenv registers the restore; the unset makes the key truly absent so
// an env file can still supply it.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !strings.HasSuffix(cfg.DataDir, ".datacheck") {
		t.Errorf("DataDir = %s, want ~/.datacheck", cfg.DataDir)
	}
	if cfg.CallBudget != MaxCallBudget {
		t.Errorf("CallBudget = %d, want %d", cfg.CallBudget, MaxCallBudget)
	}
	if cfg.SampleCap != 10000 {
		t.Errorf("SampleCap = %d, want 10000", cfg.SampleCap)
	}
	if cfg.MaxSessions != 32 {
		t.Errorf("MaxSessions = %d, want 32", cfg.MaxSessions)
	}
	if cfg.Scoring {
		t.Error("scoring should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// --- LoadFile ---

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.OracleURL != "" || cfg.LogLevel != "info" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFile_Environment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("DATACHECK_DATA_DIR", dir)
	t.Setenv("DATACHECK_ORACLE_URL", "http://localhost:9000")
	t.Setenv("DATACHECK_ORACLE_TOKEN", "secret")
	t.Setenv("DATACHECK_SCORING", "true")
	t.Setenv("DATACHECK_CALL_BUDGET", "3")
	t.Setenv("DATACHECK_SAMPLE_CAP", "500")
	t.Setenv("DATACHECK_SCORE_TIMEOUT", "15")
	t.Setenv("DATACHECK_MAX_SESSIONS", "4")
	t.Setenv("DATACHECK_LOG_LEVEL", "DEBUG")

	cfg, err := LoadFile(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := Config{
		DataDir:      dir,
		OracleURL:    "http://localhost:9000",
		OracleToken:  "secret",
		Scoring:      true,
		CallBudget:   3,
		SampleCap:    500,
		ScoreTimeout: 15 * time.Second,
		MaxSessions:  4,
		LogLevel:     "debug",
	}
	if *cfg != want {
		t.Errorf("got %+v\nwant %+v", *cfg, want)
	}
}

func TestLoadFile_ClampsCallBudget(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATACHECK_CALL_BUDGET", "50")

	cfg, err := LoadFile(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.CallBudget != MaxCallBudget {
		t.Errorf("CallBudget = %d, want %d", cfg.CallBudget, MaxCallBudget)
	}
}

func TestLoadFile_BadNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATACHECK_SAMPLE_CAP", "lots")
	t.Setenv("DATACHECK_SCORE_TIMEOUT", "soon")
	t.Setenv("DATACHECK_SCORING", "maybe")

	cfg, err := LoadFile(noEnvFile(t))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	def := DefaultConfig()
	if cfg.SampleCap != def.SampleCap || cfg.ScoreTimeout != def.ScoreTimeout || cfg.Scoring {
		t.Errorf("bad values should fall back to defaults: %+v", cfg)
	}
}

func TestLoadFile_ReadsEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	body := "DATACHECK_ORACLE_URL=http://scoring.internal\nDATACHECK_SCORE_TIMEOUT=2m\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.OracleURL != "http://scoring.internal" {
		t.Errorf("OracleURL = %q", cfg.OracleURL)
	}
	if cfg.ScoreTimeout != 2*time.Minute {
		t.Errorf("ScoreTimeout = %v, want 2m", cfg.ScoreTimeout)
	}
}

func TestLoadFile_EnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATACHECK_LOG_LEVEL", "warn")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DATACHECK_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"negative budget", func(c *Config) { c.CallBudget = -1 }},
		{"zero sample cap", func(c *Config) { c.SampleCap = 0 }},
		{"zero timeout", func(c *Config) { c.ScoreTimeout = 0 }},
		{"zero sessions", func(c *Config) { c.MaxSessions = 0 }},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadFile_InvalidLevelRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATACHECK_LOG_LEVEL", "chatty")
	if _, err := LoadFile(noEnvFile(t)); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}
