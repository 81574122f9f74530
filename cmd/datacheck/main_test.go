package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/datacheck/internal/dataset"
)

func writeSample(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("visits,plan,renewed\n")
	for i := 0; i < 40; i++ {
		visits := fmt.Sprint(i % 9)
		if i%10 == 0 {
			visits = ""
		}
		renewed := "no"
		if i%2 == 0 {
			renewed = "yes"
		}
		fmt.Fprintf(&b, "%s,%s,%s\n", visits, []string{"basic", "pro"}[i%2], renewed)
	}
	path := filepath.Join(t.TempDir(), "members.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunCheck_WritesCleanedFile(t *testing.T) {
	t.Setenv("DATACHECK_LOG_LEVEL", "error")
	in := writeSample(t)
	var stdout bytes.Buffer

	code, err := runCheck([]string{in, "-target", "renewed"}, &stdout)
	if err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0:\n%s", code, stdout.String())
	}

	out := strings.TrimSuffix(in, ".csv") + ".clean.csv"
	cleaned, err := dataset.ReadCSVFile(out)
	if err != nil {
		t.Fatalf("reading cleaned file: %v", err)
	}
	if cleaned.TotalMissing() != 0 {
		t.Errorf("cleaned file has %d empty cells", cleaned.TotalMissing())
	}
	if !strings.Contains(stdout.String(), "READY") || !strings.Contains(stdout.String(), out) {
		t.Errorf("unexpected report:\n%s", stdout.String())
	}
}

func TestRunCheck_JSONAndFlagsFirst(t *testing.T) {
	t.Setenv("DATACHECK_LOG_LEVEL", "error")
	in := writeSample(t)
	out := filepath.Join(t.TempDir(), "clean.csv")
	var stdout bytes.Buffer

	if _, err := runCheck([]string{"-target", "renewed", "-json", "-out", out, in}, &stdout); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	var res map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if res["target_column"] != "renewed" {
		t.Errorf("target_column = %v", res["target_column"])
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("cleaned file missing: %v", err)
	}
}

func TestRunCheck_NeedsWorkExitCode(t *testing.T) {
	t.Setenv("DATACHECK_LOG_LEVEL", "error")
	in := writeSample(t)
	var stdout bytes.Buffer

	code, err := runCheck([]string{in}, &stdout)
	if err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	if code != exitNeedsWork {
		t.Errorf("exit code = %d, want %d", code, exitNeedsWork)
	}
	if !strings.Contains(stdout.String(), "Please select which column") {
		t.Errorf("report should ask for a column:\n%s", stdout.String())
	}
	if _, err := os.Stat(strings.TrimSuffix(in, ".csv") + ".clean.csv"); !os.IsNotExist(err) {
		t.Error("a blocked check should not write a file")
	}
}

func TestRunCheck_Usage(t *testing.T) {
	var stdout bytes.Buffer
	if _, err := runCheck(nil, &stdout); err == nil {
		t.Error("missing file should be an error")
	}
	if _, err := runCheck([]string{filepath.Join(t.TempDir(), "none.csv"), "-target", "x"}, &stdout); err == nil {
		t.Error("unreadable file should be an error")
	}
}
