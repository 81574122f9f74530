package quality

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/templates"
)

// fakeOracle is a scriptable Oracle that counts every call it receives.
type fakeOracle struct {
	mu        sync.Mutex
	fitCalls  int
	scoreCall int
	fitErr    error
	scoreErr  error
	panicOn   string
	raw       float64
	lo, hi    float64
	fitRows   int
}

func (f *fakeOracle) Fit(_ context.Context, _ TaskType, rows [][]float64, _ []float64) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fitCalls++
	f.fitRows = len(rows)
	if f.panicOn == "fit" {
		panic("boom")
	}
	if f.fitErr != nil {
		return "", f.fitErr
	}
	return Handle(fmt.Sprintf("h-%d", f.fitCalls)), nil
}

func (f *fakeOracle) Score(_ context.Context, _ Handle, _ [][]float64, _ []float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoreCall++
	if f.panicOn == "score" {
		panic("boom")
	}
	if f.scoreErr != nil {
		return 0, f.scoreErr
	}
	return f.raw, nil
}

func (f *fakeOracle) NativeRange() (float64, float64) {
	if f.hi == 0 && f.lo == 0 {
		return 0, 1
	}
	return f.lo, f.hi
}

func (f *fakeOracle) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fitCalls + f.scoreCall
}

var errOracleDown = errors.New("connection refused")

func mustDataset(t *testing.T, cols ...dataset.Column) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(cols...)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

func mustRenderer(t *testing.T) *templates.Renderer {
	t.Helper()
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func newTestChecker(t *testing.T, scoring bool, oracle Oracle) *Checker {
	t.Helper()
	opts := DefaultOptions()
	opts.ScoringEnabled = scoring
	c, err := NewChecker(opts, oracle, nil)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	return c
}

// cells builds n cells with fn.
func cells(n int, fn func(i int) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fn(i)
	}
	return out
}

// twoClass returns a "yes"/"no" target of n rows.
func twoClass(n int) dataset.Column {
	return dataset.NewColumn("outcome", cells(n, func(i int) string {
		if i%2 == 0 {
			return "yes"
		}
		return "no"
	}))
}

// numbers returns a numeric column 0..n-1.
func numbers(name string, n int) dataset.Column {
	return dataset.NewColumn(name, cells(n, func(i int) string { return fmt.Sprint(i) }))
}

func countActions(actions []CleaningAction, typ ActionType) int {
	n := 0
	for _, a := range actions {
		if a.ActionType == typ {
			n++
		}
	}
	return n
}
