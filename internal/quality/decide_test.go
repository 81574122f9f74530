package quality

import (
	"fmt"
	"testing"

	"github.com/HendryAvila/datacheck/internal/dataset"
)

func score(v float64) *float64 { return &v }

func removals(n int) []CleaningAction {
	out := make([]CleaningAction, n)
	for i := range out {
		out[i] = CleaningAction{ActionType: ActionRemoveColumn}
	}
	return out
}

func TestDecide(t *testing.T) {
	healthy := Shape{OriginalFeatures: 4, CleanedFeatures: 4, CleanedRows: 100}

	tests := []struct {
		name    string
		issues  []Issue
		actions []CleaningAction
		score   *float64
		shape   Shape
		want    Status
	}{
		{"blocking issue", []Issue{{Code: IssueInsufficientRows}}, nil, score(99), healthy, StatusNeedsWork},
		{"score at threshold", nil, nil, score(ScoreThreshold), healthy, StatusReady},
		{"score below threshold", nil, nil, score(49.9), healthy, StatusNeedsWork},
		{"no score, nothing removed", nil, nil, nil, healthy, StatusReady},
		{"no score, half removed", nil, removals(2), nil, Shape{4, 2, 100}, StatusReady},
		{"no score, most removed", nil, removals(3), nil, Shape{4, 1, 100}, StatusNeedsWork},
		{"no features left", nil, removals(4), score(90), Shape{4, 0, 100}, StatusNeedsWork},
		{"too few rows after cleaning", nil, nil, nil, Shape{4, 4, 9}, StatusNeedsWork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ready, status := Decide(tt.issues, tt.actions, tt.score, tt.shape)
			if status != tt.want {
				t.Errorf("status = %s, want %s", status, tt.want)
			}
			if ready != (tt.want == StatusReady) {
				t.Errorf("ready = %v disagrees with status %s", ready, status)
			}
		})
	}
}

func TestShapeOf(t *testing.T) {
	original := mustDataset(t, numbers("a", 12), numbers("b", 12), twoClass(12))
	cleaned := mustDataset(t, numbers("a", 10), twoClass(10))
	s := ShapeOf(original, cleaned, "outcome")
	want := Shape{OriginalFeatures: 2, CleanedFeatures: 1, CleanedRows: 10}
	if s != want {
		t.Errorf("ShapeOf = %+v, want %+v", s, want)
	}
}

// --- Task detection ---

func TestDetectTask(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  TaskType
	}{
		{"text", []string{"yes", "no", "yes"}, TaskClassification},
		{"few whole numbers", []string{"0", "1", "2", "1", "0"}, TaskClassification},
		{"fractions", []string{"0.5", "1", "2"}, TaskRegression},
		{"many values", cells(20, func(i int) string { return fmt.Sprint(i * 3) }), TaskRegression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := dataset.NewColumn("y", tt.cells)
			if got := DetectTask(&col); got != tt.want {
				t.Errorf("DetectTask = %s, want %s", got, tt.want)
			}
		})
	}
}
