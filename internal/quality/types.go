// Package quality implements the check-clean-score-decide pipeline.
//
// Data flows strictly forward: Validate → Clean → Scorer.Score → Decide →
// Assemble. Checker.CheckAndExport runs the whole sequence once and
// returns an AssessmentResult; it never returns an error for bad input.
// Blocking input problems become a needs_work result, and scoring
// service failures degrade to the heuristic decision.
package quality

import (
	"github.com/HendryAvila/datacheck/internal/dataset"
)

// --- Status enum ---

// Status is the binary readiness verdict.
type Status string

const (
	StatusReady     Status = "ready"
	StatusNeedsWork Status = "needs_work"
)

// --- Action type enum ---

// ActionType names one kind of cleaning repair.
type ActionType string

const (
	ActionFillMissing         ActionType = "fill_missing"
	ActionEncodeCategory      ActionType = "encode_category"
	ActionRemoveColumn        ActionType = "remove_column"
	ActionGroupRareCategories ActionType = "group_rare_categories"
	ActionRemoveRows          ActionType = "remove_rows"
	ActionConvertType         ActionType = "convert_type"
)

// --- Task type enum ---

// TaskType is what the scoring service is asked to do with the target.
type TaskType string

const (
	TaskClassification TaskType = "classification"
	TaskRegression     TaskType = "regression"
)

// CleaningAction is one logged repair. Actions are kept in application
// order and never modified after creation.
type CleaningAction struct {
	ActionType   ActionType `json:"action_type"`
	Column       string     `json:"column"`
	Description  string     `json:"description"`
	RowsAffected int        `json:"rows_affected"`
}

// AssessmentResult is produced exactly once per pipeline run.
type AssessmentResult struct {
	IsReady           bool               `json:"is_ready"`
	Status            Status             `json:"status"`
	Summary           string             `json:"summary"`
	Warnings          []string           `json:"warnings"`
	CleaningActions   []CleaningAction   `json:"cleaning_actions"`
	CleanedDataset    *dataset.Dataset   `json:"-"`
	ValidationScore   *float64           `json:"validation_score,omitempty"`
	ElapsedSeconds    float64            `json:"elapsed_seconds"`
	ExternalCallsUsed int                `json:"external_calls_used"`
	TargetColumn      string             `json:"target_column"`
	TaskType          TaskType           `json:"task_type,omitempty"`
	BlockingIssues    []IssueCode        `json:"blocking_issues,omitempty"`
	OriginalRows      int                `json:"original_rows"`
	OriginalColumns   int                `json:"original_columns"`
	CleanedRows       int                `json:"cleaned_rows"`
	CleanedColumns    int                `json:"cleaned_columns"`
	Fingerprint       string             `json:"fingerprint"`
}

// HasScore reports whether the scoring stage produced a number.
func (r *AssessmentResult) HasScore() bool { return r.ValidationScore != nil }

// Blocked reports whether the run stopped at validation.
func (r *AssessmentResult) Blocked() bool { return len(r.BlockingIssues) > 0 }

// HasIssue reports whether the given blocking issue was raised.
func (r *AssessmentResult) HasIssue(code IssueCode) bool {
	for _, c := range r.BlockingIssues {
		if c == code {
			return true
		}
	}
	return false
}

// ProgressFunc receives a phase name and an overall percentage in [0,100].
// It is optional everywhere it is accepted.
type ProgressFunc func(phase string, percent int)

// Phase names reported to ProgressFunc.
const (
	PhaseValidate = "validate"
	PhaseClean    = "clean"
	PhaseScore    = "score"
	PhaseAssemble = "assemble"
)
