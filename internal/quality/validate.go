package quality

import "github.com/HendryAvila/datacheck/internal/dataset"

// MinRows is the smallest dataset the pipeline will assess.
const MinRows = 10

// IssueCode identifies a blocking input problem.
type IssueCode string

const (
	IssueMissingTarget    IssueCode = "missing_target"
	IssueInsufficientRows IssueCode = "insufficient_rows"
	IssueDegenerateTarget IssueCode = "degenerate_target"
	IssueNoFeatures       IssueCode = "no_features"
)

// Issue is one blocking problem found by Validate.
type Issue struct {
	Code IssueCode
	// TargetEmpty distinguishes "nothing selected" from "not found"
	// for IssueMissingTarget.
	TargetEmpty bool
	Rows        int
}

// Validate runs the cheap structural checks. It stops at the first
// blocking issue, so the returned list has at most one entry. It makes
// no external calls and has no side effects.
func Validate(ds *dataset.Dataset, target string) []Issue {
	if target == "" {
		return []Issue{{Code: IssueMissingTarget, TargetEmpty: true}}
	}
	col, ok := ds.Column(target)
	if !ok {
		return []Issue{{Code: IssueMissingTarget}}
	}
	if ds.Rows() < MinRows {
		return []Issue{{Code: IssueInsufficientRows, Rows: ds.Rows()}}
	}
	if usableTargetValues(col) < 2 {
		return []Issue{{Code: IssueDegenerateTarget}}
	}
	if ds.Width() < 2 {
		return []Issue{{Code: IssueNoFeatures}}
	}
	return nil
}

// usableTarget reports whether row i of the target column survives
// cleaning. Infinite numbers count as missing.
func usableTarget(col *dataset.Column, i int) bool {
	if col.Missing[i] {
		return false
	}
	return col.Numbers == nil || isFinite(col.Numbers[i])
}

// usableTargetValues counts the distinct target values that remain once
// unusable rows are dropped.
func usableTargetValues(col *dataset.Column) int {
	seen := make(map[string]bool)
	for i, v := range col.Values {
		if usableTarget(col, i) {
			seen[v] = true
		}
	}
	return len(seen)
}
