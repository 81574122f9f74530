// Package history keeps the assessments of one session and drives the
// fix-and-recheck loop around the quality pipeline.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/HendryAvila/datacheck/internal/quality"
)

var (
	ErrNilResult     = errors.New("no result to record")
	ErrTargetChanged = errors.New("the selected column cannot change within a session")
	ErrTooFewEntries = errors.New("comparison needs at least two assessments")
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// Entry is one recorded assessment.
type Entry struct {
	Seq        int                       `json:"seq"`
	Result     *quality.AssessmentResult `json:"result"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

// History is the append-only record of one session's assessments. The
// target column is pinned by the first entry.
type History struct {
	target  string
	entries []Entry
}

// Append records a result. It fails if the result was computed for a
// different target than the one already pinned.
func (h *History) Append(res *quality.AssessmentResult) (Entry, error) {
	if res == nil {
		return Entry{}, ErrNilResult
	}
	if len(h.entries) > 0 && res.TargetColumn != h.target {
		return Entry{}, fmt.Errorf("%w: pinned %q, got %q", ErrTargetChanged, h.target, res.TargetColumn)
	}
	if len(h.entries) == 0 {
		h.target = res.TargetColumn
	}
	e := Entry{Seq: len(h.entries) + 1, Result: res, RecordedAt: timeNow().UTC()}
	h.entries = append(h.entries, e)
	return e, nil
}

// Target returns the pinned target column, or "" before the first entry.
func (h *History) Target() string { return h.target }

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Initial returns the first result, or nil.
func (h *History) Initial() *quality.AssessmentResult {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[0].Result
}

// Latest returns the most recent result, or nil.
func (h *History) Latest() *quality.AssessmentResult {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[len(h.entries)-1].Result
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}

// Reset clears every entry and unpins the target.
func (h *History) Reset() {
	h.target = ""
	h.entries = nil
}

// Snapshot is the part of a result a comparison reports.
type Snapshot struct {
	Seq     int            `json:"seq"`
	Status  quality.Status `json:"status"`
	IsReady bool           `json:"is_ready"`
	Score   *float64       `json:"score,omitempty"`
	Actions int            `json:"actions"`
}

// Comparison is the before/after view of a session.
type Comparison struct {
	Target string   `json:"target"`
	First  Snapshot `json:"first"`
	Latest Snapshot `json:"latest"`
	// Delta is latest minus first score, set only when both have one.
	Delta *float64 `json:"delta,omitempty"`
	// StatusChanged reports whether the verdict flipped.
	StatusChanged bool `json:"status_changed"`
}

// Compare reports the first entry against the latest one.
func (h *History) Compare() (Comparison, error) {
	if len(h.entries) < 2 {
		return Comparison{}, ErrTooFewEntries
	}
	first := snapshot(h.entries[0])
	latest := snapshot(h.entries[len(h.entries)-1])
	c := Comparison{
		Target:        h.target,
		First:         first,
		Latest:        latest,
		StatusChanged: first.Status != latest.Status,
	}
	if first.Score != nil && latest.Score != nil {
		d := *latest.Score - *first.Score
		c.Delta = &d
	}
	return c, nil
}

func snapshot(e Entry) Snapshot {
	return Snapshot{
		Seq:     e.Seq,
		Status:  e.Result.Status,
		IsReady: e.Result.IsReady,
		Score:   e.Result.ValidationScore,
		Actions: len(e.Result.CleaningActions),
	}
}
