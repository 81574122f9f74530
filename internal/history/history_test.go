package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/quality"
	"github.com/HendryAvila/datacheck/internal/templates"
)

func init() {
	timeNow = func() time.Time {
		return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	}
}

// --- Helpers ---

// scriptedPipeline returns results with a preset score per call.
type scriptedPipeline struct {
	mu      sync.Mutex
	scores  []float64
	calls   int
	targets []string
	fail    error
}

func (p *scriptedPipeline) Run(_ context.Context, ds *dataset.Dataset, target string, _ quality.ProgressFunc) (*quality.AssessmentResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets = append(p.targets, target)
	if p.fail != nil {
		return nil, p.fail
	}
	if target == "" || !ds.Has(target) {
		return &quality.AssessmentResult{
			Status:         quality.StatusNeedsWork,
			TargetColumn:   target,
			BlockingIssues: []quality.IssueCode{quality.IssueMissingTarget},
		}, nil
	}
	res := &quality.AssessmentResult{Status: quality.StatusNeedsWork, TargetColumn: target}
	if p.calls < len(p.scores) {
		s := p.scores[p.calls]
		res.ValidationScore = &s
		if s >= quality.ScoreThreshold {
			res.IsReady, res.Status = true, quality.StatusReady
		}
	}
	p.calls++
	return res, nil
}

type recorded struct {
	sessions []SessionInfo
	entries  []Entry
	resets   []string
}

func (r *recorded) RecordSession(info SessionInfo) { r.sessions = append(r.sessions, info) }
func (r *recorded) RecordAssessment(_ string, e Entry) { r.entries = append(r.entries, e) }
func (r *recorded) RecordReset(sessionID string) { r.resets = append(r.resets, sessionID) }

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	n := 20
	age := make([]string, n)
	city := make([]string, n)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		age[i] = fmt.Sprint(20 + i)
		city[i] = []string{"lima", "cusco", ""}[i%3]
		out[i] = []string{"yes", "no"}[i%2]
	}
	ds, err := dataset.New(
		dataset.NewColumn("age", age),
		dataset.NewColumn("city", city),
		dataset.NewColumn("outcome", out),
	)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

func newTestCoordinator(t *testing.T, p Pipeline) *Coordinator {
	t.Helper()
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return NewCoordinator("s-1", testDataset(t), p, r, nil)
}

// applyRemove drops a column through the coordinator the way a caller would.
func applyRemove(t *testing.T, c *Coordinator, column string) {
	t.Helper()
	r, _ := templates.NewRenderer()
	out, act, err := quality.NewCleaner(r).ApplyFix(c.Current(), quality.Fix{Type: quality.ActionRemoveColumn, Column: column}, c.Target())
	if err != nil {
		t.Fatalf("ApplyFix: %v", err)
	}
	if err := c.RecordFix(out, act); err != nil {
		t.Fatalf("RecordFix: %v", err)
	}
}

func applyFill(t *testing.T, c *Coordinator, column string) {
	t.Helper()
	r, _ := templates.NewRenderer()
	out, act, err := quality.NewCleaner(r).ApplyFix(c.Current(), quality.Fix{Type: quality.ActionFillMissing, Column: column}, c.Target())
	if err != nil {
		t.Fatalf("ApplyFix: %v", err)
	}
	if err := c.RecordFix(out, act); err != nil {
		t.Fatalf("RecordFix: %v", err)
	}
}

// --- History ---

func TestHistory_PinsTarget(t *testing.T) {
	var h History
	if _, err := h.Append(&quality.AssessmentResult{TargetColumn: "y"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_, err := h.Append(&quality.AssessmentResult{TargetColumn: "z"})
	if !errors.Is(err, ErrTargetChanged) {
		t.Errorf("err = %v, want ErrTargetChanged", err)
	}
	if h.Len() != 1 || h.Target() != "y" {
		t.Errorf("len=%d target=%q", h.Len(), h.Target())
	}
}

func TestHistory_InitialLatestAndReset(t *testing.T) {
	var h History
	if h.Initial() != nil || h.Latest() != nil {
		t.Fatal("empty history should have no results")
	}
	a := &quality.AssessmentResult{TargetColumn: "y", Summary: "a"}
	b := &quality.AssessmentResult{TargetColumn: "y", Summary: "b"}
	_, _ = h.Append(a)
	e, _ := h.Append(b)
	if h.Initial() != a || h.Latest() != b || e.Seq != 2 {
		t.Error("Initial/Latest/Seq mismatch")
	}
	h.Reset()
	if h.Len() != 0 || h.Target() != "" {
		t.Error("Reset left state behind")
	}
}

func TestHistory_CompareNeedsTwoEntries(t *testing.T) {
	var h History
	_, _ = h.Append(&quality.AssessmentResult{TargetColumn: "y"})
	if _, err := h.Compare(); !errors.Is(err, ErrTooFewEntries) {
		t.Errorf("err = %v, want ErrTooFewEntries", err)
	}
}

func TestHistory_DeltaOnlyWithTwoScores(t *testing.T) {
	s := 40.0
	var h History
	_, _ = h.Append(&quality.AssessmentResult{TargetColumn: "y", ValidationScore: &s})
	_, _ = h.Append(&quality.AssessmentResult{TargetColumn: "y"})
	c, err := h.Compare()
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if c.Delta != nil {
		t.Errorf("delta = %v, want none", *c.Delta)
	}
}

// --- Coordinator ---

// Each re-assessment needs a fix applied since the previous one, so the
// second run is preceded by its own fix rather than reusing the first.
func TestCoordinator_FixBeforeEachOfTwoReassessments(t *testing.T) {
	p := &scriptedPipeline{scores: []float64{42, 55, 71.5}}
	c := newTestCoordinator(t, p)
	ctx := context.Background()

	if _, err := c.Assess(ctx, "outcome", nil); err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if c.State() != StateAssessed {
		t.Fatalf("state = %s, want ASSESSED", c.State())
	}

	applyFill(t, c, "city")
	for i := 0; i < 2; i++ {
		if i > 0 {
			if err := c.RequestReassessment(); !errors.Is(err, ErrNothingChanged) {
				t.Fatalf("re-run without a new fix: err = %v, want ErrNothingChanged", err)
			}
			applyRemove(t, c, "city")
		}
		if err := c.RequestReassessment(); err != nil {
			t.Fatalf("RequestReassessment %d: %v", i, err)
		}
		if c.State() != StatePending {
			t.Fatalf("state = %s, want PENDING_REASSESSMENT", c.State())
		}
		if _, err := c.Reassess(ctx, nil); err != nil {
			t.Fatalf("Reassess %d: %v", i, err)
		}
	}

	entries := c.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Result.TargetColumn != "outcome" {
			t.Errorf("entry %d target = %q", e.Seq, e.Result.TargetColumn)
		}
	}
	for _, tgt := range p.targets {
		if tgt != "outcome" {
			t.Errorf("pipeline saw target %q", tgt)
		}
	}

	cmp, err := c.Compare()
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Delta == nil || *cmp.Delta != 29.5 {
		t.Errorf("delta = %v, want 29.5", cmp.Delta)
	}
	if !cmp.StatusChanged || cmp.First.Seq != 1 || cmp.Latest.Seq != 3 {
		t.Errorf("unexpected comparison: %+v", cmp)
	}
}

func TestCoordinator_RequestRefusedWithoutFix(t *testing.T) {
	c := newTestCoordinator(t, &scriptedPipeline{})
	if err := c.RequestReassessment(); !errors.Is(err, ErrNotAssessed) {
		t.Errorf("before assess: err = %v, want ErrNotAssessed", err)
	}
	if _, err := c.Assess(context.Background(), "outcome", nil); err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if err := c.RequestReassessment(); !errors.Is(err, ErrNothingChanged) {
		t.Errorf("err = %v, want ErrNothingChanged", err)
	}
	if c.State() != StateAssessed {
		t.Errorf("state = %s, want ASSESSED", c.State())
	}
}

func TestCoordinator_RequestTwiceRefused(t *testing.T) {
	c := newTestCoordinator(t, &scriptedPipeline{})
	_, _ = c.Assess(context.Background(), "outcome", nil)
	applyFill(t, c, "city")
	if err := c.RequestReassessment(); err != nil {
		t.Fatalf("RequestReassessment: %v", err)
	}
	if err := c.RequestReassessment(); !errors.Is(err, ErrAlreadyPending) {
		t.Errorf("err = %v, want ErrAlreadyPending", err)
	}
}

func TestCoordinator_ReassessWithoutRequest(t *testing.T) {
	c := newTestCoordinator(t, &scriptedPipeline{})
	_, _ = c.Assess(context.Background(), "outcome", nil)
	if _, err := c.Reassess(context.Background(), nil); !errors.Is(err, ErrNotPending) {
		t.Errorf("err = %v, want ErrNotPending", err)
	}
}

func TestCoordinator_MissingTargetDoesNotPin(t *testing.T) {
	c := newTestCoordinator(t, &scriptedPipeline{})
	res, err := c.Assess(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !res.HasIssue(quality.IssueMissingTarget) {
		t.Fatalf("expected missing target issue")
	}
	if c.State() != StateInitial || c.Target() != "" || len(c.Entries()) != 0 {
		t.Errorf("state=%s target=%q entries=%d", c.State(), c.Target(), len(c.Entries()))
	}
	if _, err := c.Assess(context.Background(), "outcome", nil); err != nil {
		t.Fatalf("second Assess: %v", err)
	}
	if c.Target() != "outcome" {
		t.Errorf("target = %q, want outcome", c.Target())
	}
	if _, err := c.Assess(context.Background(), "outcome", nil); !errors.Is(err, ErrAlreadyAssessed) {
		t.Errorf("err = %v, want ErrAlreadyAssessed", err)
	}
}

func TestCoordinator_PipelineFailureKeepsState(t *testing.T) {
	p := &scriptedPipeline{scores: []float64{60}}
	c := newTestCoordinator(t, p)
	_, _ = c.Assess(context.Background(), "outcome", nil)
	applyRemove(t, c, "city")
	modified := c.Current()
	_ = c.RequestReassessment()

	p.fail = errors.New("disk full")
	_, err := c.Reassess(context.Background(), nil)

	var re *ReassessError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *ReassessError", err)
	}
	if !templates.Clean(re.UserMessage()) || re.UserMessage() == "" {
		t.Errorf("user message %q is not plain", re.UserMessage())
	}
	if c.State() != StateAssessed {
		t.Errorf("state = %s, want ASSESSED", c.State())
	}
	if len(c.Entries()) != 1 {
		t.Errorf("entries = %d, want 1", len(c.Entries()))
	}
	if c.Current() != modified {
		t.Error("modified dataset was lost")
	}
	if len(c.PendingFixes()) != 1 {
		t.Error("pending fixes were cleared")
	}

	// The same fix can be retried once the pipeline recovers.
	p.fail = nil
	if err := c.RequestReassessment(); err != nil {
		t.Fatalf("retry request: %v", err)
	}
	if _, err := c.Reassess(context.Background(), nil); err != nil {
		t.Fatalf("retry reassess: %v", err)
	}
}

func TestCoordinator_TargetRemovedFailsRun(t *testing.T) {
	p := &scriptedPipeline{scores: []float64{60}}
	c := newTestCoordinator(t, p)
	_, _ = c.Assess(context.Background(), "outcome", nil)

	ds, _ := c.Current().WithoutColumn("outcome")
	_ = c.RecordFix(ds, quality.CleaningAction{ActionType: quality.ActionRemoveColumn, Column: "outcome"})
	_ = c.RequestReassessment()
	_, err := c.Reassess(context.Background(), nil)

	if !errors.Is(err, ErrTargetMissing) {
		t.Fatalf("err = %v, want ErrTargetMissing", err)
	}
	if p.calls != 1 {
		t.Errorf("pipeline ran %d times, want 1", p.calls)
	}
	if c.State() != StateAssessed || c.Target() != "outcome" {
		t.Errorf("state=%s target=%q", c.State(), c.Target())
	}
}

func TestCoordinator_ResetFromAnyState(t *testing.T) {
	rec := &recorded{}
	c := newTestCoordinator(t, &scriptedPipeline{scores: []float64{10, 20}})
	c.SetRecorder(rec)
	original := c.Current()

	_, _ = c.Assess(context.Background(), "outcome", nil)
	applyRemove(t, c, "city")
	_ = c.RequestReassessment()

	c.Reset()
	if c.State() != StateInitial || len(c.Entries()) != 0 || c.Target() != "" {
		t.Errorf("reset left state=%s entries=%d target=%q", c.State(), len(c.Entries()), c.Target())
	}
	if c.Current() != original {
		t.Error("reset should restore the opened dataset")
	}
	if len(c.AppliedFixes()) != 0 {
		t.Error("reset should clear applied fixes")
	}
	if len(rec.entries) != 1 || len(rec.resets) != 1 {
		t.Errorf("recorder saw %d entries and %d resets", len(rec.entries), len(rec.resets))
	}

	// A new target may be chosen after reset.
	if _, err := c.Assess(context.Background(), "age", nil); err != nil {
		t.Fatalf("Assess after reset: %v", err)
	}
	if c.Target() != "age" {
		t.Errorf("target = %q, want age", c.Target())
	}
}

// --- End to end with the real pipeline ---

func TestCoordinator_WithChecker(t *testing.T) {
	checker, err := quality.NewChecker(quality.DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	c := newTestCoordinator(t, checker)
	ctx := context.Background()

	first, err := c.Assess(ctx, "outcome", nil)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	applyRemove(t, c, "city")
	_ = c.RequestReassessment()
	second, err := c.Reassess(ctx, nil)
	if err != nil {
		t.Fatalf("Reassess: %v", err)
	}
	if first.OriginalColumns != 3 || second.OriginalColumns != 2 {
		t.Errorf("columns = %d then %d, want 3 then 2", first.OriginalColumns, second.OriginalColumns)
	}
	cmp, err := c.Compare()
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Delta != nil {
		t.Error("no scores, so no delta")
	}
}
