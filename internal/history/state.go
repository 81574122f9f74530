package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/quality"
	"github.com/HendryAvila/datacheck/internal/templates"
	"go.uber.org/zap"
)

// --- State machine for the fix-and-recheck loop ---
//
//	INITIAL ──Assess──▶ ASSESSED ──RequestReassessment──▶ PENDING_REASSESSMENT
//	                       ▲                                   │
//	                       └──────────────Reassess─────────────┘
//
// Reset returns to INITIAL from any state.

// State is the coordinator's position in the loop.
type State string

const (
	StateInitial  State = "INITIAL"
	StateAssessed State = "ASSESSED"
	StatePending  State = "PENDING_REASSESSMENT"
)

var (
	ErrNilDataset      = errors.New("no dataset loaded")
	ErrAlreadyAssessed = errors.New("this session already has an assessment; reset it to start over")
	ErrNotAssessed     = errors.New("no assessment yet")
	ErrNothingChanged  = errors.New("nothing changed since the last assessment")
	ErrAlreadyPending  = errors.New("a re-check is already waiting")
	ErrNotPending      = errors.New("no re-check was requested")
	ErrTargetMissing   = errors.New("the pinned target column is no longer in the dataset")
)

// Pipeline runs one assessment. quality.Checker satisfies it.
type Pipeline interface {
	Run(ctx context.Context, ds *dataset.Dataset, target string, progress quality.ProgressFunc) (*quality.AssessmentResult, error)
}

// Recorder is notified after history changes. It's optional: the
// coordinator works the same with a nil recorder.
type Recorder interface {
	RecordSession(info SessionInfo)
	RecordAssessment(sessionID string, e Entry)
	RecordReset(sessionID string)
}

// ReassessError is returned when a re-check could not produce a result.
// History and the current dataset are untouched when it is returned.
type ReassessError struct {
	Cause   error
	message string
}

func (e *ReassessError) Error() string { return fmt.Sprintf("reassessment failed: %v", e.Cause) }

func (e *ReassessError) Unwrap() error { return e.Cause }

// UserMessage returns a plain sentence safe to show to the user.
func (e *ReassessError) UserMessage() string { return e.message }

// Coordinator owns one session's history and current dataset. It is not
// safe for concurrent use; Session serializes access.
type Coordinator struct {
	sessionID string
	pipeline  Pipeline
	renderer  *templates.Renderer
	recorder  Recorder
	logger    *zap.Logger

	state    State
	history  History
	original *dataset.Dataset
	current  *dataset.Dataset
	pending  []quality.CleaningAction
	applied  []quality.CleaningAction
}

// NewCoordinator creates a coordinator in INITIAL for ds.
func NewCoordinator(sessionID string, ds *dataset.Dataset, pipeline Pipeline, renderer *templates.Renderer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		sessionID: sessionID,
		pipeline:  pipeline,
		renderer:  renderer,
		logger:    logger.With(zap.String("session", sessionID)),
		state:     StateInitial,
		original:  ds,
		current:   ds,
	}
}

// SetRecorder attaches an optional Recorder.
func (c *Coordinator) SetRecorder(r Recorder) { c.recorder = r }

// Assess runs the first assessment. A result that only says the target is
// missing or unknown is returned but not recorded, so the caller can try
// again with a valid column while the session stays in INITIAL.
func (c *Coordinator) Assess(ctx context.Context, target string, progress quality.ProgressFunc) (*quality.AssessmentResult, error) {
	if c.state != StateInitial {
		return nil, ErrAlreadyAssessed
	}
	if c.current == nil {
		return nil, ErrNilDataset
	}

	res, err := c.pipeline.Run(ctx, c.current, target, progress)
	if err != nil {
		return nil, fmt.Errorf("assessing: %w", err)
	}
	if res.HasIssue(quality.IssueMissingTarget) {
		c.logger.Info("assessment needs a target", zap.String("target", target))
		return res, nil
	}

	e, err := c.history.Append(res)
	if err != nil {
		return nil, fmt.Errorf("recording assessment: %w", err)
	}
	c.state = StateAssessed
	c.pending = nil
	c.notifyAssessment(e)
	return res, nil
}

// RecordFix replaces the current dataset with one the caller changed and
// logs the change. Any state accepts fixes.
func (c *Coordinator) RecordFix(ds *dataset.Dataset, action quality.CleaningAction) error {
	if ds == nil {
		return ErrNilDataset
	}
	c.current = ds
	c.pending = append(c.pending, action)
	c.applied = append(c.applied, action)
	c.logger.Info("fix recorded",
		zap.String("type", string(action.ActionType)),
		zap.String("column", action.Column),
		zap.Int("pending", len(c.pending)))
	return nil
}

// CanRequestReassessment reports whether RequestReassessment would succeed.
func (c *Coordinator) CanRequestReassessment() error {
	switch c.state {
	case StateInitial:
		return ErrNotAssessed
	case StatePending:
		return ErrAlreadyPending
	}
	if len(c.pending) == 0 {
		return ErrNothingChanged
	}
	return nil
}

// RequestReassessment moves ASSESSED to PENDING_REASSESSMENT. It is
// refused unless a fix was recorded since the last assessment.
func (c *Coordinator) RequestReassessment() error {
	if err := c.CanRequestReassessment(); err != nil {
		return err
	}
	c.state = StatePending
	return nil
}

// Reassess runs the pipeline again with the pinned target against the
// current dataset. On failure it returns a *ReassessError and goes back
// to ASSESSED with history, dataset and pending fixes unchanged.
func (c *Coordinator) Reassess(ctx context.Context, progress quality.ProgressFunc) (*quality.AssessmentResult, error) {
	if c.state != StatePending {
		return nil, ErrNotPending
	}
	target := c.history.Target()

	if !c.current.Has(target) {
		return nil, c.fail(ErrTargetMissing, templates.SummaryTargetGone)
	}

	res, err := c.pipeline.Run(ctx, c.current, target, progress)
	if err != nil {
		return nil, c.fail(err, templates.SummaryCheckFailed)
	}
	e, err := c.history.Append(res)
	if err != nil {
		return nil, c.fail(err, templates.SummaryCheckFailed)
	}

	c.state = StateAssessed
	c.pending = nil
	c.logger.Info("reassessment recorded", zap.Int("entries", c.history.Len()), zap.String("status", string(res.Status)))
	c.notifyAssessment(e)
	return res, nil
}

func (c *Coordinator) fail(cause error, msg templates.Name) error {
	c.state = StateAssessed
	c.logger.Warn("reassessment failed", zap.Error(cause))
	return &ReassessError{Cause: cause, message: c.renderer.Must(msg, templates.Data{})}
}

// Reset clears history and restores the dataset as it was opened.
func (c *Coordinator) Reset() {
	c.state = StateInitial
	c.history.Reset()
	c.current = c.original
	c.pending = nil
	c.applied = nil
	c.logger.Info("session reset")
	if c.recorder != nil {
		c.recorder.RecordReset(c.sessionID)
	}
}

// --- Read side ---

// State returns the current state.
func (c *Coordinator) State() State { return c.state }

// Target returns the pinned target column, or "" in INITIAL.
func (c *Coordinator) Target() string { return c.history.Target() }

// Current returns the dataset the next assessment will use.
func (c *Coordinator) Current() *dataset.Dataset { return c.current }

// Initial returns the first recorded result, or nil.
func (c *Coordinator) Initial() *quality.AssessmentResult { return c.history.Initial() }

// Latest returns the newest recorded result, or nil.
func (c *Coordinator) Latest() *quality.AssessmentResult { return c.history.Latest() }

// Entries returns every recorded assessment, oldest first.
func (c *Coordinator) Entries() []Entry { return c.history.Entries() }

// Compare reports the first assessment against the latest one.
func (c *Coordinator) Compare() (Comparison, error) { return c.history.Compare() }

// PendingFixes returns the fixes recorded since the last assessment.
func (c *Coordinator) PendingFixes() []quality.CleaningAction {
	return append([]quality.CleaningAction(nil), c.pending...)
}

// AppliedFixes returns every fix recorded since the session started.
func (c *Coordinator) AppliedFixes() []quality.CleaningAction {
	return append([]quality.CleaningAction(nil), c.applied...)
}

func (c *Coordinator) notifyAssessment(e Entry) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordAssessment(c.sessionID, e)
}
