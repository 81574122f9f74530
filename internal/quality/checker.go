package quality

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/templates"
	"go.uber.org/zap"
)

// ErrNilDataset is returned by Run when no dataset was supplied.
var ErrNilDataset = errors.New("no dataset supplied")

// Options configures a Checker.
type Options struct {
	// ScoringEnabled opts in to the quick check against the oracle.
	ScoringEnabled bool
	// CallBudget caps oracle calls per run; clamped to MaxExternalCalls.
	CallBudget int
	// Scorer bounds the scoring stage.
	Scorer ScorerConfig
}

// DefaultOptions returns options with scoring off and the full budget.
func DefaultOptions() Options {
	return Options{
		CallBudget: MaxExternalCalls,
		Scorer:     DefaultScorerConfig(),
	}
}

// PipelineContext carries the per-invocation settings of one run. It is
// built fresh for every call and never shared between runs.
type PipelineContext struct {
	Target    string
	Budget    *Budget
	SampleCap int
}

// Checker is the pipeline entry point.
type Checker struct {
	opts      Options
	cleaner   *Cleaner
	scorer    *Scorer
	assembler *Assembler
	logger    *zap.Logger
	now       func() time.Time
}

// NewChecker wires the pipeline stages. oracle may be nil, in which case
// the scoring stage always falls back to the heuristic decision.
func NewChecker(opts Options, oracle Oracle, logger *zap.Logger) (*Checker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("creating template renderer: %w", err)
	}
	return &Checker{
		opts:      opts,
		cleaner:   NewCleaner(renderer),
		scorer:    NewScorer(oracle, opts.Scorer, logger.Named("scorer")),
		assembler: NewAssembler(renderer),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// ScoringEnabled reports whether runs include the quick check.
func (c *Checker) ScoringEnabled() bool { return c.opts.ScoringEnabled }

// CheckAndExport runs the pipeline and always returns a well-formed
// result. Failures inside the pipeline are logged and reported as a
// needs_work result with a plain message.
func (c *Checker) CheckAndExport(ctx context.Context, ds *dataset.Dataset, target string, progress ProgressFunc) *AssessmentResult {
	start := c.now()
	res, err := c.Run(ctx, ds, target, progress)
	if err == nil {
		return res
	}
	c.logger.Error("assessment failed", zap.String("target", target), zap.Error(err))
	c.finish(progress)
	return c.assembler.Failed(ds, target, c.now().Sub(start), 0)
}

// finish reports completion after a failed run. The callback itself may
// be what failed, so a second panic is swallowed.
func (c *Checker) finish(progress ProgressFunc) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("progress callback panicked", zap.Any("panic", r))
		}
	}()
	progress(PhaseAssemble, done)
}

// Run executes Validate → Clean → Score → Decide → Assemble once. Bad
// input is not an error: it yields a needs_work result. An error means
// the run could not finish at all.
func (c *Checker) Run(ctx context.Context, ds *dataset.Dataset, target string, progress ProgressFunc) (result *AssessmentResult, err error) {
	if ds == nil {
		return nil, ErrNilDataset
	}
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("quality: pipeline stopped: %v", r)
		}
	}()

	start := c.now()
	pc := PipelineContext{
		Target:    target,
		Budget:    NewBudget(c.opts.CallBudget),
		SampleCap: c.opts.Scorer.SampleCap,
	}
	rep := newReporter(progress, c.logger)
	log := c.logger.With(zap.String("target", target), zap.Int("rows", ds.Rows()), zap.Int("columns", ds.Width()))

	// --- Validate (0-20%) ---
	rep.report(PhaseValidate, validateStart)
	issues := Validate(ds, pc.Target)
	rep.report(PhaseValidate, validateEnd)

	if len(issues) > 0 {
		log.Info("assessment blocked", zap.String("issue", string(issues[0].Code)))
		rep.report(PhaseAssemble, assembleStart)
		res := c.assembler.Assemble(Outcome{
			Target:   pc.Target,
			Original: ds,
			Issues:   issues,
			Elapsed:  c.now().Sub(start),
		})
		rep.report(PhaseAssemble, done)
		return res, nil
	}

	// --- Clean (20-60%) ---
	cleaned, actions := c.cleaner.Clean(ds, pc.Target, rep.within(PhaseClean, cleanStart, cleanEnd))
	rep.report(PhaseClean, cleanEnd)

	tcol, _ := cleaned.Column(pc.Target)
	task := DetectTask(tcol)

	// --- Score (60-90%) ---
	var score *float64
	if c.opts.ScoringEnabled {
		rep.report(PhaseScore, scoreStart+5)
		score = c.scorer.Score(ctx, cleaned, pc.Target, task, pc.Budget)
	}
	rep.report(PhaseScore, scoreEnd)

	// --- Assemble (90-100%) ---
	rep.report(PhaseAssemble, assembleStart)
	res := c.assembler.Assemble(Outcome{
		Target:           pc.Target,
		Task:             task,
		Original:         ds,
		Actions:          actions,
		Cleaned:          cleaned,
		Score:            score,
		ScoringAttempted: c.opts.ScoringEnabled,
		Elapsed:          c.now().Sub(start),
		CallsUsed:        pc.Budget.Used(),
	})
	rep.report(PhaseAssemble, done)

	log.Info("assessment complete",
		zap.String("status", string(res.Status)),
		zap.Int("actions", len(actions)),
		zap.Int("external_calls", res.ExternalCallsUsed),
		zap.Float64("elapsed_seconds", res.ElapsedSeconds))
	return res, nil
}
