package quality

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"go.uber.org/zap"
)

// Handle refers to a fitted model held by the scoring service.
type Handle string

// Oracle is the external scoring service. It is a black box with a
// fit/score contract; every call counts against the run's Budget.
type Oracle interface {
	Fit(ctx context.Context, task TaskType, rows [][]float64, target []float64) (Handle, error)
	Score(ctx context.Context, h Handle, rows [][]float64, target []float64) (float64, error)
	// NativeRange is the range raw scores are reported in, used to
	// rescale them to 0..100.
	NativeRange() (lo, hi float64)
}

// ErrOracleUnavailable is returned by oracles that cannot be reached.
var ErrOracleUnavailable = errors.New("scoring service unavailable")

// callsPerScore is the number of oracle calls one scoring pass needs.
const callsPerScore = 2

// ScorerConfig bounds the scoring stage.
type ScorerConfig struct {
	// SampleCap is the maximum number of rows sent to the service.
	SampleCap int
	// ValidationShare is the fraction of rows held out for scoring.
	ValidationShare float64
	// Timeout bounds the whole stage, both calls included.
	Timeout time.Duration
	// Seed makes sampling and splitting reproducible.
	Seed uint64
}

// DefaultScorerConfig returns the defaults used by the pipeline.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		SampleCap:       10000,
		ValidationShare: 0.2,
		Timeout:         20 * time.Second,
		Seed:            42,
	}
}

// Scorer runs the single bounded train/validate pass.
type Scorer struct {
	oracle Oracle
	cfg    ScorerConfig
	logger *zap.Logger
}

// NewScorer creates a Scorer. A nil oracle makes every Score call return
// nil without consuming budget.
func NewScorer(oracle Oracle, cfg ScorerConfig, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultScorerConfig()
	if cfg.SampleCap <= 0 {
		cfg.SampleCap = def.SampleCap
	}
	if cfg.ValidationShare <= 0 || cfg.ValidationShare >= 1 {
		cfg.ValidationShare = def.ValidationShare
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Scorer{oracle: oracle, cfg: cfg, logger: logger}
}

// Score fits once and scores once against the oracle and returns a score
// in [0,100], or nil when the stage was skipped or failed. It never
// returns an error: a nil score sends the pipeline down the heuristic
// decision path.
func (s *Scorer) Score(ctx context.Context, ds *dataset.Dataset, target string, task TaskType, budget *Budget) (score *float64) {
	if s.oracle == nil {
		return nil
	}
	if budget.Remaining() < callsPerScore {
		s.logger.Info("scoring skipped: call budget too small",
			zap.Int("remaining", budget.Remaining()), zap.Int("needed", callsPerScore))
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("scoring service panicked", zap.Any("panic", r))
			score = nil
		}
	}()

	rows, labels, err := matrix(ds, target)
	if err != nil {
		s.logger.Info("scoring skipped", zap.Error(err))
		return nil
	}

	rng := rand.New(rand.NewPCG(s.cfg.Seed, s.cfg.Seed^0x9e3779b97f4a7c15))
	if len(rows) > s.cfg.SampleCap {
		rows, labels = sample(rng, rows, labels, s.cfg.SampleCap)
	}

	train, valid, ok := split(rng, labels, task, s.cfg.ValidationShare)
	if !ok {
		s.logger.Info("scoring skipped: too few rows to hold some out", zap.Int("rows", len(rows)))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	trainX, trainY := pick(rows, labels, train)
	validX, validY := pick(rows, labels, valid)

	if !budget.Take() {
		return nil
	}
	handle, err := s.oracle.Fit(ctx, task, trainX, trainY)
	if err != nil {
		s.logger.Warn("scoring service fit failed", zap.Error(err))
		return nil
	}

	if !budget.Take() {
		return nil
	}
	raw, err := s.oracle.Score(ctx, handle, validX, validY)
	if err != nil {
		s.logger.Warn("scoring service score failed", zap.Error(err))
		return nil
	}

	lo, hi := s.oracle.NativeRange()
	scaled := Rescale(raw, lo, hi)
	s.logger.Info("quick check complete",
		zap.Float64("raw", raw), zap.Float64("score", scaled),
		zap.Int("train_rows", len(train)), zap.Int("validation_rows", len(valid)))
	return &scaled
}

// Rescale maps raw from [lo,hi] onto [0,100], clamping values outside the
// range. A degenerate range yields 0.
func Rescale(raw, lo, hi float64) float64 {
	if hi <= lo || math.IsNaN(raw) {
		return 0
	}
	v := (raw - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, v))
}

// matrix converts the cleaned dataset into row-major features and a
// numeric target. A text target is coded in first-encountered order.
func matrix(ds *dataset.Dataset, target string) ([][]float64, []float64, error) {
	tcol, ok := ds.Column(target)
	if !ok {
		return nil, nil, fmt.Errorf("column %q not found", target)
	}

	var features []*dataset.Column
	for i := 0; i < ds.Width(); i++ {
		c := ds.ColumnAt(i)
		if c.Name == target {
			continue
		}
		if c.Kind != dataset.KindNumeric {
			return nil, nil, fmt.Errorf("column %q is not numeric after cleaning", c.Name)
		}
		features = append(features, c)
	}
	if len(features) == 0 {
		return nil, nil, errors.New("no feature columns left")
	}

	labels := make([]float64, ds.Rows())
	if tcol.Kind == dataset.KindNumeric {
		copy(labels, tcol.Numbers)
	} else {
		codes := make(map[string]float64)
		for i, v := range tcol.Values {
			code, ok := codes[v]
			if !ok {
				code = float64(len(codes))
				codes[v] = code
			}
			labels[i] = code
		}
	}

	rows := make([][]float64, ds.Rows())
	for i := range rows {
		row := make([]float64, len(features))
		for j, c := range features {
			row[j] = c.Numbers[i]
		}
		rows[i] = row
	}
	return rows, labels, nil
}

// sample draws n rows without replacement, keeping original row order.
func sample(rng *rand.Rand, rows [][]float64, labels []float64, n int) ([][]float64, []float64) {
	idx := rng.Perm(len(rows))[:n]
	sort.Ints(idx)
	return pick(rows, labels, idx)
}

// split holds out a share of rows for validation. Classification splits
// are stratified when every class has at least two rows.
func split(rng *rand.Rand, labels []float64, task TaskType, share float64) (train, valid []int, ok bool) {
	n := len(labels)
	if n < 2 {
		return nil, nil, false
	}

	if task == TaskClassification {
		if train, valid, ok := stratifiedSplit(rng, labels, share); ok {
			return train, valid, true
		}
	}

	perm := rng.Perm(n)
	v := holdout(n, share)
	valid = append([]int(nil), perm[:v]...)
	train = append([]int(nil), perm[v:]...)
	sort.Ints(valid)
	sort.Ints(train)
	return train, valid, true
}

func stratifiedSplit(rng *rand.Rand, labels []float64, share float64) (train, valid []int, ok bool) {
	groups := make(map[float64][]int)
	var order []float64
	for i, l := range labels {
		if _, seen := groups[l]; !seen {
			order = append(order, l)
		}
		groups[l] = append(groups[l], i)
	}
	for _, l := range order {
		if len(groups[l]) < 2 {
			return nil, nil, false
		}
	}
	for _, l := range order {
		g := groups[l]
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		v := holdout(len(g), share)
		valid = append(valid, g[:v]...)
		train = append(train, g[v:]...)
	}
	sort.Ints(valid)
	sort.Ints(train)
	return train, valid, true
}

// holdout returns the validation size for n rows: at least one row held
// out and at least one kept for fitting.
func holdout(n int, share float64) int {
	v := int(math.Round(float64(n) * share))
	if v < 1 {
		v = 1
	}
	if v > n-1 {
		v = n - 1
	}
	return v
}

func pick(rows [][]float64, labels []float64, idx []int) ([][]float64, []float64) {
	x := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for i, r := range idx {
		x[i] = rows[r]
		y[i] = labels[r]
	}
	return x, y
}
