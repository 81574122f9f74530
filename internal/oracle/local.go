// Package oracle provides the scoring services the quick check talks to:
// a JSON client for a remote service and an in-process fallback used when
// no remote service is configured.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/HendryAvila/datacheck/internal/quality"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// neighbours is how many reference rows vote on each prediction.
	neighbours = 5
	// maxReference caps the rows kept per fitted model.
	maxReference = 2000
)

var (
	ErrUnknownHandle = errors.New("unknown model handle")
	ErrShapeMismatch = errors.New("rows and target differ in length")
	ErrNoRows        = errors.New("no rows to fit")
)

// Local is a nearest-neighbour baseline that runs in process. Scores are
// accuracy for classification and R² clipped to [0,1] for regression.
// A handle is consumed by the Score call that uses it.
type Local struct {
	mu     sync.Mutex
	models map[quality.Handle]*model
	logger *zap.Logger
}

type model struct {
	task   quality.TaskType
	mean   []float64
	scale  []float64
	rows   [][]float64
	target []float64
}

// NewLocal creates a Local oracle.
func NewLocal(logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{models: make(map[quality.Handle]*model), logger: logger}
}

// NativeRange implements quality.Oracle.
func (l *Local) NativeRange() (float64, float64) { return 0, 1 }

// Fit standardizes the rows and keeps them as the reference set.
func (l *Local) Fit(ctx context.Context, task quality.TaskType, rows [][]float64, target []float64) (quality.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrNoRows
	}
	if len(rows) != len(target) {
		return "", fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(rows), len(target))
	}

	if len(rows) > maxReference {
		rows, target = thin(rows, target, maxReference)
	}

	m := &model{task: task, target: append([]float64(nil), target...)}
	m.mean, m.scale = moments(rows)
	m.rows = make([][]float64, len(rows))
	for i, r := range rows {
		m.rows[i] = m.standardize(r)
	}

	h := quality.Handle(uuid.NewString())
	l.mu.Lock()
	l.models[h] = m
	l.mu.Unlock()

	l.logger.Debug("local model fitted", zap.String("handle", string(h)), zap.Int("rows", len(rows)))
	return h, nil
}

// Score predicts every row and compares against target.
func (l *Local) Score(ctx context.Context, h quality.Handle, rows [][]float64, target []float64) (float64, error) {
	l.mu.Lock()
	m, ok := l.models[h]
	delete(l.models, h)
	l.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	if len(rows) != len(target) {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(rows), len(target))
	}
	if len(rows) == 0 {
		return 0, ErrNoRows
	}

	pred := make([]float64, len(rows))
	for i, r := range rows {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		pred[i] = m.predict(m.standardize(r))
	}

	if m.task == quality.TaskClassification {
		return accuracy(pred, target), nil
	}
	return clippedR2(pred, target), nil
}

// Models returns how many fitted models are waiting to be scored.
func (l *Local) Models() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.models)
}

func (m *model) standardize(r []float64) []float64 {
	out := make([]float64, len(m.mean))
	for j := range out {
		if j < len(r) {
			out[j] = (r[j] - m.mean[j]) / m.scale[j]
		}
	}
	return out
}

type neighbour struct {
	dist  float64
	label float64
}

func (m *model) predict(x []float64) float64 {
	nb := make([]neighbour, len(m.rows))
	for i, r := range m.rows {
		d := 0.0
		for j := range r {
			diff := r[j] - x[j]
			d += diff * diff
		}
		nb[i] = neighbour{dist: d, label: m.target[i]}
	}
	sort.SliceStable(nb, func(a, b int) bool { return nb[a].dist < nb[b].dist })
	k := min(neighbours, len(nb))
	nb = nb[:k]

	if m.task != quality.TaskClassification {
		sum := 0.0
		for _, n := range nb {
			sum += n.label
		}
		return sum / float64(k)
	}

	// Majority vote; ties go to the label whose first vote came nearest.
	votes := make(map[float64]int, k)
	best, bestVotes := nb[0].label, 0
	for _, n := range nb {
		votes[n.label]++
	}
	for _, n := range nb {
		if v := votes[n.label]; v > bestVotes {
			best, bestVotes = n.label, v
		}
	}
	return best
}

// moments returns per-column mean and standard deviation. A constant
// column gets a scale of 1 so it contributes nothing to distances.
func moments(rows [][]float64) (mean, scale []float64) {
	width := len(rows[0])
	mean = make([]float64, width)
	scale = make([]float64, width)
	n := float64(len(rows))
	for _, r := range rows {
		for j := 0; j < width && j < len(r); j++ {
			mean[j] += r[j]
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, r := range rows {
		for j := 0; j < width && j < len(r); j++ {
			d := r[j] - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return mean, scale
}

// thin keeps n evenly spaced rows.
func thin(rows [][]float64, target []float64, n int) ([][]float64, []float64) {
	step := float64(len(rows)) / float64(n)
	outR := make([][]float64, n)
	outT := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := int(float64(i) * step)
		outR[i] = rows[idx]
		outT[i] = target[idx]
	}
	return outR, outT
}

func accuracy(pred, target []float64) float64 {
	hit := 0
	for i := range pred {
		if pred[i] == target[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(pred))
}

func clippedR2(pred, target []float64) float64 {
	mean := 0.0
	for _, y := range target {
		mean += y
	}
	mean /= float64(len(target))

	var ssRes, ssTot float64
	for i, y := range target {
		ssRes += (y - pred[i]) * (y - pred[i])
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return math.Max(0, math.Min(1, 1-ssRes/ssTot))
}
