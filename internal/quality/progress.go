package quality

import "go.uber.org/zap"

// Progress windows for each stage, in overall percent.
const (
	validateStart = 0
	validateEnd   = 20
	cleanStart    = 20
	cleanEnd      = 60
	scoreStart    = 60
	scoreEnd      = 90
	assembleStart = 90
	done          = 100
)

// reporter forwards checkpoints to a ProgressFunc and guarantees that the
// caller never sees a percentage go down within one run.
type reporter struct {
	fn     ProgressFunc
	last   int
	logger *zap.Logger
}

func newReporter(fn ProgressFunc, logger *zap.Logger) *reporter {
	return &reporter{fn: fn, logger: logger}
}

func (r *reporter) report(phase string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > done {
		percent = done
	}
	if percent < r.last {
		percent = r.last
	}
	r.last = percent
	r.logger.Debug("progress", zap.String("phase", phase), zap.Int("percent", percent))
	if r.fn != nil {
		r.fn(phase, percent)
	}
}

// within maps a stage-local fraction in [0,1] into [lo,hi] and reports it.
func (r *reporter) within(phase string, lo, hi int) func(frac float64) {
	return func(frac float64) {
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		r.report(phase, lo+int(frac*float64(hi-lo)))
	}
}
