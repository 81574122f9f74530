package quality

import "sync"

// MaxExternalCalls is the hard ceiling on scoring-service calls in one
// pipeline run. Budgets asking for more are clamped to it.
const MaxExternalCalls = 5

// Budget counts external calls for one pipeline run. A stage must call
// Take before each call it issues, never after.
type Budget struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewBudget creates a budget of limit calls, clamped to [0, MaxExternalCalls].
func NewBudget(limit int) *Budget {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxExternalCalls {
		limit = MaxExternalCalls
	}
	return &Budget{limit: limit}
}

// Take reserves one call. It returns false, reserving nothing, when the
// budget is spent.
func (b *Budget) Take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used >= b.limit {
		return false
	}
	b.used++
	return true
}

// Remaining returns how many calls are still allowed.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit - b.used
}

// Used returns how many calls have been reserved.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}
