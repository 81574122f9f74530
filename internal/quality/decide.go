package quality

import "github.com/HendryAvila/datacheck/internal/dataset"

const (
	// ScoreThreshold is the minimum quick-check score, on the 0..100
	// scale, for a dataset to be ready.
	ScoreThreshold = 50.0

	// FallbackMaxRemovedFraction is the largest share of the original
	// feature columns the cleaner may remove while the dataset is still
	// called ready. It is only used when no score is available.
	FallbackMaxRemovedFraction = 0.5
)

// Shape describes the dataset before and after cleaning, for decisions
// that depend on how much structure survived.
type Shape struct {
	OriginalFeatures int
	CleanedFeatures  int
	CleanedRows      int
}

// ShapeOf computes the Shape of a run.
func ShapeOf(original, cleaned *dataset.Dataset, target string) Shape {
	s := Shape{OriginalFeatures: original.Width(), CleanedRows: original.Rows()}
	if original.Has(target) {
		s.OriginalFeatures--
	}
	if cleaned != nil {
		s.CleanedFeatures = cleaned.Width()
		if cleaned.Has(target) {
			s.CleanedFeatures--
		}
		s.CleanedRows = cleaned.Rows()
	}
	return s
}

// Decide returns the binary verdict.
//
// Any blocking issue means needs_work. With a score, the data is ready
// iff the score reaches ScoreThreshold. Without one, the data is ready
// iff at least one feature column survived, the cleaned data still has
// MinRows rows, and removed feature columns are at most
// FallbackMaxRemovedFraction of the original feature columns.
func Decide(issues []Issue, actions []CleaningAction, score *float64, shape Shape) (bool, Status) {
	if len(issues) > 0 {
		return false, StatusNeedsWork
	}
	if shape.CleanedFeatures == 0 || shape.CleanedRows < MinRows {
		return false, StatusNeedsWork
	}
	if score != nil {
		if *score >= ScoreThreshold {
			return true, StatusReady
		}
		return false, StatusNeedsWork
	}

	removed := 0
	for _, a := range actions {
		if a.ActionType == ActionRemoveColumn {
			removed++
		}
	}
	if shape.OriginalFeatures > 0 &&
		float64(removed)/float64(shape.OriginalFeatures) > FallbackMaxRemovedFraction {
		return false, StatusNeedsWork
	}
	return true, StatusReady
}
