package quality

import (
	"math"

	"github.com/HendryAvila/datacheck/internal/dataset"
)

// maxClassLevels is the most distinct whole-number values a numeric
// target can have and still be treated as a set of classes.
const maxClassLevels = 10

// DetectTask decides what kind of prediction the target calls for.
// Text targets and numeric targets with a handful of whole-number values
// are classes; anything else is a quantity.
func DetectTask(target *dataset.Column) TaskType {
	if target.Kind != dataset.KindNumeric {
		return TaskClassification
	}
	if target.DistinctCount() > maxClassLevels {
		return TaskRegression
	}
	for i, f := range target.Numbers {
		if target.Missing[i] {
			continue
		}
		if f != math.Trunc(f) {
			return TaskRegression
		}
	}
	return TaskClassification
}
