package quality

import (
	"math"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/templates"
)

// Column policy thresholds.
const (
	// MaxMissingFraction is the share of empty cells above which a column
	// is dropped instead of filled.
	MaxMissingFraction = 0.90

	// MaxCategories is the distinct-value count above which a text column
	// is simplified.
	MaxCategories = 100

	// KeptCategories is how many of the most frequent values survive
	// simplification; the rest become OtherLabel.
	KeptCategories = 99

	// OtherLabel is the only sentinel value the cleaner introduces.
	OtherLabel = "other"
)

// Cleaner applies the deterministic column repairs.
type Cleaner struct {
	renderer *templates.Renderer
}

// NewCleaner creates a Cleaner that describes its actions with renderer.
func NewCleaner(renderer *templates.Renderer) *Cleaner {
	return &Cleaner{renderer: renderer}
}

// Clean repairs every feature column and returns a new dataset plus the
// ordered list of actions taken. The target column is never removed or
// encoded; rows with no target value are left out first. emit receives
// the fraction of columns processed and may be nil.
//
// Clean is deterministic: the same input always yields the same output
// and the same actions in the same order. It makes no external calls.
func (c *Cleaner) Clean(ds *dataset.Dataset, target string, emit func(frac float64)) (*dataset.Dataset, []CleaningAction) {
	if emit == nil {
		emit = func(float64) {}
	}
	var actions []CleaningAction

	ds, dropped := dropRowsWithoutTarget(ds, target)
	if dropped > 0 {
		actions = append(actions, c.action(ActionRemoveRows, templates.ActionDroppedRows, target, dropped))
	}

	total := ds.Width() - 1
	kept := make([]dataset.Column, 0, ds.Width())
	processed := 0

	for i := 0; i < ds.Width(); i++ {
		col := *ds.ColumnAt(i)
		if col.Name == target {
			kept = append(kept, col)
			continue
		}
		if total > 0 {
			emit(float64(processed) / float64(total))
		}
		processed++

		cleaned, colActions, keep := c.cleanColumn(col)
		actions = append(actions, colActions...)
		if keep {
			kept = append(kept, cleaned)
		}
	}
	emit(1)

	out, err := dataset.New(kept...)
	if err != nil {
		// The target column is always kept and all columns share one
		// length, so this only fails on a programming error.
		panic("quality: rebuilding cleaned dataset: " + err.Error())
	}
	return out, actions
}

// cleanColumn applies the per-column policy in priority order. keep is
// false when the column was removed; removal stops all later steps.
func (c *Cleaner) cleanColumn(col dataset.Column) (dataset.Column, []CleaningAction, bool) {
	var actions []CleaningAction

	col, extreme := blankNonFinite(col)

	if col.MissingFraction() > MaxMissingFraction {
		return col, []CleaningAction{
			c.action(ActionRemoveColumn, templates.ActionRemovedEmpty, col.Name, col.PresentCount()),
		}, false
	}
	if col.DistinctCount() == 1 {
		return col, []CleaningAction{
			c.action(ActionRemoveColumn, templates.ActionRemovedSingle, col.Name, col.PresentCount()),
		}, false
	}

	if extreme > 0 {
		actions = append(actions, c.action(ActionConvertType, templates.ActionReplacedExtreme, col.Name, extreme))
	}

	if n := col.MissingCount(); n > 0 {
		var tmpl templates.Name
		col, tmpl = fillMissing(col)
		actions = append(actions, c.action(ActionFillMissing, tmpl, col.Name, n))
	}

	if col.Kind != dataset.KindCategorical {
		return col, actions, true
	}

	if col.DistinctCount() > MaxCategories {
		var relabeled int
		col, relabeled = groupRare(col)
		actions = append(actions, c.action(ActionGroupRareCategories, templates.ActionGroupedRare, col.Name, relabeled))
	}

	col = encode(col)
	actions = append(actions, c.action(ActionEncodeCategory, templates.ActionEncodedText, col.Name, col.Len()))

	return col, actions, true
}

func (c *Cleaner) action(typ ActionType, tmpl templates.Name, column string, rows int) CleaningAction {
	return CleaningAction{
		ActionType:   typ,
		Column:       column,
		Description:  c.renderer.Must(tmpl, templates.Data{Column: column, Count: rows}),
		RowsAffected: rows,
	}
}

// dropRowsWithoutTarget keeps only rows that have a usable target value.
func dropRowsWithoutTarget(ds *dataset.Dataset, target string) (*dataset.Dataset, int) {
	col, ok := ds.Column(target)
	if !ok {
		return ds, 0
	}
	keep := make([]int, 0, ds.Rows())
	for i := 0; i < col.Len(); i++ {
		if usableTarget(col, i) {
			keep = append(keep, i)
		}
	}
	if len(keep) == ds.Rows() {
		return ds, 0
	}
	return ds.SelectRows(keep), ds.Rows() - len(keep)
}

// blankNonFinite turns infinite numbers into empty cells.
func blankNonFinite(col dataset.Column) (dataset.Column, int) {
	if col.Kind != dataset.KindNumeric {
		return col, 0
	}
	n := 0
	for i, f := range col.Numbers {
		if !col.Missing[i] && !isFinite(f) {
			n++
		}
	}
	if n == 0 {
		return col, 0
	}
	nums := make([]float64, len(col.Numbers))
	missing := make([]bool, len(col.Missing))
	for i, f := range col.Numbers {
		if col.Missing[i] || !isFinite(f) {
			missing[i] = true
			continue
		}
		nums[i] = f
	}
	return dataset.NumericColumn(col.Name, nums, missing), n
}

// fillMissing fills numeric gaps with the median and text gaps with the
// most common value.
func fillMissing(col dataset.Column) (dataset.Column, templates.Name) {
	if col.Kind == dataset.KindNumeric {
		median, _ := dataset.Median(&col)
		nums := make([]float64, len(col.Numbers))
		for i, f := range col.Numbers {
			if col.Missing[i] {
				nums[i] = median
				continue
			}
			nums[i] = f
		}
		return dataset.NumericColumn(col.Name, nums, nil), templates.ActionFilledNumber
	}

	mode, _ := dataset.Mode(&col)
	values := make([]string, len(col.Values))
	for i, v := range col.Values {
		if col.Missing[i] {
			values[i] = mode
			continue
		}
		values[i] = v
	}
	return dataset.CategoricalColumn(col.Name, values), templates.ActionFilledText
}

// groupRare keeps the KeptCategories most frequent values and relabels
// every other cell to OtherLabel.
func groupRare(col dataset.Column) (dataset.Column, int) {
	freqs := dataset.Frequencies(&col)
	top := make(map[string]bool, KeptCategories)
	for i := 0; i < KeptCategories && i < len(freqs); i++ {
		top[freqs[i].Value] = true
	}

	values := make([]string, len(col.Values))
	relabeled := 0
	for i, v := range col.Values {
		if col.Missing[i] || top[v] {
			values[i] = v
			continue
		}
		values[i] = OtherLabel
		if v != OtherLabel {
			relabeled++
		}
	}
	return dataset.CategoricalColumn(col.Name, values), relabeled
}

// encode replaces text with dense integer codes assigned in
// first-encountered order.
func encode(col dataset.Column) dataset.Column {
	codes := make(map[string]int)
	nums := make([]float64, len(col.Values))
	missing := make([]bool, len(col.Values))
	for i, v := range col.Values {
		if col.Missing[i] {
			missing[i] = true
			continue
		}
		code, ok := codes[v]
		if !ok {
			code = len(codes)
			codes[v] = code
		}
		nums[i] = float64(code)
	}
	return dataset.NumericColumn(col.Name, nums, missing)
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
