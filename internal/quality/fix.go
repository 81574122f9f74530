package quality

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/datacheck/internal/dataset"
	"github.com/HendryAvila/datacheck/internal/templates"
)

var (
	ErrUnknownColumn   = errors.New("column not found")
	ErrNothingToFix    = errors.New("nothing to fix in this column")
	ErrUnsupportedFix  = errors.New("unsupported fix")
	ErrTargetProtected = errors.New("the selected column cannot be changed this way")
)

// Fix is a repair the user asks for between assessments.
type Fix struct {
	Type   ActionType `json:"type"`
	Column string     `json:"column"`
}

// SupportedFixes lists the fix types ApplyFix accepts.
var SupportedFixes = []ActionType{
	ActionRemoveColumn,
	ActionFillMissing,
	ActionGroupRareCategories,
	ActionEncodeCategory,
	ActionRemoveRows,
}

// ApplyFix applies one user-requested repair and returns the new dataset
// and the action that logs it. The input dataset is not modified. The
// target column can have rows removed but cannot be dropped or encoded.
func (c *Cleaner) ApplyFix(ds *dataset.Dataset, fix Fix, target string) (*dataset.Dataset, CleaningAction, error) {
	col, ok := ds.Column(fix.Column)
	if !ok {
		return nil, CleaningAction{}, fmt.Errorf("%w: %q", ErrUnknownColumn, fix.Column)
	}
	isTarget := fix.Column == target

	switch fix.Type {
	case ActionRemoveColumn:
		if isTarget {
			return nil, CleaningAction{}, ErrTargetProtected
		}
		out, err := ds.WithoutColumn(fix.Column)
		if err != nil {
			return nil, CleaningAction{}, fmt.Errorf("removing %q: %w", fix.Column, err)
		}
		return out, c.action(ActionRemoveColumn, templates.ActionRemovedByUser, fix.Column, col.PresentCount()), nil

	case ActionFillMissing:
		if isTarget {
			return nil, CleaningAction{}, ErrTargetProtected
		}
		converted, _ := blankNonFinite(*col)
		n := converted.MissingCount()
		if n == 0 || n == converted.Len() {
			return nil, CleaningAction{}, ErrNothingToFix
		}
		filled, tmpl := fillMissing(converted)
		return c.replace(ds, filled, ActionFillMissing, tmpl, n)

	case ActionGroupRareCategories:
		if col.Kind != dataset.KindCategorical || col.DistinctCount() <= MaxCategories {
			return nil, CleaningAction{}, ErrNothingToFix
		}
		grouped, relabeled := groupRare(*col)
		return c.replace(ds, grouped, ActionGroupRareCategories, templates.ActionGroupedRare, relabeled)

	case ActionEncodeCategory:
		if isTarget {
			return nil, CleaningAction{}, ErrTargetProtected
		}
		if col.Kind != dataset.KindCategorical {
			return nil, CleaningAction{}, ErrNothingToFix
		}
		return c.replace(ds, encode(*col), ActionEncodeCategory, templates.ActionEncodedText, col.Len())

	case ActionRemoveRows:
		keep := make([]int, 0, ds.Rows())
		for i := 0; i < col.Len(); i++ {
			if !col.Missing[i] {
				keep = append(keep, i)
			}
		}
		removed := ds.Rows() - len(keep)
		if removed == 0 {
			return nil, CleaningAction{}, ErrNothingToFix
		}
		return ds.SelectRows(keep), c.action(ActionRemoveRows, templates.ActionDroppedRows, fix.Column, removed), nil

	default:
		return nil, CleaningAction{}, fmt.Errorf("%w: %q", ErrUnsupportedFix, fix.Type)
	}
}

func (c *Cleaner) replace(ds *dataset.Dataset, col dataset.Column, typ ActionType, tmpl templates.Name, rows int) (*dataset.Dataset, CleaningAction, error) {
	out, err := ds.WithColumn(col)
	if err != nil {
		return nil, CleaningAction{}, fmt.Errorf("replacing %q: %w", col.Name, err)
	}
	return out, c.action(typ, tmpl, col.Name, rows), nil
}
