// Package templates holds every sentence the assessment shows to a user.
//
// The set is fixed and enumerable: summaries, warnings and cleaning
// descriptions are all declared here and rendered through a Renderer.
// Only column names and counts can be interpolated (see Data), so no
// internal error text ever reaches a user-visible field.
//
// Every template must pass Audit against Blocklist before it ships;
// TestAllTemplatesPassAudit enforces this for the whole set.
package templates

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/dustin/go-humanize"
)

// Name identifies one template.
type Name string

// --- Summaries ---

const (
	SummaryReady           Name = "summary/ready"
	SummaryReadyWithFixes  Name = "summary/ready_with_fixes"
	SummaryNeedsTarget     Name = "summary/needs_target"
	SummaryTargetNotFound  Name = "summary/target_not_found"
	SummaryTooSmall        Name = "summary/too_small"
	SummarySingleValue     Name = "summary/single_value_target"
	SummaryNoFeatures      Name = "summary/no_features"
	SummaryTooMessy        Name = "summary/too_messy"
	SummaryWeakSignal      Name = "summary/weak_signal"
	SummaryCheckFailed     Name = "summary/check_failed"
	SummaryNothingToChange Name = "summary/nothing_changed"
	SummaryTargetGone      Name = "summary/target_gone"
)

// --- Warnings ---

const (
	WarnMissingValues   Name = "warning/missing_values"
	WarnTextEncoded     Name = "warning/text_encoded"
	WarnHighCardinality Name = "warning/high_cardinality"
	WarnColumnRemoved   Name = "warning/column_removed"
	WarnRowsWithIssues  Name = "warning/rows_with_issues"
	WarnSmallDataset    Name = "warning/small_dataset"
	WarnCheckSkipped    Name = "warning/check_skipped"
	WarnExtremeValues   Name = "warning/extreme_values"
)

// --- Cleaning descriptions ---

const (
	ActionFilledNumber    Name = "action/filled_number"
	ActionFilledText      Name = "action/filled_text"
	ActionRemovedEmpty    Name = "action/removed_empty"
	ActionRemovedSingle   Name = "action/removed_single_value"
	ActionRemovedByUser   Name = "action/removed_by_user"
	ActionGroupedRare     Name = "action/grouped_rare"
	ActionEncodedText     Name = "action/encoded_text"
	ActionDroppedRows     Name = "action/dropped_rows"
	ActionReplacedExtreme Name = "action/replaced_extreme"
)

// Data is the only input a template can see.
type Data struct {
	Column string
	Count  int
	Total  int
}

// sources is the complete template set.
var sources = map[Name]string{
	SummaryReady:           `Your data is ready to use! You can export it now.`,
	SummaryReadyWithFixes:  `Your data is ready after {{fixes .Count}}. You can export it now.`,
	SummaryNeedsTarget:     `Please select which column you want to predict or analyze.`,
	SummaryTargetNotFound:  `The column you selected was not found in your data. Please pick one of your columns.`,
	SummaryTooSmall:        `Your data has very few rows ({{count .Count}}). You need at least {{count .Total}} rows for a reliable check.`,
	SummarySingleValue:     `The column you selected has only one value - nothing to analyze.`,
	SummaryNoFeatures:      `Your data needs at least one column besides the one you selected.`,
	SummaryTooMessy:        `Your data has significant issues that need manual review.`,
	SummaryWeakSignal:      `The other columns say little about the column you selected. Adding more information may help.`,
	SummaryCheckFailed:     `We could not finish checking your data. Your data and earlier results are unchanged.`,
	SummaryNothingToChange: `Nothing has changed since the last check. Apply a fix first, then check again.`,
	SummaryTargetGone:      `The column you selected at the first check is no longer in your data. Your earlier results are unchanged.`,

	WarnMissingValues:   `Some cells were empty - we filled them with typical values.`,
	WarnTextEncoded:     `Text columns were converted to numbers for analysis.`,
	WarnHighCardinality: `Some columns had too many different values and were simplified.`,
	WarnColumnRemoved:   `{{count .Count}} {{plural .Count "column" "columns"}} couldn't be used and {{plural .Count "was" "were"}} removed.`,
	WarnRowsWithIssues:  `{{count .Count}} {{plural .Count "row" "rows"}} had no value in the column you selected and {{plural .Count "was" "were"}} left out.`,
	WarnSmallDataset:    `With few rows, results may be less reliable.`,
	WarnCheckSkipped:    `The quick quality check could not run, so this result is based on simple checks only.`,
	WarnExtremeValues:   `Some number cells held extreme values and were treated as empty.`,

	ActionFilledNumber:    `Filled {{count .Count}} empty {{plural .Count "cell" "cells"}} in '{{.Column}}' with a typical value`,
	ActionFilledText:      `Filled {{count .Count}} empty {{plural .Count "cell" "cells"}} in '{{.Column}}' with the most common value`,
	ActionRemovedEmpty:    `Removed '{{.Column}}' - too many empty cells`,
	ActionRemovedSingle:   `Removed '{{.Column}}' - only one value`,
	ActionRemovedByUser:   `Removed '{{.Column}}' as you asked`,
	ActionGroupedRare:     `Simplified '{{.Column}}' by grouping {{count .Count}} uncommon {{plural .Count "entry" "entries"}} as "other"`,
	ActionEncodedText:     `Converted text in '{{.Column}}' to numbers`,
	ActionDroppedRows:     `Left out {{count .Count}} {{plural .Count "row" "rows"}} with no value in '{{.Column}}'`,
	ActionReplacedExtreme: `Replaced {{count .Count}} extreme {{plural .Count "value" "values"}} in '{{.Column}}' with empty cells`,
}

var funcs = template.FuncMap{
	"count": func(n int) string { return humanize.Comma(int64(n)) },
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
	"fixes": func(n int) string {
		if n == 1 {
			return "one automatic fix"
		}
		return humanize.Comma(int64(n)) + " automatic fixes"
	},
}

// Renderer executes templates from the fixed set.
type Renderer struct {
	tmpls map[Name]*template.Template
}

// NewRenderer parses the whole template set.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{tmpls: make(map[Name]*template.Template, len(sources))}
	for name, src := range sources {
		t, err := template.New(string(name)).Funcs(funcs).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.tmpls[name] = t
	}
	return r, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name Name, data Data) (string, error) {
	t, ok := r.tmpls[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// Must renders a template that is known to exist, returning the raw
// source if execution fails.
func (r *Renderer) Must(name Name, data Data) string {
	s, err := r.Render(name, data)
	if err != nil {
		return sources[name]
	}
	return s
}

// Names returns every template name, sorted.
func Names() []Name {
	names := make([]Name, 0, len(sources))
	for n := range sources {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
