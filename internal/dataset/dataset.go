// Package dataset holds the immutable tabular value the quality pipeline
// works on.
//
// A Dataset is an ordered list of named columns. Each column carries an
// explicit Kind decided once when the column is built, plus a missingness
// mask. Every transformation returns a new Dataset; callers never mutate
// a Dataset in place.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --- Column kind enum ---

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindUnknown     Kind = "unknown" // no non-missing cell to infer from
)

// missingTokens are cell values treated as empty at intake.
// Compared case-insensitively after trimming.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"#n/a": true,
	"nan":  true,
	"null": true,
	"none": true,
}

// IsMissingToken reports whether a raw cell should be treated as empty.
func IsMissingToken(raw string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(raw))]
}

var (
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrRaggedColumns   = errors.New("columns have different lengths")
	ErrNoColumns       = errors.New("dataset has no columns")
)

// --- Column ---

// Column is one named column. Values holds the canonical text of every
// cell ("" when missing). Numbers is populated only for numeric columns.
//
// Columns are shared between datasets derived from one another, so the
// slices must be treated as read-only.
type Column struct {
	Name    string
	Kind    Kind
	Values  []string
	Numbers []float64
	Missing []bool
}

// NewColumn builds a column from raw cell text and infers its kind.
// A column is numeric when every non-missing cell parses as a float.
func NewColumn(name string, cells []string) Column {
	values := make([]string, len(cells))
	missing := make([]bool, len(cells))
	present := 0
	numeric := true
	nums := make([]float64, len(cells))

	for i, raw := range cells {
		if IsMissingToken(raw) {
			missing[i] = true
			continue
		}
		v := strings.TrimSpace(raw)
		values[i] = v
		present++
		if numeric {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				numeric = false
				continue
			}
			nums[i] = f
		}
	}

	switch {
	case present == 0:
		return Column{Name: name, Kind: KindUnknown, Values: values, Missing: missing}
	case numeric:
		for i := range values {
			if !missing[i] {
				values[i] = FormatNumber(nums[i])
			}
		}
		return Column{Name: name, Kind: KindNumeric, Values: values, Numbers: nums, Missing: missing}
	default:
		return Column{Name: name, Kind: KindCategorical, Values: values, Missing: missing}
	}
}

// NumericColumn builds a numeric column from already-parsed values.
// missing may be nil when no cell is empty.
func NumericColumn(name string, nums []float64, missing []bool) Column {
	if missing == nil {
		missing = make([]bool, len(nums))
	}
	values := make([]string, len(nums))
	for i, f := range nums {
		if !missing[i] {
			values[i] = FormatNumber(f)
		}
	}
	return Column{Name: name, Kind: KindNumeric, Values: values, Numbers: nums, Missing: missing}
}

// CategoricalColumn builds a text column. Empty strings in values are
// recorded as missing.
func CategoricalColumn(name string, values []string) Column {
	out := make([]string, len(values))
	missing := make([]bool, len(values))
	for i, v := range values {
		if v == "" {
			missing[i] = true
			continue
		}
		out[i] = v
	}
	return Column{Name: name, Kind: KindCategorical, Values: out, Missing: missing}
}

// FormatNumber renders a float the way it is written on export.
func FormatNumber(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// MissingCount returns the number of empty cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// PresentCount returns the number of non-empty cells.
func (c *Column) PresentCount() int { return c.Len() - c.MissingCount() }

// MissingFraction returns the share of empty cells, 1 for an empty column.
func (c *Column) MissingFraction() float64 {
	if c.Len() == 0 {
		return 1
	}
	return float64(c.MissingCount()) / float64(c.Len())
}

// Distinct returns the distinct non-missing values in first-encountered order.
func (c *Column) Distinct() []string {
	seen := make(map[string]bool)
	var out []string
	for i, v := range c.Values {
		if c.Missing[i] || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// DistinctCount returns the number of distinct non-missing values.
func (c *Column) DistinctCount() int { return len(c.Distinct()) }

// --- Dataset ---

// Dataset is an immutable ordered collection of equally long columns.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New assembles a dataset, checking that names are unique and that every
// column has the same number of cells.
func New(columns ...Column) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	d := &Dataset{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
		rows:    columns[0].Len(),
	}
	for i, c := range columns {
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: %q has %d cells, want %d", ErrRaggedColumns, c.Name, c.Len(), d.rows)
		}
		d.columns[i] = c
		d.index[c.Name] = i
	}
	return d, nil
}

// FromRecords builds a dataset from a header and row-major cells.
// Short rows are padded with empty cells.
func FromRecords(header []string, rows [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrNoColumns
	}
	cols := make([]Column, len(header))
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		cols[j] = NewColumn(strings.TrimSpace(name), cells)
	}
	return New(cols...)
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// Width returns the column count.
func (d *Dataset) Width() int { return len(d.columns) }

// Names returns column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns the named column.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.columns[i], true
}

// ColumnAt returns the column at position i.
func (d *Dataset) ColumnAt(i int) *Column { return &d.columns[i] }

// WithColumn returns a copy where the column of the same name is replaced.
// The column is appended when the name is new.
func (d *Dataset) WithColumn(c Column) (*Dataset, error) {
	cols := make([]Column, 0, len(d.columns)+1)
	replaced := false
	for _, existing := range d.columns {
		if existing.Name == c.Name {
			cols = append(cols, c)
			replaced = true
			continue
		}
		cols = append(cols, existing)
	}
	if !replaced {
		cols = append(cols, c)
	}
	return New(cols...)
}

// WithoutColumn returns a copy without the named column. Removing the
// last column returns ErrNoColumns.
func (d *Dataset) WithoutColumn(name string) (*Dataset, error) {
	cols := make([]Column, 0, len(d.columns))
	for _, c := range d.columns {
		if c.Name != name {
			cols = append(cols, c)
		}
	}
	return New(cols...)
}

// SelectRows returns a copy keeping only the given row positions, in the
// given order.
func (d *Dataset) SelectRows(rows []int) *Dataset {
	cols := make([]Column, len(d.columns))
	for j, c := range d.columns {
		nc := Column{
			Name:    c.Name,
			Kind:    c.Kind,
			Values:  make([]string, len(rows)),
			Missing: make([]bool, len(rows)),
		}
		if c.Numbers != nil {
			nc.Numbers = make([]float64, len(rows))
		}
		for i, r := range rows {
			nc.Values[i] = c.Values[r]
			nc.Missing[i] = c.Missing[r]
			if c.Numbers != nil {
				nc.Numbers[i] = c.Numbers[r]
			}
		}
		cols[j] = nc
	}
	out, _ := New(cols...) // same names and equal lengths by construction
	return out
}

// Records returns the header and row-major cell text, as written on export.
func (d *Dataset) Records() ([]string, [][]string) {
	rows := make([][]string, d.rows)
	for i := range rows {
		row := make([]string, len(d.columns))
		for j := range d.columns {
			row[j] = d.columns[j].Values[i]
		}
		rows[i] = row
	}
	return d.Names(), rows
}

// TotalMissing returns the number of empty cells across all columns.
func (d *Dataset) TotalMissing() int {
	n := 0
	for i := range d.columns {
		n += d.columns[i].MissingCount()
	}
	return n
}
