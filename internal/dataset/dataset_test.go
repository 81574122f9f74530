package dataset

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

// --- Kind inference ---

func TestNewColumn_InfersKind(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  Kind
	}{
		{"all numbers", []string{"1", "2.5", "-3"}, KindNumeric},
		{"numbers with gaps", []string{"1", "", "NA", "4"}, KindNumeric},
		{"mixed text", []string{"1", "two", "3"}, KindCategorical},
		{"text", []string{"red", "blue"}, KindCategorical},
		{"all empty", []string{"", "null", "N/A"}, KindUnknown},
		{"infinity is numeric", []string{"1", "inf"}, KindNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewColumn("c", tt.cells)
			if c.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", c.Kind, tt.want)
			}
		})
	}
}

func TestNewColumn_MissingMask(t *testing.T) {
	c := NewColumn("age", []string{"10", "", " nan ", "12"})

	if got := c.MissingCount(); got != 2 {
		t.Errorf("MissingCount = %d, want 2", got)
	}
	if !c.Missing[1] || !c.Missing[2] {
		t.Errorf("Missing = %v, want cells 1 and 2 marked", c.Missing)
	}
	if c.Numbers[3] != 12 {
		t.Errorf("Numbers[3] = %v, want 12", c.Numbers[3])
	}
}

func TestNewColumn_CanonicalNumberText(t *testing.T) {
	c := NewColumn("n", []string{"1.0", "1", "02"})
	if got := c.DistinctCount(); got != 2 {
		t.Errorf("DistinctCount = %d, want 2 (1.0 and 1 are the same number)", got)
	}
	if c.Values[2] != "2" {
		t.Errorf("Values[2] = %q, want 2", c.Values[2])
	}
}

func TestColumn_DistinctFirstEncounteredOrder(t *testing.T) {
	c := NewColumn("color", []string{"blue", "red", "", "blue", "green"})
	got := strings.Join(c.Distinct(), ",")
	if got != "blue,red,green" {
		t.Errorf("Distinct = %s, want blue,red,green", got)
	}
}

// --- Dataset construction ---

func TestNew_RejectsDuplicateNames(t *testing.T) {
	_, err := New(NewColumn("a", []string{"1"}), NewColumn("a", []string{"2"}))
	if !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("err = %v, want ErrDuplicateColumn", err)
	}
}

func TestNew_RejectsRaggedColumns(t *testing.T) {
	_, err := New(NewColumn("a", []string{"1", "2"}), NewColumn("b", []string{"2"}))
	if !errors.Is(err, ErrRaggedColumns) {
		t.Errorf("err = %v, want ErrRaggedColumns", err)
	}
}

func TestFromRecords_PadsShortRows(t *testing.T) {
	d, err := FromRecords([]string{"a", "b"}, [][]string{{"1", "x"}, {"2"}})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	b, _ := d.Column("b")
	if !b.Missing[1] {
		t.Error("short row should leave the trailing cell empty")
	}
}

func TestDataset_TransformationsDoNotMutate(t *testing.T) {
	d, err := FromRecords([]string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}, {"3", "z"}})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	before := d.Fingerprint()

	if _, err := d.WithoutColumn("a"); err != nil {
		t.Fatalf("WithoutColumn: %v", err)
	}
	if _, err := d.WithColumn(NumericColumn("a", []float64{9, 9, 9}, nil)); err != nil {
		t.Fatalf("WithColumn: %v", err)
	}
	_ = d.SelectRows([]int{2, 0})

	if d.Fingerprint() != before {
		t.Error("original dataset changed after deriving new datasets")
	}
	if d.Width() != 2 || d.Rows() != 3 {
		t.Errorf("shape = %dx%d, want 3x2", d.Rows(), d.Width())
	}
}

func TestDataset_SelectRowsKeepsOrder(t *testing.T) {
	d, _ := FromRecords([]string{"a"}, [][]string{{"1"}, {"2"}, {"3"}})
	sel := d.SelectRows([]int{2, 0})
	a, _ := sel.Column("a")
	if a.Numbers[0] != 3 || a.Numbers[1] != 1 {
		t.Errorf("Numbers = %v, want [3 1]", a.Numbers)
	}
}

func TestDataset_WithoutLastColumn(t *testing.T) {
	d, _ := FromRecords([]string{"a"}, [][]string{{"1"}})
	if _, err := d.WithoutColumn("a"); !errors.Is(err, ErrNoColumns) {
		t.Errorf("err = %v, want ErrNoColumns", err)
	}
}

// --- Fingerprint ---

func TestFingerprint_ContentDerived(t *testing.T) {
	a, _ := FromRecords([]string{"x", "y"}, [][]string{{"1", "a"}, {"2", "b"}})
	b, _ := New(NumericColumn("x", []float64{1, 2}, nil), CategoricalColumn("y", []string{"a", "b"}))
	c, _ := FromRecords([]string{"x", "y"}, [][]string{{"1", "a"}, {"2", "c"}})

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("same content built two ways should share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different content should not share a fingerprint")
	}
}

func TestFingerprint_MissingDiffersFromEmptyText(t *testing.T) {
	a, _ := New(CategoricalColumn("x", []string{"", "a"}))
	b, _ := New(Column{Name: "x", Kind: KindCategorical, Values: []string{"", "a"}, Missing: []bool{false, false}})
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("a missing cell and an empty present cell should hash differently")
	}
}

// --- Stats ---

func TestMedian(t *testing.T) {
	tests := []struct {
		cells []string
		want  float64
	}{
		{[]string{"3", "1", "2"}, 2},
		{[]string{"4", "1", "3", "2"}, 2.5},
		{[]string{"1", "", "5", "inf"}, 3},
	}
	for _, tt := range tests {
		c := NewColumn("n", tt.cells)
		got, ok := Median(&c)
		if !ok || got != tt.want {
			t.Errorf("Median(%v) = %v, %v; want %v", tt.cells, got, ok, tt.want)
		}
	}
}

func TestMedian_EmptyColumn(t *testing.T) {
	c := NumericColumn("n", []float64{0, 0}, []bool{true, true})
	if _, ok := Median(&c); ok {
		t.Error("Median of an empty column should report ok=false")
	}
}

func TestMode_TieBrokenByFirstEncounter(t *testing.T) {
	c := NewColumn("c", []string{"b", "a", "a", "b", "c"})
	got, ok := Mode(&c)
	if !ok || got != "b" {
		t.Errorf("Mode = %q, want b", got)
	}
}

func TestFrequencies_SortedStable(t *testing.T) {
	c := NewColumn("c", []string{"x", "y", "z", "z", "y", "w"})
	freqs := Frequencies(&c)
	var order []string
	for _, f := range freqs {
		order = append(order, f.Value)
	}
	if got := strings.Join(order, ","); got != "y,z,x,w" {
		t.Errorf("order = %s, want y,z,x,w", got)
	}
}

// --- CSV ---

func TestReadCSV_RoundTripsShape(t *testing.T) {
	in := "\ufeffage,city,label\n30,Paris,yes\n,Lyon,no\n41,,yes\n"
	d, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if d.Rows() != 3 || d.Width() != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", d.Rows(), d.Width())
	}
	if !d.Has("age") {
		t.Error("byte order mark should be stripped from the first header")
	}
	age, _ := d.Column("age")
	if age.Kind != KindNumeric || age.MissingCount() != 1 {
		t.Errorf("age kind=%s missing=%d, want numeric/1", age.Kind, age.MissingCount())
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, d); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "age,city,label\n30,Paris,yes\n,Lyon,no\n41,,yes\n"
	if buf.String() != want {
		t.Errorf("WriteCSV =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(3); got != "3" {
		t.Errorf("FormatNumber(3) = %q", got)
	}
	if got := FormatNumber(math.Inf(-1)); got != "-inf" {
		t.Errorf("FormatNumber(-Inf) = %q", got)
	}
}
