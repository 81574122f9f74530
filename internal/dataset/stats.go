package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
)

// Median returns the median of the non-missing, finite numbers of a
// numeric column. ok is false when there is nothing to take it from.
func Median(c *Column) (float64, bool) {
	if c.Numbers == nil {
		return 0, false
	}
	vals := make([]float64, 0, c.Len())
	for i, f := range c.Numbers {
		if c.Missing[i] || math.IsInf(f, 0) || math.IsNaN(f) {
			continue
		}
		vals = append(vals, f)
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}

// Frequency is a value and how often it occurs.
type Frequency struct {
	Value string
	Count int
}

// Frequencies counts non-missing values, most frequent first. Ties keep
// first-encountered order so the result is deterministic.
func Frequencies(c *Column) []Frequency {
	pos := make(map[string]int)
	var freqs []Frequency
	for i, v := range c.Values {
		if c.Missing[i] {
			continue
		}
		if p, ok := pos[v]; ok {
			freqs[p].Count++
			continue
		}
		pos[v] = len(freqs)
		freqs = append(freqs, Frequency{Value: v, Count: 1})
	}
	sort.SliceStable(freqs, func(a, b int) bool { return freqs[a].Count > freqs[b].Count })
	return freqs
}

// Mode returns the most frequent non-missing value, ties broken by first
// occurrence. ok is false for a fully empty column.
func Mode(c *Column) (string, bool) {
	freqs := Frequencies(c)
	if len(freqs) == 0 {
		return "", false
	}
	return freqs[0].Value, true
}

// Fingerprint returns a content hash of the dataset. Two datasets with the
// same column names, kinds and cell text share a fingerprint, regardless
// of how they were built.
func (d *Dataset) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(d.rows)))
	for i := range d.columns {
		c := &d.columns[i]
		h.Write([]byte{0x1e})
		h.Write([]byte(c.Name))
		h.Write([]byte{0x1f})
		h.Write([]byte(c.Kind))
		for j, v := range c.Values {
			if c.Missing[j] {
				h.Write([]byte{0x00})
				continue
			}
			h.Write([]byte{0x1f})
			h.Write([]byte(v))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
