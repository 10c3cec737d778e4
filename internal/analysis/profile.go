// Package analysis computes descriptive profiles of a dataset.Table.
package analysis

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/tabex/internal/dataset"
)

// Stat is a statistic that may be not computable, e.g. the mean of a column
// with no present values. Invalid stats encode as null.
type Stat struct {
	Value float64
	Valid bool
}

func valid(v float64) Stat { return Stat{Value: v, Valid: true} }

// finite reports whether s holds a value JSON can represent.
func (s Stat) finite() bool {
	return s.Valid && !math.IsInf(s.Value, 0) && !math.IsNaN(s.Value)
}

// MarshalJSON encodes invalid and non-finite stats as null.
func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.finite() {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// MarshalYAML encodes invalid and non-finite stats as null.
func (s Stat) MarshalYAML() (interface{}, error) {
	if !s.finite() {
		return nil, nil
	}
	return s.Value, nil
}

// NumericSummary holds describe-style statistics of a numeric column.
type NumericSummary struct {
	Count int  `json:"count" yaml:"count"`
	Mean  Stat `json:"mean" yaml:"mean"`
	Std   Stat `json:"std" yaml:"std"`
	Min   Stat `json:"min" yaml:"min"`
	P25   Stat `json:"p25" yaml:"p25"`
	P50   Stat `json:"p50" yaml:"p50"`
	P75   Stat `json:"p75" yaml:"p75"`
	Max   Stat `json:"max" yaml:"max"`
}

// CategoryCount is a value with its number of occurrences.
type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// ColumnProfile summarizes one column.
type ColumnProfile struct {
	Name      string          `json:"name" yaml:"name"`
	Kind      dataset.Kind    `json:"kind" yaml:"kind"`
	NonNull   int             `json:"non_null" yaml:"non_null"`
	Missing   int             `json:"missing" yaml:"missing"`
	Unique    int             `json:"unique" yaml:"unique"`
	Numeric   *NumericSummary `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	TopValues []CategoryCount `json:"top_values,omitempty" yaml:"top_values,omitempty"`
}

// NumericPreview holds the leading values of one numeric column. Missing
// cells are invalid stats.
type NumericPreview struct {
	Column string `json:"column" yaml:"column"`
	Values []Stat `json:"values" yaml:"values"`
}

// Profile is a read-only summary of a table at the time it was computed.
type Profile struct {
	Rows    int              `json:"rows" yaml:"rows"`
	Cols    int              `json:"cols" yaml:"cols"`
	Columns []ColumnProfile  `json:"columns" yaml:"columns"`
	Preview []NumericPreview `json:"preview,omitempty" yaml:"preview,omitempty"`
}

const (
	maxTopValues = 8
	// previewRows is how many leading rows the visual section plots.
	previewRows = 5
)

// Describe profiles every column of t. It never modifies t.
func Describe(t *dataset.Table) *Profile {
	rows, cols := t.Shape()
	p := &Profile{Rows: rows, Cols: cols, Columns: make([]ColumnProfile, 0, cols)}
	n := rows
	if n > previewRows {
		n = previewRows
	}
	for _, c := range t.Columns() {
		p.Columns = append(p.Columns, describeColumn(c))
		if c.Kind == dataset.KindNumeric && n > 0 {
			p.Preview = append(p.Preview, previewColumn(c, n))
		}
	}
	return p
}

func previewColumn(c *dataset.Column, n int) NumericPreview {
	pv := NumericPreview{Column: c.Name, Values: make([]Stat, n)}
	for i, v := range c.Values[:n] {
		if !v.Missing {
			pv.Values[i] = valid(v.Num)
		}
	}
	return pv
}

func describeColumn(c *dataset.Column) ColumnProfile {
	cp := ColumnProfile{Name: c.Name, Kind: c.Kind}
	counts := map[string]int{}
	var order []string
	var nums []float64
	for _, v := range c.Values {
		if v.Missing {
			cp.Missing++
			continue
		}
		cp.NonNull++
		k := valueKey(c.Kind, v)
		if _, seen := counts[k]; !seen {
			order = append(order, v.Text)
		}
		counts[k]++
		if c.Kind == dataset.KindNumeric {
			nums = append(nums, v.Num)
		}
	}
	cp.Unique = len(counts)
	switch c.Kind {
	case dataset.KindNumeric:
		cp.Numeric = summarize(nums)
	case dataset.KindCategorical:
		cp.TopValues = topValues(counts, order)
	}
	return cp
}

// valueKey identifies equal values: numerically for numeric columns, by
// instant for datetime columns and by text otherwise.
func valueKey(kind dataset.Kind, v dataset.Value) string {
	switch kind {
	case dataset.KindNumeric:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case dataset.KindDatetime:
		return v.Time.UTC().Format("2006-01-02T15:04:05.999999999")
	default:
		return v.Text
	}
}

// summarize computes count, mean, sample std (N-1), min, max and linearly
// interpolated quartiles. Mean and std use Welford's update.
func summarize(vals []float64) *NumericSummary {
	s := &NumericSummary{Count: len(vals)}
	if len(vals) == 0 {
		return s
	}
	var mean, m2 float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, x := range vals {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	s.Mean = valid(mean)
	if len(vals) > 1 {
		s.Std = valid(math.Sqrt(m2 / float64(len(vals)-1)))
	}
	s.Min = valid(lo)
	s.Max = valid(hi)
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.P25 = valid(quantile(sorted, 0.25))
	s.P50 = valid(quantile(sorted, 0.5))
	s.P75 = valid(quantile(sorted, 0.75))
	return s
}

func topValues(counts map[string]int, order []string) []CategoryCount {
	tops := make([]CategoryCount, 0, len(order))
	for _, v := range order {
		tops = append(tops, CategoryCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > maxTopValues {
		tops = tops[:maxTopValues]
	}
	return tops
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Column returns the profile of the named column.
func (p *Profile) Column(name string) (*ColumnProfile, bool) {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i], true
		}
	}
	return nil, false
}

// Dtype pairs a column with its kind.
type Dtype struct {
	Name string       `json:"name" yaml:"name"`
	Kind dataset.Kind `json:"kind" yaml:"kind"`
}

// Dtypes lists column kinds in table order.
func (p *Profile) Dtypes() []Dtype {
	out := make([]Dtype, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = Dtype{Name: c.Name, Kind: c.Kind}
	}
	return out
}

// DistinctValues returns the distinct present values of a column in order
// of first appearance, as they appeared in the source.
func DistinctValues(t *dataset.Table, column string) ([]string, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range c.Values {
		if v.Missing {
			continue
		}
		k := valueKey(c.Kind, v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v.Text)
	}
	return out, nil
}
