package chart

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabex/internal/analysis"
	"github.com/KaramelBytes/tabex/internal/dataset"
	"github.com/KaramelBytes/tabex/internal/filter"
	"github.com/KaramelBytes/tabex/internal/loader"
)

const peopleCSV = `name,age,city
Ann,31,NYC
Bob,,LA
Cid,45,NY
Dee,28,NYC
Ann,52,Boston
`

func people(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := loader.Load([]byte(peopleCSV), "people.csv")
	require.NoError(t, err)
	return tbl
}

func TestScenarioProfileFilterCount(t *testing.T) {
	tbl := people(t)

	p := analysis.Describe(tbl)
	age, ok := p.Column("age")
	require.True(t, ok)
	assert.Equal(t, 1, age.Missing)
	require.NotNil(t, age.Numeric)
	assert.Equal(t, 4, age.Numeric.Count)
	assert.InDelta(t, 39.0, age.Numeric.Mean.Value, 1e-9)

	ny, err := filter.Apply(tbl, filter.Predicate{Column: "city", Pattern: "NY"})
	require.NoError(t, err)
	assert.Equal(t, 3, ny.NumRows())

	d, err := Build(ny, Request{Mode: ModeCategorical, Kind: KindCount, Columns: []string{"city"}, Target: "name"})
	require.NoError(t, err)
	require.Len(t, d.Series, 1)
	assert.Equal(t, []Triple{
		{Group: "NYC", Category: "Ann", Count: 1},
		{Group: "NY", Category: "Cid", Count: 1},
		{Group: "NYC", Category: "Dee", Count: 1},
	}, d.Series[0].Counts)
	assert.Equal(t, 3, d.Total)
}

func TestBoxOnTextXIsIncompatible(t *testing.T) {
	_, err := Build(people(t), Request{Mode: ModeNumeric, Kind: KindBox, X: "name", Y: "age"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompatiblePlotKind))
	var ke *KindError
	require.True(t, errors.As(err, &ke))
	assert.Equal(t, "name", ke.Column)
	assert.Equal(t, dataset.KindCategorical, ke.ColumnKind)
	assert.Equal(t, KindBox, ke.Kind)
}

func TestNumericModePoints(t *testing.T) {
	style := Style{LabelRotation: 45, Width: 8, Height: 4, Palette: "viridis"}
	d, err := Build(people(t), Request{Mode: ModeNumeric, Kind: KindBar, X: "name", Y: "age", Target: "city", Style: style})
	require.NoError(t, err)
	require.Len(t, d.Points, 5)
	assert.Equal(t, style, d.Style)
	assert.Equal(t, "Ann", d.Points[0].X)
	require.NotNil(t, d.Points[0].Y)
	assert.Equal(t, 31.0, *d.Points[0].Y)
	assert.Nil(t, d.Points[1].Y, "missing y stays a gap")
	assert.Equal(t, "LA", d.Points[1].Hue)
	for i, p := range d.Points {
		assert.Equal(t, i, p.Row)
	}
	assert.Empty(t, d.Series)
}

func TestNumericBoxWithNumericAxes(t *testing.T) {
	tbl, err := dataset.FromRecords([]string{"a", "b"}, [][]string{{"1", "2"}, {"3", ""}})
	require.NoError(t, err)
	for _, k := range []Kind{KindBox, KindViolin, KindLine, KindArea} {
		d, err := Build(tbl, Request{Mode: ModeNumeric, Kind: k, X: "a", Y: "b"})
		require.NoError(t, err, k.String())
		assert.Equal(t, 1.0, d.Points[0].X)
	}
}

func TestCategoricalLabels(t *testing.T) {
	tbl := people(t)
	d, err := Build(tbl, Request{Mode: ModeCategorical, Kind: KindBar, X: "city", Labels: LabelPercent})
	require.NoError(t, err)
	assert.Equal(t, LabelPercent, d.Labels)
	assert.Equal(t, []Triple{
		{Group: "NYC", Count: 2, Label: "40.0%"},
		{Group: "LA", Count: 1, Label: "20.0%"},
		{Group: "NY", Count: 1, Label: "20.0%"},
		{Group: "Boston", Count: 1, Label: "20.0%"},
	}, d.Series[0].Counts)

	d, err = Build(tbl, Request{Mode: ModeCategorical, Kind: KindCount, X: "city", Labels: LabelCount})
	require.NoError(t, err)
	assert.Equal(t, "2", d.Series[0].Counts[0].Label)

	d, err = Build(tbl, Request{Mode: ModeCategorical, Kind: KindCount, X: "city"})
	require.NoError(t, err)
	assert.Equal(t, LabelNone, d.Labels)
	assert.Empty(t, d.Series[0].Counts[0].Label)
}

func TestCategoricalSkipsMissingPairs(t *testing.T) {
	tbl, err := dataset.FromRecords([]string{"g", "h"}, [][]string{{"a", "x"}, {"", "x"}, {"a", ""}, {"b", "y"}, {"a", "x"}})
	require.NoError(t, err)
	d, err := Build(tbl, Request{Mode: ModeCategorical, Kind: KindCount, X: "g", Target: "h"})
	require.NoError(t, err)
	assert.Equal(t, []Triple{
		{Group: "a", Category: "x", Count: 2},
		{Group: "b", Category: "y", Count: 1},
	}, d.Series[0].Counts)
}

func TestCategoricalMultipleColumns(t *testing.T) {
	tbl, err := dataset.FromRecords([]string{"g", "k", "v"}, [][]string{{"a", "p", "1"}, {"b", "q", "2"}, {"a", "q", "3"}})
	require.NoError(t, err)
	d, err := Build(tbl, Request{Mode: ModeCategorical, Kind: KindViolin, Columns: []string{"g", "k"}, Target: "v"})
	require.NoError(t, err)
	require.Len(t, d.Series, 2)
	assert.Equal(t, []Group{{Category: "a", Values: []float64{1, 3}}, {Category: "b", Values: []float64{2}}}, d.Series[0].Groups)
	assert.Equal(t, []Group{{Category: "p", Values: []float64{1}}, {Category: "q", Values: []float64{2, 3}}}, d.Series[1].Groups)
	assert.Equal(t, "v", d.Y)
}

func TestCategoricalBoxNeedsNumericTarget(t *testing.T) {
	_, err := Build(people(t), Request{Mode: ModeCategorical, Kind: KindBox, X: "city", Target: "name"})
	var ke *KindError
	require.True(t, errors.As(err, &ke), "got %v", err)
	assert.Equal(t, "name", ke.Column)

	d, err := Build(people(t), Request{Mode: ModeCategorical, Kind: KindBox, X: "city", Y: "age"})
	require.NoError(t, err)
	assert.Equal(t, []Group{
		{Category: "NYC", Values: []float64{31, 28}},
		{Category: "NY", Values: []float64{45}},
		{Category: "Boston", Values: []float64{52}},
	}, d.Series[0].Groups)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown x", Request{Mode: ModeNumeric, Kind: KindLine, X: "nope", Y: "age"}, dataset.ErrUnknownColumn},
		{"unknown target", Request{Mode: ModeCategorical, Kind: KindCount, X: "city", Target: "nope"}, dataset.ErrUnknownColumn},
		{"unknown grouping column", Request{Mode: ModeCategorical, Kind: KindCount, Columns: []string{"city", "nope"}}, dataset.ErrUnknownColumn},
		{"unknown x beside columns", Request{Mode: ModeCategorical, Kind: KindCount, Columns: []string{"city"}, X: "nope", Target: "name"}, dataset.ErrUnknownColumn},
		{"unknown y beside target", Request{Mode: ModeCategorical, Kind: KindCount, X: "city", Y: "ghost", Target: "name"}, dataset.ErrUnknownColumn},
		{"existence before compatibility", Request{Mode: ModeNumeric, Kind: KindCount, X: "name", Y: "nope"}, dataset.ErrUnknownColumn},
		{"count in numeric mode", Request{Mode: ModeNumeric, Kind: KindCount, X: "name", Y: "age"}, ErrIncompatiblePlotKind},
		{"bar on text y", Request{Mode: ModeNumeric, Kind: KindBar, X: "age", Y: "city"}, ErrIncompatiblePlotKind},
		{"line in categorical mode", Request{Mode: ModeCategorical, Kind: KindLine, X: "city"}, ErrIncompatiblePlotKind},
		{"numeric grouping column", Request{Mode: ModeCategorical, Kind: KindCount, X: "age"}, ErrIncompatiblePlotKind},
		{"numeric hue", Request{Mode: ModeCategorical, Kind: KindBar, X: "city", Target: "age"}, ErrIncompatiblePlotKind},
		{"missing y", Request{Mode: ModeNumeric, Kind: KindLine, X: "age"}, ErrIncompleteRequest},
		{"missing grouping column", Request{Mode: ModeCategorical, Kind: KindCount}, ErrIncompleteRequest},
		{"box without target", Request{Mode: ModeCategorical, Kind: KindBox, X: "city"}, ErrIncompleteRequest},
		{"zero kind", Request{Mode: ModeNumeric, X: "age", Y: "age"}, ErrUnsupportedPlotKind},
		{"zero mode", Request{Kind: KindBar, X: "age", Y: "age"}, ErrUnsupportedPlotKind},
		{"bad labels", Request{Mode: ModeCategorical, Kind: KindBar, X: "city", Labels: "fraction"}, ErrUnsupportedPlotKind},
	}
	tbl := people(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Build(tbl, tt.req)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseEnums(t *testing.T) {
	for _, name := range []string{"count", "bar", "violin", "box", "line", "area"} {
		k, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}
	k, err := ParseKind(" BOX ")
	require.NoError(t, err)
	assert.Equal(t, KindBox, k)

	_, err = ParseKind("pie")
	assert.ErrorIs(t, err, ErrUnsupportedPlotKind)
	var ue *UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "pie", ue.Value)

	m, err := ParseMode("Categorical")
	require.NoError(t, err)
	assert.Equal(t, ModeCategorical, m)
	_, err = ParseMode("ordinal")
	assert.ErrorIs(t, err, ErrUnsupportedPlotKind)

	l, err := ParseLabelMode("")
	require.NoError(t, err)
	assert.Equal(t, LabelNone, l)
}

func TestRequestJSON(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"categorical","kind":"count","x":"city","labels":"percent"}`), &req))
	assert.Equal(t, ModeCategorical, req.Mode)
	assert.Equal(t, KindCount, req.Kind)

	err := json.Unmarshal([]byte(`{"mode":"numeric","kind":"scatter"}`), &req)
	assert.ErrorIs(t, err, ErrUnsupportedPlotKind)

	d, err := Build(people(t), Request{Mode: ModeNumeric, Kind: KindArea, X: "name", Y: "age"})
	require.NoError(t, err)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"kind":"area"`)
	assert.Contains(t, string(b), `"y":null`)
}
