// Package chart turns a chart request into a renderer-agnostic descriptor.
// It validates columns and aggregates categorical data but never draws.
package chart

import (
	"fmt"
	"strconv"
	"time"

	"github.com/KaramelBytes/tabex/internal/dataset"
)

// Style holds presentation parameters. They are copied unchanged into the
// descriptor for the renderer.
type Style struct {
	LabelRotation float64 `json:"label_rotation" yaml:"label_rotation" mapstructure:"label_rotation"`
	Width         float64 `json:"width" yaml:"width" mapstructure:"width"`
	Height        float64 `json:"height" yaml:"height" mapstructure:"height"`
	Palette       string  `json:"palette,omitempty" yaml:"palette,omitempty" mapstructure:"palette"`
}

// Request describes the chart to build.
//
// In numeric mode X and Y name the axes and Target, when set, is passed
// through as a hue. In categorical mode Columns are the grouping columns
// (defaulting to X) and Target is the hue for count and bar plots or the
// numeric series for box and violin plots; Y is accepted as Target when
// Target is empty.
type Request struct {
	Mode    Mode      `json:"mode" yaml:"mode"`
	Kind    Kind      `json:"kind" yaml:"kind"`
	X       string    `json:"x,omitempty" yaml:"x,omitempty"`
	Y       string    `json:"y,omitempty" yaml:"y,omitempty"`
	Target  string    `json:"target,omitempty" yaml:"target,omitempty"`
	Columns []string  `json:"columns,omitempty" yaml:"columns,omitempty"`
	Labels  LabelMode `json:"labels,omitempty" yaml:"labels,omitempty"`
	Style   Style     `json:"style" yaml:"style"`
}

// Point is one source row in a numeric-mode chart. X is a float64 for
// numeric columns, an RFC 3339 string for datetime columns and the cell text
// otherwise; it is nil when missing. Y is nil when missing.
type Point struct {
	Row int         `json:"row" yaml:"row"`
	X   interface{} `json:"x" yaml:"x"`
	Y   *float64    `json:"y" yaml:"y"`
	Hue string      `json:"hue,omitempty" yaml:"hue,omitempty"`
}

// Triple is the number of rows having Group in the grouping column and
// Category in the hue column.
type Triple struct {
	Group    string `json:"group" yaml:"group"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Count    int    `json:"count" yaml:"count"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Group holds the target values of the rows in one category.
type Group struct {
	Category string    `json:"category" yaml:"category"`
	Values   []float64 `json:"values" yaml:"values"`
}

// Series is the aggregation for one grouping column.
type Series struct {
	Column string   `json:"column" yaml:"column"`
	Counts []Triple `json:"counts,omitempty" yaml:"counts,omitempty"`
	Groups []Group  `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Descriptor is everything a renderer needs without touching the table.
type Descriptor struct {
	Kind   Kind      `json:"kind" yaml:"kind"`
	Mode   Mode      `json:"mode" yaml:"mode"`
	X      string    `json:"x" yaml:"x"`
	Y      string    `json:"y,omitempty" yaml:"y,omitempty"`
	Total  int       `json:"total" yaml:"total"`
	Labels LabelMode `json:"labels,omitempty" yaml:"labels,omitempty"`
	Points []Point   `json:"points,omitempty" yaml:"points,omitempty"`
	Series []Series  `json:"series,omitempty" yaml:"series,omitempty"`
	Style  Style     `json:"style" yaml:"style"`
}

// Build validates req against t and produces a descriptor. Column existence
// is checked before type compatibility, and both before any aggregation.
func Build(t *dataset.Table, req Request) (*Descriptor, error) {
	if req.Kind < KindCount || req.Kind > KindArea {
		return nil, &UnsupportedError{What: "plot kind", Value: req.Kind.String(), Allowed: kindNames}
	}
	labels, err := ParseLabelMode(string(req.Labels))
	if err != nil {
		return nil, err
	}
	req.Labels = labels
	switch req.Mode {
	case ModeNumeric:
		return buildNumeric(t, req)
	case ModeCategorical:
		return buildCategorical(t, req)
	default:
		return nil, &UnsupportedError{What: "chart mode", Value: req.Mode.String(), Allowed: modeNames}
	}
}

func buildNumeric(t *dataset.Table, req Request) (*Descriptor, error) {
	if req.X == "" || req.Y == "" {
		return nil, fmt.Errorf("%w: numeric mode needs both x and y", ErrIncompleteRequest)
	}
	xc, err := t.Column(req.X)
	if err != nil {
		return nil, err
	}
	yc, err := t.Column(req.Y)
	if err != nil {
		return nil, err
	}
	var hc *dataset.Column
	if req.Target != "" {
		if hc, err = t.Column(req.Target); err != nil {
			return nil, err
		}
	}

	switch req.Kind {
	case KindCount:
		return nil, &KindError{Kind: req.Kind, Mode: req.Mode, Reason: "count plots need categorical mode"}
	case KindBox, KindViolin:
		if err := requireKind(req, xc, dataset.KindNumeric, "x must be numeric"); err != nil {
			return nil, err
		}
		if err := requireKind(req, yc, dataset.KindNumeric, "y must be numeric"); err != nil {
			return nil, err
		}
	case KindBar, KindLine, KindArea:
		if err := requireKind(req, yc, dataset.KindNumeric, "y must be numeric"); err != nil {
			return nil, err
		}
	}

	d := newDescriptor(t, req, req.X, req.Y)
	d.Points = make([]Point, t.NumRows())
	for i := range d.Points {
		p := Point{Row: i, X: axisValue(xc, i)}
		if y := yc.Values[i]; !y.Missing {
			v := y.Num
			p.Y = &v
		}
		if hc != nil {
			p.Hue = hc.Values[i].String()
		}
		d.Points[i] = p
	}
	return d, nil
}

func buildCategorical(t *dataset.Table, req Request) (*Descriptor, error) {
	names := req.Columns
	if len(names) == 0 {
		if req.X == "" {
			return nil, fmt.Errorf("%w: categorical mode needs x or columns", ErrIncompleteRequest)
		}
		names = []string{req.X}
	}
	target := req.Target
	if target == "" {
		target = req.Y
	}

	// x and y must exist even when columns or target take their role.
	for _, name := range []string{req.X, req.Y} {
		if name == "" {
			continue
		}
		if _, err := t.Column(name); err != nil {
			return nil, err
		}
	}
	cols := make([]*dataset.Column, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	var tc *dataset.Column
	if target != "" {
		c, err := t.Column(target)
		if err != nil {
			return nil, err
		}
		tc = c
	}

	switch req.Kind {
	case KindLine, KindArea:
		return nil, &KindError{Kind: req.Kind, Mode: req.Mode, Reason: "line and area plots need numeric mode"}
	case KindCount, KindBar:
		if tc != nil {
			if err := requireKind(req, tc, dataset.KindCategorical, "hue must be categorical"); err != nil {
				return nil, err
			}
		}
	case KindBox, KindViolin:
		if tc == nil {
			return nil, fmt.Errorf("%w: %s plot in categorical mode needs a numeric target", ErrIncompleteRequest, req.Kind)
		}
		if err := requireKind(req, tc, dataset.KindNumeric, "target must be numeric"); err != nil {
			return nil, err
		}
	}
	for _, c := range cols {
		if err := requireKind(req, c, dataset.KindCategorical, "grouping columns must be categorical"); err != nil {
			return nil, err
		}
	}

	d := newDescriptor(t, req, names[0], target)
	for _, c := range cols {
		s := Series{Column: c.Name}
		switch req.Kind {
		case KindCount, KindBar:
			s.Counts = countPairs(c, tc, t.NumRows(), req.Labels)
		case KindBox, KindViolin:
			s.Groups = groupValues(c, tc)
		}
		d.Series = append(d.Series, s)
	}
	return d, nil
}

func newDescriptor(t *dataset.Table, req Request, x, y string) *Descriptor {
	d := &Descriptor{Kind: req.Kind, Mode: req.Mode, X: x, Y: y, Total: t.NumRows(), Style: req.Style}
	if req.Mode == ModeCategorical && (req.Kind == KindCount || req.Kind == KindBar) {
		d.Labels = req.Labels
	}
	return d
}

func requireKind(req Request, c *dataset.Column, want dataset.Kind, reason string) error {
	if c.Kind == want {
		return nil
	}
	return &KindError{Kind: req.Kind, Mode: req.Mode, Column: c.Name, ColumnKind: c.Kind, Reason: reason}
}

func axisValue(c *dataset.Column, i int) interface{} {
	v := c.Values[i]
	if v.Missing {
		return nil
	}
	switch c.Kind {
	case dataset.KindNumeric:
		return v.Num
	case dataset.KindDatetime:
		return v.Time.Format(time.RFC3339)
	default:
		return v.Text
	}
}

// countPairs counts (group, category) pairs in first-appearance order. Rows
// missing either value are skipped. With no hue the category is empty.
func countPairs(c, hue *dataset.Column, total int, labels LabelMode) []Triple {
	index := map[[2]string]int{}
	out := []Triple{}
	for i, v := range c.Values {
		if v.Missing {
			continue
		}
		var cat string
		if hue != nil {
			h := hue.Values[i]
			if h.Missing {
				continue
			}
			cat = h.Text
		}
		key := [2]string{v.Text, cat}
		if j, ok := index[key]; ok {
			out[j].Count++
			continue
		}
		index[key] = len(out)
		out = append(out, Triple{Group: v.Text, Category: cat, Count: 1})
	}
	for i := range out {
		out[i].Label = label(out[i].Count, total, labels)
	}
	return out
}

func label(count, total int, mode LabelMode) string {
	switch mode {
	case LabelCount:
		return strconv.Itoa(count)
	case LabelPercent:
		if total == 0 {
			return ""
		}
		return fmt.Sprintf("%.1f%%", float64(count)*100/float64(total))
	default:
		return ""
	}
}

// groupValues collects target values per category in first-appearance order.
func groupValues(c, target *dataset.Column) []Group {
	index := map[string]int{}
	out := []Group{}
	for i, v := range c.Values {
		tv := target.Values[i]
		if v.Missing || tv.Missing {
			continue
		}
		j, ok := index[v.Text]
		if !ok {
			j = len(out)
			index[v.Text] = j
			out = append(out, Group{Category: v.Text})
		}
		out[j].Values = append(out[j].Values, tv.Num)
	}
	return out
}
