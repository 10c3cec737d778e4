// Package filter selects table rows whose cell text contains a pattern.
package filter

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabex/internal/dataset"
)

// Predicate keeps rows whose Column value contains Pattern. Matching is a
// case-sensitive substring test on the cell text as loaded. Missing cells
// never match; an empty pattern keeps every row with a present value.
type Predicate struct {
	Column  string `json:"column" yaml:"column"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s contains %q", p.Column, p.Pattern)
}

// Apply returns a new table with the rows of t matching p, in source order.
// Column kinds are preserved and t is left untouched.
func Apply(t *dataset.Table, p Predicate) (*dataset.Table, error) {
	rows, err := Match(t, p)
	if err != nil {
		return nil, err
	}
	return t.Take(rows), nil
}

// Match returns the indices of the rows of t matching p.
func Match(t *dataset.Table, p Predicate) ([]int, error) {
	c, err := t.Column(p.Column)
	if err != nil {
		return nil, err
	}
	rows := make([]int, 0, len(c.Values))
	for i, v := range c.Values {
		if v.Missing {
			continue
		}
		if strings.Contains(v.String(), p.Pattern) {
			rows = append(rows, i)
		}
	}
	return rows, nil
}
