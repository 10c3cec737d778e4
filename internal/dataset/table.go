// Package dataset holds the in-memory table model shared by the loader,
// profiler, filter engine and chart selector.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Kind is the semantic type of a column.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
	KindDatetime
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindDatetime:
		return "datetime"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler so kinds render by name in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ErrUnknownColumn is returned when a referenced column is absent from a table.
var ErrUnknownColumn = errors.New("unknown column")

// ColumnError reports a column name that does not exist in a table.
type ColumnError struct {
	Column    string
	Available []string
}

func (e *ColumnError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown column %q", e.Column)
	}
	return fmt.Sprintf("unknown column %q (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

func (e *ColumnError) Unwrap() error { return ErrUnknownColumn }

// Value is a single cell. Text is the value as it appeared in the source;
// Num and Time are only meaningful for numeric and datetime columns.
type Value struct {
	Text    string
	Missing bool
	Num     float64
	Time    time.Time
}

// String returns the textual representation used for display and filtering.
func (v Value) String() string {
	if v.Missing {
		return ""
	}
	return v.Text
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Table is an ordered set of equally long columns. Tables are treated as
// immutable once built: every transformation returns a new Table.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// FromRecords builds a table from a header and string records, inferring a
// kind for every column. Every record must have exactly len(header) fields.
func FromRecords(header []string, records [][]string) (*Table, error) {
	names := make([]string, len(header))
	copy(names, header)
	cols := make([]*Column, len(names))
	for j, name := range names {
		cols[j] = &Column{Name: name, Values: make([]Value, len(records))}
	}
	for i, rec := range records {
		if len(rec) != len(names) {
			return nil, fmt.Errorf("record %d has %d fields, want %d", i+1, len(rec), len(names))
		}
		for j, raw := range rec {
			cols[j].Values[i] = Value{Text: raw, Missing: IsMissing(raw)}
		}
	}
	for _, c := range cols {
		inferColumn(c)
	}
	return newTable(cols, len(records))
}

func newTable(cols []*Column, rows int) (*Table, error) {
	t := &Table{cols: cols, index: make(map[string]int, len(cols)), rows: rows}
	for j, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if len(c.Values) != rows {
			return nil, fmt.Errorf("column %q has %d values, want %d", c.Name, len(c.Values), rows)
		}
		t.index[c.Name] = j
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return t.rows, len(t.cols) }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in table order. Callers must not modify them.
func (t *Table) Columns() []*Column { return t.cols }

// Column returns the named column or a *ColumnError.
func (t *Table) Column(name string) (*Column, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, &ColumnError{Column: name, Available: t.ColumnNames()}
	}
	return t.cols[j], nil
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns a copy of row i in column order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Values[i]
	}
	return out
}

// Take returns a new table holding the given rows, in the given order.
// Column kinds are carried over rather than re-inferred.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for j, c := range t.cols {
		vals := make([]Value, len(rows))
		for k, i := range rows {
			vals[k] = c.Values[i]
		}
		cols[j] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	out, _ := newTable(cols, len(rows))
	return out
}

// Head returns the first n rows. n larger than the table returns every row.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.rows {
		n = t.rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.Take(idx)
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		cols = append(cols, &Column{Name: c.Name, Kind: c.Kind, Values: vals})
	}
	return newTable(cols, t.rows)
}

// Records returns the table as string records without a header.
func (t *Table) Records() [][]string {
	out := make([][]string, t.rows)
	for i := range out {
		rec := make([]string, len(t.cols))
		for j, c := range t.cols {
			rec[j] = c.Values[i].String()
		}
		out[i] = rec
	}
	return out
}

// WriteCSV writes the header and every row as comma-separated values.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
