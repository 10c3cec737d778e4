package dataset

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromRecords(
		[]string{"name", "age", "city", "joined"},
		[][]string{
			{"Ann", "31", "NYC", "2024-01-02"},
			{"Bob", "", "LA", "2024-02-03"},
			{"Cid", "45", "NY", ""},
		},
	)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return tbl
}

func TestFromRecordsInfersKinds(t *testing.T) {
	tbl := sampleTable(t)
	want := map[string]Kind{
		"name":   KindCategorical,
		"age":    KindNumeric,
		"city":   KindCategorical,
		"joined": KindDatetime,
	}
	for name, kind := range want {
		c, err := tbl.Column(name)
		if err != nil {
			t.Fatalf("Column(%q): %v", name, err)
		}
		if c.Kind != kind {
			t.Errorf("%s kind = %s, want %s", name, c.Kind, kind)
		}
	}
	age, _ := tbl.Column("age")
	if !age.Values[1].Missing {
		t.Fatalf("expected blank age to be missing")
	}
	if age.Values[2].Num != 45 {
		t.Fatalf("age[2] = %v, want 45", age.Values[2].Num)
	}
	if r, c := tbl.Shape(); r != 3 || c != 4 {
		t.Fatalf("shape = (%d, %d), want (3, 4)", r, c)
	}
}

func TestFromRecordsRejectsRaggedRecords(t *testing.T) {
	_, err := FromRecords([]string{"a", "b"}, [][]string{{"1", "2"}, {"3"}})
	if err == nil {
		t.Fatalf("expected error for short record")
	}
}

func TestFromRecordsRejectsDuplicateNames(t *testing.T) {
	_, err := FromRecords([]string{"a", "a"}, nil)
	if err == nil {
		t.Fatalf("expected duplicate column error")
	}
}

func TestAllMissingColumnIsNumeric(t *testing.T) {
	tbl, err := FromRecords([]string{"x"}, [][]string{{""}, {"NA"}, {"null"}})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	c, _ := tbl.Column("x")
	if c.Kind != KindNumeric {
		t.Fatalf("kind = %s, want numeric", c.Kind)
	}
}

func TestMixedNumberAndDateColumnIsCategorical(t *testing.T) {
	tests := map[string][][]string{
		"number first": {{"2020"}, {"2021-01-01"}},
		"date first":   {{"2021-01-01"}, {"2020"}},
	}
	for name, records := range tests {
		t.Run(name, func(t *testing.T) {
			tbl, err := FromRecords([]string{"when"}, records)
			if err != nil {
				t.Fatalf("FromRecords: %v", err)
			}
			c, _ := tbl.Column("when")
			if c.Kind != KindCategorical {
				t.Fatalf("kind = %s, want categorical", c.Kind)
			}
			for i, v := range c.Values {
				if !v.Time.IsZero() || v.Num != 0 {
					t.Errorf("row %d carries a parsed value: %+v", i, v)
				}
			}
		})
	}
}

func TestSpaceSeparatedIDsStayCategorical(t *testing.T) {
	tbl, err := FromRecords([]string{"phone"}, [][]string{{"555 1234"}, {"555 9876"}})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	c, _ := tbl.Column("phone")
	if c.Kind != KindCategorical {
		t.Fatalf("kind = %s, want categorical", c.Kind)
	}
}

func TestColumnUnknown(t *testing.T) {
	tbl := sampleTable(t)
	_, err := tbl.Column("salary")
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	var ce *ColumnError
	if !errors.As(err, &ce) || ce.Column != "salary" {
		t.Fatalf("expected ColumnError for salary, got %#v", err)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"-3.5", -3.5, true},
		{"12.5%", 12.5, true},
		{"1,000", 1000, true},
		{"0,5", 0.5, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{"1e3", 1000, true},
		{"1 234", 1234, true},
		{"1 234 567,5", 1234567.5, true},
		{"555 1234", 0, false},
		{"12 34", 0, false},
		{"Inf", 0, false},
		{"NYC", 0, false},
		{"2024-01-02", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHeadSelectAndTake(t *testing.T) {
	tbl := sampleTable(t)
	head := tbl.Head(2)
	if head.NumRows() != 2 || head.NumCols() != 4 {
		t.Fatalf("head shape = (%d, %d)", head.NumRows(), head.NumCols())
	}
	if tbl.Head(100).NumRows() != 3 {
		t.Fatalf("head beyond length should return every row")
	}
	sel, err := tbl.Select("city", "name")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := strings.Join(sel.ColumnNames(), ","); got != "city,name" {
		t.Fatalf("selected columns = %s", got)
	}
	if _, err := tbl.Select("nope"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	taken := tbl.Take([]int{2})
	c, _ := taken.Column("age")
	if c.Kind != KindNumeric || c.Values[0].Num != 45 {
		t.Fatalf("Take lost numeric data: %+v", c)
	}
}

func TestWriteCSVAndMarkdown(t *testing.T) {
	tbl := sampleTable(t)
	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || lines[0] != "name,age,city,joined" || lines[2] != "Bob,,LA,2024-02-03" {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
	md := tbl.Markdown(2)
	if !strings.Contains(md, "| name | age | city | joined |") {
		t.Fatalf("markdown missing header: %s", md)
	}
	if !strings.Contains(md, "(2 of 3 rows)") {
		t.Fatalf("markdown missing truncation note: %s", md)
	}
}

func TestMarkdownTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 100)
	tbl, err := FromRecords([]string{"note"}, [][]string{{long}, {"short"}})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	md := tbl.Markdown(0)
	if !utf8.ValidString(md) {
		t.Fatalf("markdown is not valid UTF-8: %q", md)
	}
	want := "| " + strings.Repeat("é", maxCellWidth-3) + "... |"
	if !strings.Contains(md, want) {
		t.Fatalf("long cell not truncated to %d runes:\n%s", maxCellWidth, md)
	}
	if !strings.Contains(md, "| short |") {
		t.Fatalf("short cell changed:\n%s", md)
	}
}
