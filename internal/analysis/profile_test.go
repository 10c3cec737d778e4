package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabex/internal/dataset"
)

func mustTable(t *testing.T, header []string, records [][]string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.FromRecords(header, records)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return tbl
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDescribeDistinctAndMissing(t *testing.T) {
	tbl := mustTable(t, []string{"v"}, [][]string{{"1"}, {"2"}, {"2"}, {"3"}, {"None"}})
	p := Describe(tbl)
	c, ok := p.Column("v")
	if !ok {
		t.Fatalf("column v missing from profile")
	}
	if c.Unique != 3 || c.Missing != 1 || c.NonNull != 4 {
		t.Fatalf("unique=%d missing=%d non-null=%d, want 3/1/4", c.Unique, c.Missing, c.NonNull)
	}
	if c.Numeric == nil || c.Numeric.Count != 4 {
		t.Fatalf("expected numeric summary with count 4, got %+v", c.Numeric)
	}
}

func TestDescribeNumericStats(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, [][]string{{"10"}, {"20"}, {"30"}})
	s := Describe(tbl).Columns[0].Numeric
	checks := []struct {
		name string
		got  Stat
		want float64
	}{
		{"mean", s.Mean, 20},
		{"std", s.Std, 10},
		{"min", s.Min, 10},
		{"p25", s.P25, 15},
		{"p50", s.P50, 20},
		{"p75", s.P75, 25},
		{"max", s.Max, 30},
	}
	for _, c := range checks {
		if !c.got.Valid || !almostEqual(c.got.Value, c.want) {
			t.Errorf("%s = %+v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestDescribeEmptyTable(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b"}, nil)
	p := Describe(tbl)
	if p.Rows != 0 || p.Cols != 2 {
		t.Fatalf("shape = (%d, %d), want (0, 2)", p.Rows, p.Cols)
	}
	for _, c := range p.Columns {
		if c.NonNull != 0 || c.Missing != 0 || c.Unique != 0 {
			t.Fatalf("expected zero counts for %s, got %+v", c.Name, c)
		}
		if c.Numeric != nil && (c.Numeric.Mean.Valid || c.Numeric.Std.Valid || c.Numeric.P50.Valid) {
			t.Fatalf("expected not computable stats for %s", c.Name)
		}
	}
}

func TestDescribeAllMissingAndSingleValue(t *testing.T) {
	tbl := mustTable(t, []string{"gone", "one"}, [][]string{{"", "7"}, {"NA", ""}})
	p := Describe(tbl)
	gone, _ := p.Column("gone")
	if gone.Kind != dataset.KindNumeric || gone.Missing != 2 {
		t.Fatalf("unexpected all-missing profile: %+v", gone)
	}
	if gone.Numeric.Mean.Valid || gone.Numeric.Min.Valid || gone.Numeric.Max.Valid {
		t.Fatalf("all-missing stats must not be computable: %+v", gone.Numeric)
	}
	one, _ := p.Column("one")
	if !one.Numeric.Mean.Valid || one.Numeric.Mean.Value != 7 {
		t.Fatalf("single-value mean = %+v, want 7", one.Numeric.Mean)
	}
	if one.Numeric.Std.Valid {
		t.Fatalf("single-value std must not be computable")
	}
}

func TestDescribeDoesNotMutate(t *testing.T) {
	tbl := mustTable(t, []string{"x", "c"}, [][]string{{"3", "b"}, {"1", "a"}, {"2", "b"}})
	before := tbl.Records()
	_ = Describe(tbl)
	after := tbl.Records()
	for i := range before {
		if strings.Join(before[i], ",") != strings.Join(after[i], ",") {
			t.Fatalf("row %d changed: %v -> %v", i, before[i], after[i])
		}
	}
}

func TestTopValuesOrdering(t *testing.T) {
	var recs [][]string
	for _, v := range []string{"b", "a", "c", "a", "b", "a", "d", "e", "f", "g", "h", "i"} {
		recs = append(recs, []string{v})
	}
	c := Describe(mustTable(t, []string{"cat"}, recs)).Columns[0]
	if len(c.TopValues) != maxTopValues {
		t.Fatalf("top values = %d, want %d", len(c.TopValues), maxTopValues)
	}
	if c.TopValues[0] != (CategoryCount{Value: "a", Count: 3}) || c.TopValues[1] != (CategoryCount{Value: "b", Count: 2}) {
		t.Fatalf("unexpected ordering: %+v", c.TopValues[:2])
	}
	if c.TopValues[2].Value != "c" {
		t.Fatalf("ties should be ordered by value, got %q", c.TopValues[2].Value)
	}
	if c.Unique != 9 {
		t.Fatalf("unique = %d, want 9", c.Unique)
	}
}

func TestDistinctValues(t *testing.T) {
	tbl := mustTable(t, []string{"city", "n"}, [][]string{{"NYC", "1"}, {"LA", "1.0"}, {"", "2"}, {"NYC", ""}})
	got, err := DistinctValues(tbl, "city")
	if err != nil {
		t.Fatalf("DistinctValues: %v", err)
	}
	if strings.Join(got, ",") != "NYC,LA" {
		t.Fatalf("city distinct = %v", got)
	}
	got, _ = DistinctValues(tbl, "n")
	if strings.Join(got, ",") != "1,2" {
		t.Fatalf("numeric distinct should compare by value, got %v", got)
	}
	if _, err := DistinctValues(tbl, "nope"); !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestStatJSON(t *testing.T) {
	b, err := json.Marshal(NumericSummary{Count: 1, Mean: valid(2.5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"mean":2.5`) || !strings.Contains(s, `"std":null`) {
		t.Fatalf("unexpected json: %s", s)
	}
}

func TestRenderModes(t *testing.T) {
	tbl := mustTable(t, []string{"name", "age"}, [][]string{{"Ann", "31"}, {"Bob", ""}, {"Ann", "45"}})
	p := Describe(tbl)

	full := p.Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 3", "[DTYPES]", "- age: numeric", "[DESCRIBE]", "| count | 2 |", "| std |", "[SCHEMA]", "Ann(2)"} {
		if !strings.Contains(full, want) {
			t.Errorf("full report missing %q:\n%s", want, full)
		}
	}
	desc := p.Render(ModeDescriptive)
	if strings.Contains(desc, "[SCHEMA]") || strings.Contains(desc, "[VISUAL]") || !strings.Contains(desc, "[DESCRIBE]") {
		t.Fatalf("descriptive report has wrong sections:\n%s", desc)
	}
	expl := p.Render(ModeExploratory)
	if strings.Contains(expl, "[DESCRIBE]") || !strings.Contains(expl, "missing 1 / 33.3%") {
		t.Fatalf("exploratory report has wrong sections:\n%s", expl)
	}
}

func TestRenderVisual(t *testing.T) {
	tbl := mustTable(t, []string{"name", "age", "score"}, [][]string{
		{"Ann", "31", "1"}, {"Bob", "", "2"}, {"Cid", "45", "-3"},
		{"Dee", "28", "4"}, {"Eve", "52", "5"}, {"Fay", "60", "6"},
	})
	p := Describe(tbl)
	if len(p.Preview) != 2 || p.Preview[0].Column != "age" || len(p.Preview[0].Values) != 5 {
		t.Fatalf("preview = %+v", p.Preview)
	}
	if p.Preview[0].Values[1].Valid {
		t.Errorf("missing age should be an invalid stat")
	}

	vis := p.Render(ModeVisual)
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"[VISUAL]",
		"first 5 rows",
		"  age   |" + strings.Repeat("#", 40) + " 52",
		"  age   | NaN",
		"  score |-- -3",
	} {
		if !strings.Contains(vis, want) {
			t.Errorf("visual report missing %q:\n%s", want, vis)
		}
	}
	for _, unwanted := range []string{"row 5", "[DESCRIBE]", "[SCHEMA]", "[DTYPES]"} {
		if strings.Contains(vis, unwanted) {
			t.Errorf("visual report should not contain %q:\n%s", unwanted, vis)
		}
	}
	if !strings.Contains(p.Markdown(), "[VISUAL]") {
		t.Errorf("full report should include the visual section")
	}

	noNums := Describe(mustTable(t, []string{"name"}, [][]string{{"Ann"}}))
	if strings.Contains(noNums.Render(ModeVisual), "[VISUAL]") {
		t.Errorf("visual section needs numeric columns")
	}
}

func TestParseReportMode(t *testing.T) {
	tests := map[string]ReportMode{"": ModeFull, "Descriptive": ModeDescriptive, " exploratory ": ModeExploratory, "VISUAL": ModeVisual, "full": ModeFull}
	for in, want := range tests {
		got, err := ParseReportMode(in)
		if err != nil || got != want {
			t.Errorf("ParseReportMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseReportMode("summary"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestStatNonFiniteEncodesNull(t *testing.T) {
	summary := NumericSummary{
		Count: 2,
		Mean:  Stat{Value: math.Inf(1), Valid: true},
		Std:   Stat{Value: math.NaN(), Valid: true},
		Min:   valid(1e308),
	}
	b, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"mean", "std"} {
		if got[key] != nil {
			t.Errorf("%s = %v, want null", key, got[key])
		}
	}
	if got["min"] != 1e308 {
		t.Errorf("min = %v, want 1e308", got["min"])
	}

	y, err := yaml.Marshal(summary)
	if err != nil {
		t.Fatalf("yaml marshal: %v", err)
	}
	if !strings.Contains(string(y), "mean: null") || strings.Contains(string(y), ".inf") {
		t.Errorf("yaml should encode infinite mean as null:\n%s", y)
	}
}
