package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/tabex/internal/dataset"
)

// ReportMode selects which sections Render emits.
type ReportMode string

const (
	// ModeDescriptive covers shape, dtypes and the describe table.
	ModeDescriptive ReportMode = "descriptive"
	// ModeExploratory covers shape and the per-column schema.
	ModeExploratory ReportMode = "exploratory"
	// ModeVisual covers shape and a bar chart of the leading numeric rows.
	ModeVisual ReportMode = "visual"
	// ModeFull emits every section.
	ModeFull ReportMode = "full"
)

// ParseReportMode validates a report mode name. Empty means full.
func ParseReportMode(s string) (ReportMode, error) {
	switch m := ReportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeFull, nil
	case ModeDescriptive, ModeExploratory, ModeVisual, ModeFull:
		return m, nil
	default:
		return "", fmt.Errorf("unknown report mode %q (want descriptive, exploratory, visual or full)", s)
	}
}

// Markdown renders every section of the profile.
func (p *Profile) Markdown() string { return p.Render(ModeFull) }

// Render renders the sections selected by mode as Markdown.
func (p *Profile) Render(mode ReportMode) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", p.Cols))

	if mode == ModeDescriptive || mode == ModeFull {
		b.WriteString("\n[DTYPES]\n")
		for _, d := range p.Dtypes() {
			b.WriteString(fmt.Sprintf("- %s: %s\n", dataset.SafeName(d.Name), d.Kind))
		}
		p.writeDescribe(&b)
	}
	if mode == ModeExploratory || mode == ModeFull {
		p.writeSchema(&b)
	}
	if mode == ModeVisual || mode == ModeFull {
		p.writeVisual(&b)
	}
	return b.String()
}

const barWidth = 40

// writeVisual draws one bar per numeric column for each preview row, scaled
// to the largest magnitude shown. Negative values draw with '-'.
func (p *Profile) writeVisual(b *strings.Builder) {
	if len(p.Preview) == 0 {
		return
	}
	var peak float64
	width := 0
	for _, pv := range p.Preview {
		if w := len(dataset.SafeName(pv.Column)); w > width {
			width = w
		}
		for _, s := range pv.Values {
			if s.finite() && math.Abs(s.Value) > peak {
				peak = math.Abs(s.Value)
			}
		}
	}
	n := len(p.Preview[0].Values)
	b.WriteString(fmt.Sprintf("\n[VISUAL]\nBar chart of numeric columns, first %d rows\n", n))
	for i := 0; i < n; i++ {
		b.WriteString(fmt.Sprintf("row %d\n", i))
		for _, pv := range p.Preview {
			s := pv.Values[i]
			bar := ""
			if s.finite() && peak > 0 {
				mark := "#"
				if s.Value < 0 {
					mark = "-"
				}
				bar = strings.Repeat(mark, int(math.Round(math.Abs(s.Value)/peak*barWidth)))
			}
			b.WriteString(fmt.Sprintf("  %-*s |%s %s\n", width, dataset.SafeName(pv.Column), bar, s))
		}
	}
}

func (p *Profile) writeSchema(b *strings.Builder) {
	b.WriteString("\n[SCHEMA]\n")
	for _, c := range p.Columns {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %d / %.1f%%, unique %d)",
			dataset.SafeName(c.Name), c.Kind, c.NonNull, c.Missing, missPct, c.Unique))
		if len(c.TopValues) > 0 {
			b.WriteString(" top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", dataset.SafeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}
}

// writeDescribe prints a stat-by-column table for numeric columns.
func (p *Profile) writeDescribe(b *strings.Builder) {
	var nums []ColumnProfile
	for _, c := range p.Columns {
		if c.Numeric != nil {
			nums = append(nums, c)
		}
	}
	if len(nums) == 0 {
		return
	}
	b.WriteString("\n[DESCRIBE]\n| stat |")
	for _, c := range nums {
		b.WriteString(" " + dataset.SafeName(c.Name) + " |")
	}
	b.WriteString("\n| --- |")
	for range nums {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	rows := []struct {
		label string
		get   func(*NumericSummary) Stat
	}{
		{"mean", func(s *NumericSummary) Stat { return s.Mean }},
		{"std", func(s *NumericSummary) Stat { return s.Std }},
		{"min", func(s *NumericSummary) Stat { return s.Min }},
		{"25%", func(s *NumericSummary) Stat { return s.P25 }},
		{"50%", func(s *NumericSummary) Stat { return s.P50 }},
		{"75%", func(s *NumericSummary) Stat { return s.P75 }},
		{"max", func(s *NumericSummary) Stat { return s.Max }},
	}
	b.WriteString("| count |")
	for _, c := range nums {
		b.WriteString(fmt.Sprintf(" %d |", c.Numeric.Count))
	}
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString("| " + r.label + " |")
		for _, c := range nums {
			b.WriteString(" " + r.get(c.Numeric).String() + " |")
		}
		b.WriteString("\n")
	}
}

// String formats valid stats with four significant digits and invalid ones as NaN.
func (s Stat) String() string {
	if !s.Valid {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", s.Value)
}
