package dataset

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxCellWidth = 80

// Markdown renders up to n rows as a Markdown table. n <= 0 renders every row.
func (t *Table) Markdown(n int) string {
	var b strings.Builder
	if len(t.cols) == 0 {
		b.WriteString("(no columns)\n")
		return b.String()
	}
	b.WriteString("| ")
	for i, c := range t.cols {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(SafeName(c.Name))
	}
	b.WriteString(" |\n|")
	for range t.cols {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	rows := t.rows
	if n > 0 && n < rows {
		rows = n
	}
	for i := 0; i < rows; i++ {
		b.WriteString("| ")
		for j, c := range t.cols {
			if j > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(SafeVal(truncateCell(c.Values[i].String())))
		}
		b.WriteString(" |\n")
	}
	if rows < t.rows {
		b.WriteString(fmt.Sprintf("\n(%d of %d rows)\n", rows, t.rows))
	}
	return b.String()
}

// truncateCell shortens val to maxCellWidth runes, ending in "...".
func truncateCell(val string) string {
	if utf8.RuneCountInString(val) <= maxCellWidth {
		return val
	}
	r := []rune(val)
	return string(r[:maxCellWidth-3]) + "..."
}

// SafeName substitutes a placeholder for blank column names.
func SafeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

// SafeVal keeps a value on one Markdown table line.
func SafeVal(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
