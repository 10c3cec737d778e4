package dataset

import (
	"strconv"
	"strings"
	"time"
)

// missingTokens are cell contents treated as absent in addition to blank cells.
var missingTokens = map[string]struct{}{
	"NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "null": {}, "NULL": {},
	"None": {}, "#N/A": {}, "<NA>": {},
}

// IsMissing reports whether raw is a blank cell or a null marker.
func IsMissing(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return true
	}
	_, ok := missingTokens[s]
	return ok
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

// ParseTime tries the known date layouts in order.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses plain, percent, scientific and locale-formatted numbers
// ("1.234,5", "1,234.5", "12.5%"). Decimal and thousands separators are
// auto-detected per value.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" || !numericChars(raw) {
		return 0, false
	}
	if strings.Contains(raw, " ") && !spaceGrouped(raw) {
		return 0, false
	}
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	if cpos >= 0 && dpos >= 0 {
		if cpos > dpos {
			dec = ','
		}
	} else if cpos >= 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3 {
		// "0,5" is a decimal comma; "1,000" is a thousands separator.
		dec = ','
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// spaceGrouped reports whether the spaces in raw separate thousands: a lead
// group of 1-3 digits, then groups of exactly 3 digits. Only the last group
// may continue with a decimal part ("1 234,5").
func spaceGrouped(raw string) bool {
	parts := strings.Split(raw, " ")
	lead := strings.TrimLeft(parts[0], "+-")
	if len(lead) < 1 || len(lead) > 3 || !allDigits(lead) {
		return false
	}
	for i, p := range parts[1:] {
		if len(p) < 3 || !allDigits(p[:3]) {
			return false
		}
		if len(p) > 3 && (i != len(parts)-2 || (p[3] != '.' && p[3] != ',')) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// numericChars rejects words such as "Inf" or "infinity" that strconv would accept.
func numericChars(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',' || r == ' ' || r == '-' || r == '+' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return digits > 0
}

// inferColumn assigns the column kind and fills the parsed representations.
// A column is numeric when every present cell is a number, datetime when
// every present cell is a date, and categorical otherwise. A column with no
// present cells is numeric.
func inferColumn(c *Column) {
	numeric, datetime := true, true
	for _, v := range c.Values {
		if v.Missing {
			continue
		}
		if numeric {
			if _, ok := ParseNumber(v.Text); !ok {
				numeric = false
			}
		}
		if datetime {
			if _, ok := ParseTime(v.Text); !ok {
				datetime = false
			}
		}
		if !numeric && !datetime {
			break
		}
	}
	switch {
	case numeric:
		c.Kind = KindNumeric
		for i := range c.Values {
			if !c.Values[i].Missing {
				c.Values[i].Num, _ = ParseNumber(c.Values[i].Text)
			}
		}
	case datetime:
		c.Kind = KindDatetime
		for i := range c.Values {
			if !c.Values[i].Missing {
				c.Values[i].Time, _ = ParseTime(c.Values[i].Text)
			}
		}
	default:
		c.Kind = KindCategorical
	}
}
