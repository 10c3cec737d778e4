package chart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedPlotKind is returned for plot kinds, modes or label modes
// outside the closed sets below.
var ErrUnsupportedPlotKind = errors.New("unsupported plot kind")

// UnsupportedError names the rejected value and the accepted ones.
type UnsupportedError struct {
	What    string
	Value   string
	Allowed []string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s %q (want one of: %s)", e.What, e.Value, strings.Join(e.Allowed, ", "))
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedPlotKind }

// Kind is a plot kind.
type Kind int

const (
	KindCount Kind = iota + 1
	KindBar
	KindViolin
	KindBox
	KindLine
	KindArea
)

var kindNames = []string{"count", "bar", "violin", "box", "line", "area"}

func (k Kind) String() string {
	if k < KindCount || k > KindArea {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k-1]
}

// ParseKind maps a kind name, case-insensitively, to a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i + 1), nil
		}
	}
	return 0, &UnsupportedError{What: "plot kind", Value: s, Allowed: kindNames}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Mode selects how columns are interpreted.
type Mode int

const (
	// ModeNumeric plots row-level (x, y) pairs.
	ModeNumeric Mode = iota + 1
	// ModeCategorical groups rows by categorical columns.
	ModeCategorical
)

var modeNames = []string{"numeric", "categorical"}

func (m Mode) String() string {
	if m < ModeNumeric || m > ModeCategorical {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m-1]
}

// ParseMode maps a mode name, case-insensitively, to a Mode.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return Mode(i + 1), nil
		}
	}
	return 0, &UnsupportedError{What: "chart mode", Value: s, Allowed: modeNames}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// LabelMode controls the value labels of categorical count and bar charts.
type LabelMode string

const (
	LabelNone    LabelMode = "none"
	LabelCount   LabelMode = "count"
	LabelPercent LabelMode = "percent"
)

// ParseLabelMode validates a label mode. Empty means none.
func ParseLabelMode(s string) (LabelMode, error) {
	switch m := LabelMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return LabelNone, nil
	case LabelNone, LabelCount, LabelPercent:
		return m, nil
	}
	return "", &UnsupportedError{What: "label mode", Value: s, Allowed: []string{string(LabelNone), string(LabelCount), string(LabelPercent)}}
}
