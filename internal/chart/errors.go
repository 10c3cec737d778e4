package chart

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/tabex/internal/dataset"
)

// ErrIncompatiblePlotKind is returned when a plot kind cannot use a column
// of the given kind in the requested mode.
var ErrIncompatiblePlotKind = errors.New("incompatible plot kind")

// ErrIncompleteRequest is returned when a request omits a required column.
var ErrIncompleteRequest = errors.New("incomplete chart request")

// KindError reports which column made a plot kind incompatible.
type KindError struct {
	Kind       Kind
	Mode       Mode
	Column     string
	ColumnKind dataset.Kind
	Reason     string
}

func (e *KindError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s plot in %s mode: %s", e.Kind, e.Mode, e.Reason)
	}
	return fmt.Sprintf("%s plot in %s mode cannot use %s column %q: %s", e.Kind, e.Mode, e.ColumnKind, e.Column, e.Reason)
}

func (e *KindError) Unwrap() error { return ErrIncompatiblePlotKind }
