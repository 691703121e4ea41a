package analysis

import (
	"errors"
	"fmt"
)

// ErrYColumnRequired is returned when a scatter chart is requested without a Y column.
var ErrYColumnRequired = errors.New("scatter requires a Y column")

// ColumnError indicates a selected column that is not in the dataset headers.
type ColumnError struct {
	Axis   string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("unknown %s column %q", e.Axis, e.Column)
}

// EmptyResultError describes an aggregation that produced no usable values.
// It is a diagnostic: the empty result is still rendered.
type EmptyResultError struct {
	Mode Mode
	X    string
	Y    string
}

func (e *EmptyResultError) Error() string {
	if e.Y != "" {
		return fmt.Sprintf("no usable values for %s of %q vs %q", e.Mode, e.X, e.Y)
	}
	return fmt.Sprintf("no usable values for %s of %q", e.Mode, e.X)
}
