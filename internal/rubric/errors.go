package rubric

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat rejects a file before any parsing is attempted.
var ErrUnsupportedFormat = errors.New("unsupported rubric format")

// ParseError wraps a failure from an underlying format parser. Callers
// surface it as "rubric parsing failed"; the cause is for logs only.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rubric parsing failed (%s): %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StructuralError means the file parsed cleanly but its structure cannot
// yield a rubric (e.g. a spreadsheet with no data rows).
type StructuralError struct {
	Format string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("could not build rubric from %s file: %s", e.Format, e.Reason)
}
