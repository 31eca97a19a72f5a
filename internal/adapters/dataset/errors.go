package dataset

import (
	"errors"
	"fmt"
)

// Sentinel kinds for dataset errors.
var (
	ErrMissingColumn   = errors.New("missing required column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrEmptyDataset    = errors.New("dataset has no rows")
	ErrMalformedRow    = errors.New("malformed row")
	ErrNoValues        = errors.New("column has no values")
	ErrNoUsableRows    = errors.New("no usable rows after cleaning")
	ErrInvalidRatio    = errors.New("test ratio must be in (0, 1)")
	ErrTooFewRows      = errors.New("too few rows to split")
)

// RowError locates a failure on a line of the source file.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
