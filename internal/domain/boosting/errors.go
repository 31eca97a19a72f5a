package boosting

import "errors"

// Sentinel kinds for boosting errors.
var (
	ErrInvalidParams = errors.New("boosting: invalid parameters")
	ErrEmptyInput    = errors.New("boosting: no training rows")
	ErrShapeMismatch = errors.New("boosting: vector shape mismatch")
	ErrNonFinite     = errors.New("boosting: non-finite value")
	ErrMalformedTree = errors.New("boosting: malformed tree")
)
