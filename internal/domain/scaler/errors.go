package scaler

import (
	"errors"
	"strings"
)

// Sentinel kinds for scaler errors.
var (
	ErrEmptyInput        = errors.New("scaler: no rows to fit")
	ErrShapeMismatch     = errors.New("scaler: vector shape mismatch")
	ErrNonFinite         = errors.New("scaler: non-finite value")
	ErrDegenerateFeature = errors.New("scaler: zero-variance feature")
)

// DegenerateFeatureError lists features whose variance was zero at fit time.
// Their scale is pinned to 1, so the State returned with this error is valid.
type DegenerateFeatureError struct {
	Features []string
}

func (e *DegenerateFeatureError) Error() string {
	return "scaler: zero-variance features " + strings.Join(e.Features, ", ") + " (scale set to 1)"
}

// Is makes errors.Is(err, ErrDegenerateFeature) hold.
func (e *DegenerateFeatureError) Is(target error) bool {
	return target == ErrDegenerateFeature
}
