package schema

import "errors"

// Sentinel kinds for schema errors. These allow errors.Is/As from callers.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnknownFeature    = errors.New("unknown feature")
	ErrDuplicateFeature  = errors.New("duplicate feature")
	ErrUnknownFeatureSet = errors.New("unknown feature set")
	ErrEmptySchema       = errors.New("schema has no features")
)

// ValidationError reports the first raw field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
