package client

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrModelUnavailable = errors.New("server has no model loaded")
)

// StatusError is a non-2xx answer that is not a validation failure.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s: %s", ErrUnexpectedStatus, e.StatusCode, e.Code, e.Message)
}

// Is matches ErrUnexpectedStatus for every StatusError and
// ErrModelUnavailable for 503 answers.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnexpectedStatus:
		return true
	case ErrModelUnavailable:
		return e.Code == "model_unavailable"
	}
	return false
}
