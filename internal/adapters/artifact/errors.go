package artifact

import (
	"errors"
	"fmt"
)

// Sentinel kinds for artifact errors.
var (
	ErrArtifactLoad       = errors.New("artifact load failed")
	ErrWrongKind          = errors.New("unexpected artifact kind")
	ErrUnsupportedVersion = errors.New("unsupported artifact format version")
	ErrInvalidPairID      = errors.New("invalid pair id")
	ErrPairMismatch       = errors.New("scaler and model belong to different training runs")
	ErrFeatureMismatch    = errors.New("scaler and model features differ")
	ErrIncompleteBundle   = errors.New("bundle is missing scaler or model")
)

// ArtifactLoadError reports which file of the pair could not be used.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrArtifactLoad) hold for every ArtifactLoadError.
func (e *ArtifactLoadError) Is(target error) bool {
	return target == ErrArtifactLoad
}
