// Package scoring defines the contract for computing a risk score from raw
// daily fields, and the banding applied to the score.
package scoring

import (
	"context"

	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
)

// Band boundaries on the risk score.
const (
	ModerateFloor = 20.0
	HighFloor     = 50.0
)

// Scorer computes a prediction from raw field values. Implementations must be
// safe for concurrent use.
type Scorer interface {
	// Score validates and scores raw, honoring ctx for cancellation.
	Score(ctx context.Context, raw schema.RawFields) (model.Prediction, error)
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(ctx context.Context, raw schema.RawFields) (model.Prediction, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, raw schema.RawFields) (model.Prediction, error) {
	return f(ctx, raw)
}

// BandFor maps a score to its band: below 20 low, below 50 moderate, else high.
func BandFor(score float64) model.RiskBand {
	switch {
	case score < ModerateFloor:
		return model.BandLow
	case score < HighFloor:
		return model.BandModerate
	default:
		return model.BandHigh
	}
}

// Advice returns the guidance shown next to a band.
func Advice(band model.RiskBand) string {
	switch band {
	case model.BandLow:
		return "Risk is currently low. Keep maintaining your lifestyle."
	case model.BandModerate:
		return "Moderate risk. Consult your care team and work on physical activity, diet and stress management."
	default:
		return "High risk. Seek medical attention and follow your care plan closely."
	}
}
