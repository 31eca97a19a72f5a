// Package evaluation computes regression diagnostics on a held-out split.
package evaluation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when predictions and targets differ in length.
var ErrLengthMismatch = errors.New("evaluation: length mismatch")

// Metrics holds the diagnostics reported after training.
type Metrics struct {
	RMSE    float64 `json:"rmse"`
	MAE     float64 `json:"mae"`
	R2      float64 `json:"r2"`
	Samples int     `json:"samples"`
}

// Evaluate compares predictions against actual targets.
// R2 is reported as 0 when the targets have no variance.
func Evaluate(predicted, actual []float64) (Metrics, error) {
	if len(predicted) != len(actual) {
		return Metrics{}, fmt.Errorf("%w: %d predictions, %d targets", ErrLengthMismatch, len(predicted), len(actual))
	}
	if len(actual) == 0 {
		return Metrics{}, nil
	}
	n := float64(len(actual))
	m := Metrics{
		RMSE:    floats.Distance(predicted, actual, 2) / math.Sqrt(n),
		MAE:     floats.Distance(predicted, actual, 1) / n,
		Samples: len(actual),
	}
	if stat.Variance(actual, nil) > 0 {
		m.R2 = stat.RSquaredFrom(predicted, actual, nil)
	}
	return m, nil
}

// RMSE returns the root-mean-squared error.
func RMSE(predicted, actual []float64) (float64, error) {
	m, err := Evaluate(predicted, actual)
	return m.RMSE, err
}
