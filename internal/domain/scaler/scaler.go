// Package scaler implements per-feature standardization fitted on training
// vectors and replayed verbatim at inference.
package scaler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// State holds the fitted per-index mean and scale. It is never modified after
// Fit or restore, so it may be shared across goroutines.
type State struct {
	features []string
	mean     []float64
	scale    []float64
}

// Fit computes the population mean and standard deviation of every column.
//
// A zero-variance column gets scale 1 and is reported through a
// *DegenerateFeatureError; the returned State is usable in that case.
func Fit(features []string, rows [][]float64) (*State, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	width := len(features)
	if width == 0 {
		return nil, fmt.Errorf("%w: no features", ErrShapeMismatch)
	}

	cols := make([][]float64, width)
	for j := range cols {
		cols[j] = make([]float64, len(rows))
	}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), width)
		}
		for j, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("%w: row %d feature %s", ErrNonFinite, i, features[j])
			}
			cols[j][i] = x
		}
	}

	st := &State{
		features: append([]string(nil), features...),
		mean:     make([]float64, width),
		scale:    make([]float64, width),
	}
	var degenerate []string
	for j, col := range cols {
		mean, std := stat.PopMeanStdDev(col, nil)
		st.mean[j] = mean
		// A constant column can still yield a tiny non-zero std from rounding.
		if floats.Min(col) == floats.Max(col) || std == 0 {
			std = 1
			degenerate = append(degenerate, features[j])
		}
		st.scale[j] = std
	}

	if len(degenerate) > 0 {
		return st, &DegenerateFeatureError{Features: degenerate}
	}
	return st, nil
}

// Restore rebuilds a State from persisted values.
func Restore(features []string, mean, scale []float64) (*State, error) {
	if len(features) == 0 || len(mean) != len(features) || len(scale) != len(features) {
		return nil, fmt.Errorf("%w: %d features, %d means, %d scales", ErrShapeMismatch, len(features), len(mean), len(scale))
	}
	for j := range features {
		if !finite(mean[j]) || !finite(scale[j]) || scale[j] <= 0 {
			return nil, fmt.Errorf("%w: feature %s", ErrNonFinite, features[j])
		}
	}
	return &State{
		features: append([]string(nil), features...),
		mean:     append([]float64(nil), mean...),
		scale:    append([]float64(nil), scale...),
	}, nil
}

// Transform standardizes v as (x - mean) / scale and returns a new slice.
func (s *State) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.mean) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrShapeMismatch, len(v), len(s.mean))
	}
	out := make([]float64, len(v))
	for j, x := range v {
		out[j] = (x - s.mean[j]) / s.scale[j]
	}
	return out, nil
}

// TransformAll applies Transform to every row.
func (s *State) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		t, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// Features returns the ordered feature names the state was fitted on.
func (s *State) Features() []string { return append([]string(nil), s.features...) }

// Mean returns a copy of the per-feature means.
func (s *State) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Scale returns a copy of the per-feature scales.
func (s *State) Scale() []float64 { return append([]float64(nil), s.scale...) }

// Len returns the number of features.
func (s *State) Len() int { return len(s.mean) }

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
