// Package boosting implements a gradient-boosted ensemble of regression trees
// trained on squared error.
package boosting

import (
	"fmt"
	"sort"
)

// Ensemble is a trained, immutable boosted model. Predictions are
// BaseScore + LearningRate * sum of leaf values over all trees.
type Ensemble struct {
	features     []string
	baseScore    float64
	learningRate float64
	trees        []Tree
}

// Importance summarizes how much one feature is used by the ensemble.
type Importance struct {
	Feature string  `json:"feature"`
	Splits  int     `json:"splits"`
	Gain    float64 `json:"gain"`
}

// New assembles an ensemble from its parts and validates every tree against
// the feature count. It is used when restoring persisted models.
func New(features []string, baseScore, learningRate float64, trees []Tree) (*Ensemble, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no features", ErrShapeMismatch)
	}
	if !isFinite(baseScore) {
		return nil, fmt.Errorf("%w: base score", ErrNonFinite)
	}
	if !(learningRate > 0 && learningRate <= 1) {
		return nil, fmt.Errorf("%w: learning_rate %v", ErrInvalidParams, learningRate)
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: ensemble has no trees", ErrMalformedTree)
	}
	e := &Ensemble{
		features:     append([]string(nil), features...),
		baseScore:    baseScore,
		learningRate: learningRate,
		trees:        make([]Tree, len(trees)),
	}
	for i, t := range trees {
		if err := t.validate(len(features)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		e.trees[i] = t.clone()
	}
	return e, nil
}

// Predict scores one scaled vector.
func (e *Ensemble) Predict(v []float64) (float64, error) {
	if len(v) != len(e.features) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrShapeMismatch, len(v), len(e.features))
	}
	sum := 0.0
	for _, t := range e.trees {
		sum += t.Leaf(v)
	}
	return e.baseScore + e.learningRate*sum, nil
}

// PredictAll scores every row.
func (e *Ensemble) PredictAll(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		p, err := e.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Features returns the ordered feature names the ensemble expects.
func (e *Ensemble) Features() []string { return append([]string(nil), e.features...) }

// BaseScore returns the initial prediction before any tree.
func (e *Ensemble) BaseScore() float64 { return e.baseScore }

// LearningRate returns the shrinkage applied to every tree.
func (e *Ensemble) LearningRate() float64 { return e.learningRate }

// NumTrees returns the number of trees.
func (e *Ensemble) NumTrees() int { return len(e.trees) }

// Trees returns a deep copy of the trees.
func (e *Ensemble) Trees() []Tree {
	out := make([]Tree, len(e.trees))
	for i, t := range e.trees {
		out[i] = t.clone()
	}
	return out
}

// Importance aggregates split counts and gain per feature, ordered by total
// gain, then split count, then feature order. Unused features are omitted.
func (e *Ensemble) Importance() []Importance {
	agg := make([]Importance, len(e.features))
	for j, name := range e.features {
		agg[j].Feature = name
	}
	for _, t := range e.trees {
		for _, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			agg[n.Feature].Splits++
			agg[n.Feature].Gain += n.Gain
		}
	}

	order := make([]int, 0, len(agg))
	for j := range agg {
		if agg[j].Splits > 0 {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		x, y := agg[order[a]], agg[order[b]]
		if x.Gain != y.Gain {
			return x.Gain > y.Gain
		}
		if x.Splits != y.Splits {
			return x.Splits > y.Splits
		}
		return order[a] < order[b]
	})

	out := make([]Importance, len(order))
	for i, j := range order {
		out[i] = agg[j]
	}
	return out
}

// TopFeatures returns at most k entries of Importance.
func (e *Ensemble) TopFeatures(k int) []Importance {
	all := e.Importance()
	if k >= 0 && k < len(all) {
		return all[:k]
	}
	return all
}
