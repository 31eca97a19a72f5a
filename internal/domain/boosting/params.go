package boosting

import "fmt"

// Default hyperparameters, matching the reference training run.
const (
	DefaultNTrees          = 100
	DefaultLearningRate    = 0.1
	DefaultMaxDepth        = 5
	DefaultSubsample       = 1.0
	DefaultLambda          = 1.0
	DefaultMinChildSamples = 1
	DefaultSeed            = 42
)

// Params are the fixed hyperparameters of one training run.
type Params struct {
	// NTrees is the number of boosting rounds.
	NTrees int `json:"n_trees"`
	// LearningRate shrinks every tree's contribution, in (0, 1].
	LearningRate float64 `json:"learning_rate"`
	// MaxDepth bounds the number of split levels per tree.
	MaxDepth int `json:"max_depth"`
	// Subsample is the fraction of rows drawn per round, in (0, 1].
	Subsample float64 `json:"subsample"`
	// Lambda is the L2 penalty on leaf weights.
	Lambda float64 `json:"lambda"`
	// MinChildSamples is the minimum row count on each side of a split.
	MinChildSamples int `json:"min_child_samples"`
	// MinSplitGain is the loss reduction a split must exceed.
	MinSplitGain float64 `json:"min_split_gain"`
	// Seed drives row subsampling.
	Seed int64 `json:"seed"`
}

// DefaultParams returns the default hyperparameters.
func DefaultParams() Params {
	return Params{
		NTrees:          DefaultNTrees,
		LearningRate:    DefaultLearningRate,
		MaxDepth:        DefaultMaxDepth,
		Subsample:       DefaultSubsample,
		Lambda:          DefaultLambda,
		MinChildSamples: DefaultMinChildSamples,
		Seed:            DefaultSeed,
	}
}

// Validate checks every hyperparameter range.
func (p Params) Validate() error {
	switch {
	case p.NTrees < 1:
		return fmt.Errorf("%w: n_trees must be >= 1, got %d", ErrInvalidParams, p.NTrees)
	case !(p.LearningRate > 0 && p.LearningRate <= 1):
		return fmt.Errorf("%w: learning_rate must be in (0,1], got %v", ErrInvalidParams, p.LearningRate)
	case p.MaxDepth < 1:
		return fmt.Errorf("%w: max_depth must be >= 1, got %d", ErrInvalidParams, p.MaxDepth)
	case !(p.Subsample > 0 && p.Subsample <= 1):
		return fmt.Errorf("%w: subsample must be in (0,1], got %v", ErrInvalidParams, p.Subsample)
	case p.Lambda < 0:
		return fmt.Errorf("%w: lambda must be >= 0, got %v", ErrInvalidParams, p.Lambda)
	case p.MinChildSamples < 1:
		return fmt.Errorf("%w: min_child_samples must be >= 1, got %d", ErrInvalidParams, p.MinChildSamples)
	case p.MinSplitGain < 0:
		return fmt.Errorf("%w: min_split_gain must be >= 0, got %v", ErrInvalidParams, p.MinSplitGain)
	}
	return nil
}
