package app

import (
	"context"
	"errors"
	"time"

	"github.com/okian/diabrisk/internal/adapters/artifact"
	"github.com/okian/diabrisk/internal/domain/boosting"
	"github.com/okian/diabrisk/internal/domain/evaluation"
	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/internal/domain/scoring"
	"github.com/okian/diabrisk/pkg/logger"
	"github.com/okian/diabrisk/pkg/metrics"
)

// Inference scores raw daily fields with a loaded artifact pair. It is built
// complete and never mutated afterwards, so Predict needs no locking.
type Inference struct {
	bundle *artifact.Bundle
	logger logger.Logger
}

var _ scoring.Scorer = (*Inference)(nil)

// InferenceOption configures an Inference.
type InferenceOption func(*Inference)

// WithInferenceLogger sets a custom logger for the service.
func WithInferenceLogger(l logger.Logger) InferenceOption {
	return func(s *Inference) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewInference wraps an already loaded bundle.
func NewInference(b *artifact.Bundle, opts ...InferenceOption) (*Inference, error) {
	if b == nil || b.Schema == nil || b.Scaler == nil || b.Model == nil {
		return nil, ErrModelNotLoaded
	}
	s := &Inference{
		bundle: b,
		logger: logger.Get().Named("inference"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoadInference loads and validates the pair in dir. A failure is an
// *artifact.ArtifactLoadError and leaves no service behind.
func LoadInference(ctx context.Context, dir string, opts ...InferenceOption) (*Inference, error) {
	s := &Inference{logger: logger.Get().Named("inference")}
	for _, opt := range opts {
		opt(s)
	}
	b, err := artifact.Load(ctx, dir, artifact.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.bundle = b
	return s, nil
}

// Predict encodes raw with the artifact's schema, standardizes it with the
// stored scaler and evaluates the model. Invalid input yields a
// *schema.ValidationError for the first offending field.
func (s *Inference) Predict(ctx context.Context, raw schema.RawFields) (model.Prediction, error) {
	if s == nil || s.bundle == nil {
		return model.Prediction{}, ErrModelNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return model.Prediction{}, err
	}

	start := time.Now()
	v, err := s.bundle.Schema.Encode(raw)
	if err != nil {
		metrics.RecordPredictionError(errorKind(err))
		return model.Prediction{}, err
	}
	scaled, err := s.bundle.Scaler.Transform(v)
	if err != nil {
		metrics.RecordPredictionError(errorKind(err))
		return model.Prediction{}, err
	}
	score, err := s.bundle.Model.Predict(scaled)
	if err != nil {
		metrics.RecordPredictionError(errorKind(err))
		return model.Prediction{}, err
	}

	band := scoring.BandFor(score)
	metrics.RecordPrediction(string(band))
	metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000)

	return model.Prediction{RiskScore: score, Band: band, PairID: s.bundle.PairID, Advice: scoring.Advice(band)}, nil
}

// Score implements scoring.Scorer.
func (s *Inference) Score(ctx context.Context, raw schema.RawFields) (model.Prediction, error) {
	return s.Predict(ctx, raw)
}

// Schema returns the feature layout requests must follow.
func (s *Inference) Schema() *schema.Schema {
	if s == nil || s.bundle == nil {
		return nil
	}
	return s.bundle.Schema
}

// ModelInfo describes the loaded pair.
type ModelInfo struct {
	PairID       string                `json:"pair_id"`
	CreatedAt    time.Time             `json:"created_at"`
	Features     []string              `json:"features"`
	NumTrees     int                   `json:"n_trees"`
	BaseScore    float64               `json:"base_score"`
	LearningRate float64               `json:"learning_rate"`
	Params       boosting.Params       `json:"params"`
	Metrics      evaluation.Metrics    `json:"metrics"`
	TopFeatures  []boosting.Importance `json:"top_features"`
}

// Info returns a description of the loaded pair.
func (s *Inference) Info() (ModelInfo, error) {
	if s == nil || s.bundle == nil {
		return ModelInfo{}, ErrModelNotLoaded
	}
	b := s.bundle
	return ModelInfo{
		PairID:       b.PairID,
		CreatedAt:    b.CreatedAt,
		Features:     b.Schema.Names(),
		NumTrees:     b.Model.NumTrees(),
		BaseScore:    b.Model.BaseScore(),
		LearningRate: b.Model.LearningRate(),
		Params:       b.Params,
		Metrics:      b.Metrics,
		TopFeatures:  b.Model.TopFeatures(DefaultTopFeatures),
	}, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, schema.ErrValidation):
		return "validation_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal_error"
	}
}
