// Package app wires the domain packages and adapters into the two runtime
// roles of the system: the offline training pipeline and the frozen
// inference service used by the HTTP API, the CLI and the batch scorer.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/okian/diabrisk/internal/adapters/artifact"
	"github.com/okian/diabrisk/internal/adapters/dataset"
	"github.com/okian/diabrisk/internal/domain/boosting"
	"github.com/okian/diabrisk/internal/domain/evaluation"
	"github.com/okian/diabrisk/internal/domain/scaler"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/pkg/logger"
	"github.com/okian/diabrisk/pkg/metrics"
)

// Default training settings.
const (
	DefaultTestRatio   = 0.2
	DefaultTopFeatures = 10
)

// TrainingConfig holds the inputs of one training run.
type TrainingConfig struct {
	DataPath    string
	ArtifactDir string
	FeatureSet  schema.FeatureSet
	TestRatio   float64
	Params      boosting.Params
}

// DefaultTrainingConfig returns the default settings for the given paths.
func DefaultTrainingConfig(dataPath, artifactDir string) TrainingConfig {
	return TrainingConfig{
		DataPath:    dataPath,
		ArtifactDir: artifactDir,
		FeatureSet:  schema.FeatureSetCore,
		TestRatio:   DefaultTestRatio,
		Params:      boosting.DefaultParams(),
	}
}

// TrainingReport summarizes a successful run.
type TrainingReport struct {
	PairID      string                `json:"pair_id"`
	ArtifactDir string                `json:"artifact_dir"`
	Features    []string              `json:"features"`
	Rows        int                   `json:"rows"`
	Duplicates  int                   `json:"duplicates"`
	NoTarget    int                   `json:"missing_target"`
	Imputed     int                   `json:"imputed_cells"`
	TrainRows   int                   `json:"train_rows"`
	TestRows    int                   `json:"test_rows"`
	Metrics     evaluation.Metrics    `json:"metrics"`
	TopFeatures []boosting.Importance `json:"top_features"`
	Degenerate  []string              `json:"degenerate_features,omitempty"`
	Duration    time.Duration         `json:"duration"`
}

// Pipeline runs Load, Clean, Split, FitScaler, ScaleTrain, FitModel,
// Evaluate and Persist in order. It stops at the first failing stage and
// only writes artifacts in the last one.
type Pipeline struct {
	cfg    TrainingConfig
	topK   int
	logger logger.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets a custom logger for the pipeline.
func WithPipelineLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTopFeatures sets how many features the report ranks.
func WithTopFeatures(k int) PipelineOption {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// NewPipeline constructs a pipeline for cfg.
func NewPipeline(cfg TrainingConfig, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		topK:   DefaultTopFeatures,
		logger: logger.Get().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every stage and returns the report of the persisted pair.
// Failures are returned as *PipelineError.
func (p *Pipeline) Run(ctx context.Context) (*TrainingReport, error) {
	start := time.Now()
	report, err := p.run(ctx)
	if err != nil {
		metrics.RecordTrainingRun("failure")
		var pe *PipelineError
		if errors.As(err, &pe) {
			p.logger.Error(ctx, "training aborted", logger.String("stage", string(pe.Stage)), logger.Error(pe.Err))
		}
		return nil, err
	}
	report.Duration = time.Since(start)

	metrics.RecordTrainingRun("success")
	metrics.RecordTrainingDuration(report.Duration.Seconds())
	metrics.UpdateTrainingRMSE(report.Metrics.RMSE)

	p.logger.Info(ctx, "training complete",
		logger.String("pair_id", report.PairID),
		logger.Float64("rmse", report.Metrics.RMSE),
		logger.Float64("mae", report.Metrics.MAE),
		logger.Float64("r2", report.Metrics.R2),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context) (*TrainingReport, error) {
	cfg := p.cfg
	fail := func(stage Stage, err error) (*TrainingReport, error) {
		return nil, &PipelineError{Stage: stage, Err: err}
	}

	s, err := schema.New(cfg.FeatureSet)
	if err != nil {
		return fail(StageLoad, err)
	}
	if err := cfg.Params.Validate(); err != nil {
		return fail(StageLoad, err)
	}
	dsOpts := []dataset.Option{dataset.WithLogger(p.logger)}

	// Load
	records, err := dataset.Load(ctx, cfg.DataPath, s, dsOpts...)
	if err != nil {
		return fail(StageLoad, err)
	}
	metrics.UpdateTrainingRows("loaded", len(records))

	// Clean
	matrix, stats, err := dataset.Clean(ctx, records, s, dsOpts...)
	if err != nil {
		return fail(StageClean, err)
	}
	metrics.UpdateTrainingRows("cleaned", stats.Kept)
	if stats.Duplicates > 0 {
		p.logger.Warn(ctx, "duplicate (user_id, date) rows dropped", logger.Int("count", stats.Duplicates))
	}

	// Split
	trainIdx, testIdx, err := dataset.Split(len(matrix.Y), cfg.TestRatio, cfg.Params.Seed)
	if err != nil {
		return fail(StageSplit, err)
	}
	trainX, trainY := matrix.Take(trainIdx)
	testX, testY := matrix.Take(testIdx)
	metrics.UpdateTrainingRows("train", len(trainY))
	metrics.UpdateTrainingRows("test", len(testY))

	// FitScaler, on the training split only
	st, err := scaler.Fit(matrix.Features, trainX)
	var degenerate *scaler.DegenerateFeatureError
	switch {
	case errors.As(err, &degenerate):
		p.logger.Warn(ctx, "constant features left unscaled", logger.Strings("features", degenerate.Features))
	case err != nil:
		return fail(StageFitScaler, err)
	}

	// ScaleTrain
	scaledTrain, err := st.TransformAll(trainX)
	if err != nil {
		return fail(StageScaleTrain, err)
	}
	scaledTest, err := st.TransformAll(testX)
	if err != nil {
		return fail(StageScaleTrain, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(StageFitModel, err)
	}

	// FitModel
	ens, err := boosting.Fit(matrix.Features, scaledTrain, trainY, cfg.Params)
	if err != nil {
		return fail(StageFitModel, err)
	}

	// Evaluate
	predicted, err := ens.PredictAll(scaledTest)
	if err != nil {
		return fail(StageEvaluate, err)
	}
	m, err := evaluation.Evaluate(predicted, testY)
	if err != nil {
		return fail(StageEvaluate, err)
	}
	p.logger.Info(ctx, "held-out evaluation",
		logger.Float64("rmse", m.RMSE),
		logger.Int("samples", m.Samples),
	)
	top := ens.TopFeatures(p.topK)
	for i, imp := range top {
		p.logger.Debug(ctx, "feature importance",
			logger.Int("rank", i+1),
			logger.String("feature", imp.Feature),
			logger.Float64("gain", imp.Gain),
			logger.Int("splits", imp.Splits),
		)
	}

	// Persist
	saved, err := artifact.Save(ctx, cfg.ArtifactDir, artifact.Bundle{
		Schema:  s,
		Scaler:  st,
		Model:   ens,
		Params:  cfg.Params,
		Metrics: m,
	}, artifact.WithLogger(p.logger))
	if err != nil {
		return fail(StagePersist, err)
	}

	report := &TrainingReport{
		PairID:      saved.PairID,
		ArtifactDir: cfg.ArtifactDir,
		Features:    matrix.Features,
		Rows:        stats.Rows,
		Duplicates:  stats.Duplicates,
		NoTarget:    stats.MissingTarget,
		Imputed:     stats.ImputedCells,
		TrainRows:   len(trainY),
		TestRows:    len(testY),
		Metrics:     m,
		TopFeatures: top,
	}
	if degenerate != nil {
		report.Degenerate = degenerate.Features
	}
	return report, nil
}
