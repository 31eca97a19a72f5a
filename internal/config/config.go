// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and DIABRISK_* env vars over the defaults.
// - Invalid values are reported as ErrInvalidConfig.
package config

import (
	"context"
	"runtime"

	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/domain/boosting"
	"github.com/okian/diabrisk/internal/domain/schema"
)

// Config contains process configuration shared by every command.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ArtifactDir holds scaler.json and diabetes_risk_model.json.
	ArtifactDir string `koanf:"artifact_dir"`

	// DataPath is the training CSV.
	DataPath string `koanf:"data_path"`

	// FeatureSet selects the ordered feature list used for training.
	FeatureSet string `koanf:"feature_set"`

	// TestRatio is the held-out fraction, in (0, 1).
	TestRatio float64 `koanf:"test_ratio"`

	// Seed drives the split and row subsampling.
	Seed int64 `koanf:"seed"`

	// Boosting hyperparameters.
	NTrees          int     `koanf:"n_trees"`
	LearningRate    float64 `koanf:"learning_rate"`
	MaxDepth        int     `koanf:"max_depth"`
	Subsample       float64 `koanf:"subsample"`
	Lambda          float64 `koanf:"lambda"`
	MinChildSamples int     `koanf:"min_child_samples"`
	MinSplitGain    float64 `koanf:"min_split_gain"`

	// WorkerCount sets the number of batch scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the batch scoring queue.
	QueueSize int `koanf:"queue_size"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	p := boosting.DefaultParams()
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8080",
		ArtifactDir:     "artifacts",
		DataPath:        "data/diabetes_daily.csv",
		FeatureSet:      string(schema.FeatureSetCore),
		TestRatio:       app.DefaultTestRatio,
		Seed:            p.Seed,
		NTrees:          p.NTrees,
		LearningRate:    p.LearningRate,
		MaxDepth:        p.MaxDepth,
		Subsample:       p.Subsample,
		Lambda:          p.Lambda,
		MinChildSamples: p.MinChildSamples,
		MinSplitGain:    p.MinSplitGain,
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       1024,
	}
}

// Params returns the boosting hyperparameters.
func (c *Config) Params() boosting.Params {
	return boosting.Params{
		NTrees:          c.NTrees,
		LearningRate:    c.LearningRate,
		MaxDepth:        c.MaxDepth,
		Subsample:       c.Subsample,
		Lambda:          c.Lambda,
		MinChildSamples: c.MinChildSamples,
		MinSplitGain:    c.MinSplitGain,
		Seed:            c.Seed,
	}
}

// Training returns the settings of one pipeline run.
func (c *Config) Training() app.TrainingConfig {
	return app.TrainingConfig{
		DataPath:    c.DataPath,
		ArtifactDir: c.ArtifactDir,
		FeatureSet:  schema.FeatureSet(c.FeatureSet),
		TestRatio:   c.TestRatio,
		Params:      c.Params(),
	}
}
