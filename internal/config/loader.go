package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/diabrisk/internal/domain/schema"
)

// Environment knobs read by Load.
const (
	EnvConfigPath = "DIABRISK_CONFIG"
	EnvPrefix     = "DIABRISK_"
)

// LoadOption adjusts where Load reads from.
type LoadOption func(*loadSettings)

type loadSettings struct {
	path string
}

// WithFile reads the YAML file at path instead of the one named by
// DIABRISK_CONFIG. An empty path keeps the env lookup.
func WithFile(path string) LoadOption {
	return func(s *loadSettings) {
		if path != "" {
			s.path = path
		}
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) from WithFile or DIABRISK_CONFIG
//  3. env (prefix DIABRISK_)
func Load(ctx context.Context, opts ...LoadOption) (*Config, error) {
	settings := loadSettings{path: os.Getenv(EnvConfigPath)}
	for _, opt := range opts {
		opt(&settings)
	}
	base := New(ctx)

	k := koanf.New(".")

	if path := settings.path; path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// DIABRISK_N_TREES -> n_trees. Underscores are kept to match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values every command relies on.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := schema.FeatureNames(schema.FeatureSet(c.FeatureSet)); err != nil {
		return fmt.Errorf("%w: feature_set %q: %v", ErrInvalidConfig, c.FeatureSet, err)
	}
	if !(c.TestRatio > 0 && c.TestRatio < 1) {
		return fmt.Errorf("%w: test_ratio must be in (0,1), got %v", ErrInvalidConfig, c.TestRatio)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be >= 1, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be >= 1, got %d", ErrInvalidConfig, c.QueueSize)
	}
	return nil
}
