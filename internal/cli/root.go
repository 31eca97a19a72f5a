// Package cli builds the diabrisk command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/diabrisk/internal/config"
	"github.com/okian/diabrisk/pkg/logger"
)

// globals carries the persistent flags and the loaded configuration to
// every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log logger.Logger
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd(version string) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "diabrisk",
		Short: "Train and serve a daily diabetes risk model",
		Long: `diabrisk trains a gradient boosted regressor on daily health entries
and serves it for scoring.

Configuration is layered: defaults, then the YAML file given by --config or
DIABRISK_CONFIG, then DIABRISK_* environment variables, then command flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (overrides DIABRISK_CONFIG)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(newTrainCmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newPredictCmd(g))
	root.AddCommand(newScoreCmd(g))
	root.AddCommand(newGenCmd())

	return root
}

// setup loads the configuration and initializes logging on stderr, leaving
// stdout to command output.
func (g *globals) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, config.WithFile(g.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}

	if err := logger.Init(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithWriter(cmd.ErrOrStderr()),
	); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	g.cfg = cfg
	g.log = logger.Get().Named(cmd.Name())
	return nil
}
