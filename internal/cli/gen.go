package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/diabrisk/internal/datagen"
	"github.com/okian/diabrisk/internal/domain/schema"
)

func newGenCmd() *cobra.Command {
	var (
		cfg        = datagen.DefaultConfig()
		featureSet string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic training CSV",
		Long: `Write synthetic daily entries in the training layout. The same seed
always produces the same file.`,
		Example: `  diabrisk gen --rows 5000 --out data/daily.csv
  diabrisk gen --rows 500 --feature-set extended --missing-rate 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.FeatureSet = schema.FeatureSet(featureSet)
			var stats datagen.Stats
			err := writeOutput(out, cmd.OutOrStdout(), func(w io.Writer) error {
				var err error
				stats, err = datagen.Generate(cmd.Context(), w, cfg)
				return err
			})
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows for %d users to %s (%d duplicates, %d blank cells)\n",
					stats.Rows, stats.Users, out, stats.Duplicates, stats.Blanks)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.IntVarP(&cfg.Rows, "rows", "n", cfg.Rows, "Data rows including duplicates")
	f.IntVar(&cfg.Users, "users", cfg.Users, "Distinct users")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Generator seed")
	f.StringVar(&featureSet, "feature-set", string(cfg.FeatureSet), "Feature set: core or extended")
	f.Float64Var(&cfg.MissingRate, "missing-rate", cfg.MissingRate, "Probability a feature cell is blank")
	f.Float64Var(&cfg.DuplicateRate, "duplicate-rate", cfg.DuplicateRate, "Probability a row repeats the previous user and date")
	f.StringVarP(&out, "out", "o", "-", "Output CSV, - for stdout")

	return cmd
}
