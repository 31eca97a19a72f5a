package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/diabrisk/internal/app"
)

func newTrainCmd(g *globals) *cobra.Command {
	var (
		jsonOutput bool
		topK       int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a scaler and model pair from a CSV file",
		Long: `Load, clean and split the training CSV, fit the scaler on the train
split, boost the regression trees, evaluate on the held-out split and write
scaler.json and diabetes_risk_model.json to the artifact directory.`,
		Example: `  diabrisk train --data data/daily.csv
  diabrisk train --data data/daily.csv --feature-set extended --n-trees 300 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			cfg := g.cfg
			overrideString(flags, "data", &cfg.DataPath)
			overrideString(flags, "artifacts", &cfg.ArtifactDir)
			overrideString(flags, "feature-set", &cfg.FeatureSet)
			overrideFloat(flags, "test-ratio", &cfg.TestRatio)
			overrideInt(flags, "n-trees", &cfg.NTrees)
			overrideFloat(flags, "learning-rate", &cfg.LearningRate)
			overrideInt(flags, "max-depth", &cfg.MaxDepth)
			overrideFloat(flags, "subsample", &cfg.Subsample)
			overrideInt64(flags, "seed", &cfg.Seed)
			if err := cfg.Validate(); err != nil {
				return err
			}

			report, err := app.NewPipeline(cfg.Training(),
				app.WithPipelineLogger(g.log),
				app.WithTopFeatures(topK),
			).Run(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}

	f := cmd.Flags()
	f.String("data", "", "Training CSV (config data_path)")
	f.String("artifacts", "", "Artifact directory (config artifact_dir)")
	f.String("feature-set", "", "Feature set: core or extended")
	f.Float64("test-ratio", 0, "Held-out fraction in (0,1)")
	f.Int("n-trees", 0, "Boosting rounds")
	f.Float64("learning-rate", 0, "Shrinkage in (0,1]")
	f.Int("max-depth", 0, "Maximum tree depth")
	f.Float64("subsample", 0, "Row fraction per round in (0,1]")
	f.Int64("seed", 0, "Split and subsampling seed")
	f.IntVar(&topK, "top", app.DefaultTopFeatures, "Number of features in the importance ranking")
	f.BoolVarP(&jsonOutput, "json", "j", false, "Print the report as JSON")

	return cmd
}

func printReport(w io.Writer, r *app.TrainingReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "pair_id\t%s\n", r.PairID)
	fmt.Fprintf(tw, "artifacts\t%s\n", r.ArtifactDir)
	fmt.Fprintf(tw, "rows\t%d (duplicates %d, missing target %d, imputed cells %d)\n",
		r.Rows, r.Duplicates, r.NoTarget, r.Imputed)
	fmt.Fprintf(tw, "split\t%d train / %d test\n", r.TrainRows, r.TestRows)
	fmt.Fprintf(tw, "rmse\t%.4f\n", r.Metrics.RMSE)
	fmt.Fprintf(tw, "mae\t%.4f\n", r.Metrics.MAE)
	fmt.Fprintf(tw, "r2\t%.4f\n", r.Metrics.R2)
	fmt.Fprintf(tw, "duration\t%s\n", r.Duration)
	if len(r.Degenerate) > 0 {
		fmt.Fprintf(tw, "unscaled\t%v\n", r.Degenerate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.TopFeatures) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\ntop features:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "rank\tfeature\tgain\tsplits")
	for i, imp := range r.TopFeatures {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d\n", i+1, imp.Feature, imp.Gain, imp.Splits)
	}
	return tw.Flush()
}
