package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/diabrisk/internal/adapters/dataset"
	"github.com/okian/diabrisk/internal/adapters/http/client"
	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/internal/domain/scoring"
)

func newScoreCmd(g *globals) *cobra.Command {
	var (
		in     string
		out    string
		server string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a CSV of daily entries",
		Long: `Score every row of a CSV of daily entries through the worker pool and
write row, user_id, date, risk_score, band, advice and error per row. Rows that fail
validation are reported in the error column and do not stop the batch.`,
		Example: `  diabrisk score --in entries.csv --out scores.csv
  diabrisk score --in entries.csv --server http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			cfg := g.cfg
			overrideString(flags, "artifacts", &cfg.ArtifactDir)
			overrideInt(flags, "workers", &cfg.WorkerCount)
			overrideInt(flags, "queue-size", &cfg.QueueSize)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			scorer, s, err := openScorer(ctx, g, server)
			if err != nil {
				return err
			}

			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open entries: %w", err)
			}
			defer f.Close()
			jobs, err := dataset.ReadEntries(ctx, f, s)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}

			results, err := app.NewBatchScorer(scorer,
				app.WithWorkerCount(cfg.WorkerCount),
				app.WithQueueSize(cfg.QueueSize),
				app.WithBatchLogger(g.log),
			).ScoreAll(ctx, jobs)
			if err != nil {
				return err
			}

			return writeOutput(out, cmd.OutOrStdout(), func(w io.Writer) error {
				return dataset.WriteScores(w, results)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in, "in", "i", "", "Entries CSV to score")
	f.StringVarP(&out, "out", "o", "-", "Scores CSV, - for stdout")
	f.StringVar(&server, "server", "", "Score against a running server instead of local artifacts")
	f.String("artifacts", "", "Artifact directory (config artifact_dir)")
	f.Int("workers", 0, "Scoring workers (config worker_count)")
	f.Int("queue-size", 0, "Job queue capacity (config queue_size)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

// openScorer returns the scorer and the feature schema entries are read
// with. A remote model's schema comes from its GET /model description.
func openScorer(ctx context.Context, g *globals, server string) (scoring.Scorer, *schema.Schema, error) {
	if server != "" {
		c := client.New(server)
		info, err := c.Model(ctx)
		if err != nil {
			return nil, nil, err
		}
		s, err := schema.ForFeatures(info.Features)
		if err != nil {
			return nil, nil, fmt.Errorf("server features: %w", err)
		}
		return c, s, nil
	}
	svc, err := app.LoadInference(ctx, g.cfg.ArtifactDir, app.WithInferenceLogger(g.log))
	if err != nil {
		return nil, nil, err
	}
	return svc, svc.Schema(), nil
}

// writeOutput writes to path, or to stdout when path is "-" or empty. Files
// are created fresh and closed before returning.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
