package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/diabrisk/internal/adapters/http/client"
	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
)

// predictor is what predict and score need from a local or remote model.
type predictor interface {
	Predict(ctx context.Context, raw schema.RawFields) (model.Prediction, error)
	Score(ctx context.Context, raw schema.RawFields) (model.Prediction, error)
}

func newPredictCmd(g *globals) *cobra.Command {
	var (
		fields     []string
		server     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one daily entry",
		Long: `Score one entry given as repeated --field key=value pairs, either with
the local artifact pair or against a running server.`,
		Example: `  diabrisk predict --field blood_glucose=110 --field physical_activity=30 \
    --field diet=healthy --field medication_adherence=good \
    --field stress_level=low --field sleep_hours=7
  diabrisk predict --server http://localhost:8080 --field ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := parseFields(fields)
			if err != nil {
				return err
			}
			overrideString(cmd.Flags(), "artifacts", &g.cfg.ArtifactDir)

			ctx := cmd.Context()
			p, err := openPredictor(ctx, g, server)
			if err != nil {
				return err
			}
			pred, err := p.Predict(ctx, raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return json.NewEncoder(out).Encode(pred)
			}
			_, err = fmt.Fprintf(out, "risk_score=%.4f band=%s pair_id=%s\n%s\n", pred.RiskScore, pred.Band, pred.PairID, pred.Advice)
			return err
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&fields, "field", "f", nil, "Raw field as key=value, repeatable")
	f.StringVar(&server, "server", "", "Score against a running server instead of local artifacts")
	f.String("artifacts", "", "Artifact directory (config artifact_dir)")
	f.BoolVarP(&jsonOutput, "json", "j", false, "Print the prediction as JSON")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

// openPredictor loads the local pair, or returns a client when server is set.
func openPredictor(ctx context.Context, g *globals, server string) (predictor, error) {
	if server != "" {
		return client.New(server), nil
	}
	return app.LoadInference(ctx, g.cfg.ArtifactDir, app.WithInferenceLogger(g.log))
}
