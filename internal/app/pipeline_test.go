package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/diabrisk/internal/adapters/artifact"
	"github.com/okian/diabrisk/internal/adapters/dataset"
	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/datagen"
	"github.com/okian/diabrisk/internal/domain/boosting"
	"github.com/okian/diabrisk/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

func writeDataset(t *testing.T, cfg datagen.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := datagen.Generate(context.Background(), f, cfg); err != nil {
		t.Fatal(err)
	}
	return path
}

func smallParams() boosting.Params {
	p := boosting.DefaultParams()
	p.NTrees = 40
	p.MaxDepth = 3
	return p
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a synthetic training file", t, func() {
		gen := datagen.DefaultConfig()
		gen.Rows = 400
		gen.Users = 20
		dataPath := writeDataset(t, gen)
		artifactDir := filepath.Join(t.TempDir(), "artifacts")

		cfg := app.DefaultTrainingConfig(dataPath, artifactDir)
		cfg.Params = smallParams()

		Convey("When the pipeline runs", func() {
			report, err := app.NewPipeline(cfg, app.WithTopFeatures(3)).Run(ctx)

			Convey("Then it should report the split and metrics", func() {
				So(err, ShouldBeNil)
				So(report.Rows, ShouldEqual, 400)
				So(report.TrainRows+report.TestRows, ShouldEqual, 400-report.Duplicates-report.NoTarget)
				So(report.TestRows, ShouldBeGreaterThan, 0)
				So(report.Metrics.Samples, ShouldEqual, report.TestRows)
				So(report.Metrics.RMSE, ShouldBeGreaterThan, 0)
				So(report.TopFeatures, ShouldNotBeEmpty)
				So(len(report.TopFeatures), ShouldBeLessThanOrEqualTo, 3)
				So(report.Features, ShouldResemble, schema.Core().Names())
			})

			Convey("Then the model should beat predicting the mean", func() {
				So(err, ShouldBeNil)
				So(report.Metrics.R2, ShouldBeGreaterThan, 0.3)
			})

			Convey("Then the persisted pair should load and score", func() {
				svc, err := app.LoadInference(ctx, artifactDir)
				So(err, ShouldBeNil)
				info, _ := svc.Info()
				So(info.PairID, ShouldEqual, report.PairID)
				So(info.NumTrees, ShouldEqual, 40)
				So(info.Metrics.RMSE, ShouldEqual, report.Metrics.RMSE)

				p, err := svc.Predict(ctx, referenceEntry())
				So(err, ShouldBeNil)
				So(p.PairID, ShouldEqual, report.PairID)
			})

			Convey("Then a second run with the same seed should score identically", func() {
				otherDir := filepath.Join(t.TempDir(), "again")
				cfg2 := cfg
				cfg2.ArtifactDir = otherDir
				_, err := app.NewPipeline(cfg2).Run(ctx)
				So(err, ShouldBeNil)

				a, _ := app.LoadInference(ctx, artifactDir)
				b, _ := app.LoadInference(ctx, otherDir)
				pa, _ := a.Predict(ctx, referenceEntry())
				pb, _ := b.Predict(ctx, referenceEntry())
				So(pa.RiskScore, ShouldEqual, pb.RiskScore)
			})
		})

		Convey("When trained on the extended feature set", func() {
			gen.FeatureSet = schema.FeatureSetExtended
			cfg.DataPath = writeDataset(t, gen)
			cfg.FeatureSet = schema.FeatureSetExtended
			_, err := app.NewPipeline(cfg).Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then inference should require the extended fields", func() {
				svc, err := app.LoadInference(ctx, artifactDir)
				So(err, ShouldBeNil)
				So(svc.Schema().Len(), ShouldEqual, 11)

				_, err = svc.Predict(ctx, referenceEntry())
				var verr *schema.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, schema.HydrationLevel)

				raw := referenceEntry()
				raw[schema.HydrationLevel] = "yes"
				raw[schema.Age] = "45"
				raw[schema.Weight] = "80.5"
				raw[schema.Height] = "175"
				raw[schema.ActivityLevel] = "moderate"
				_, err = svc.Predict(ctx, raw)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestPipelineFailures(t *testing.T) {
	ctx := context.Background()

	assertStage := func(err error, stage app.Stage) {
		var pe *app.PipelineError
		So(errors.As(err, &pe), ShouldBeTrue)
		So(errors.Is(err, app.ErrPipeline), ShouldBeTrue)
		So(pe.Stage, ShouldEqual, stage)
	}
	assertNothingPersisted := func(dir string) {
		_, err := os.Stat(filepath.Join(dir, artifact.ScalerFile))
		So(os.IsNotExist(err), ShouldBeTrue)
		_, err = os.Stat(filepath.Join(dir, artifact.ModelFile))
		So(os.IsNotExist(err), ShouldBeTrue)
	}

	Convey("Given a pipeline with an artifact directory", t, func() {
		artifactDir := t.TempDir()
		write := func(content string) string {
			path := filepath.Join(t.TempDir(), "train.csv")
			So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)
			return path
		}
		const header = "user_id,date,blood_glucose,physical_activity,diet,medication_adherence,stress_level,sleep_hours,risk_score\n"

		Convey("When the data file is missing", func() {
			cfg := app.DefaultTrainingConfig(filepath.Join(t.TempDir(), "missing.csv"), artifactDir)
			_, err := app.NewPipeline(cfg).Run(ctx)

			assertStage(err, app.StageLoad)
			assertNothingPersisted(artifactDir)
		})

		Convey("When a column is missing", func() {
			cfg := app.DefaultTrainingConfig(write("user_id,date,blood_glucose,risk_score\nu1,d1,100,5\n"), artifactDir)
			_, err := app.NewPipeline(cfg).Run(ctx)

			assertStage(err, app.StageLoad)
			So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
			assertNothingPersisted(artifactDir)
		})

		Convey("When a cell cannot be encoded", func() {
			cfg := app.DefaultTrainingConfig(write(header+
				"u1,d1,100,10,healthy,good,low,7,10\n"+
				"u2,d1,120,10,healthy,good,extreme,7,20\n"), artifactDir)
			_, err := app.NewPipeline(cfg).Run(ctx)

			assertStage(err, app.StageClean)
			So(errors.Is(err, schema.ErrValidation), ShouldBeTrue)
			assertNothingPersisted(artifactDir)
		})

		Convey("When only one usable row remains", func() {
			cfg := app.DefaultTrainingConfig(write(header+
				"u1,d1,100,10,healthy,good,low,7,10\n"+
				"u1,d1,120,10,healthy,good,low,7,20\n"), artifactDir)
			_, err := app.NewPipeline(cfg).Run(ctx)

			assertStage(err, app.StageSplit)
			So(errors.Is(err, dataset.ErrTooFewRows), ShouldBeTrue)
			assertNothingPersisted(artifactDir)
		})

		Convey("When hyperparameters are out of range", func() {
			cfg := app.DefaultTrainingConfig(write(header+"u1,d1,100,10,healthy,good,low,7,10\n"), artifactDir)
			cfg.Params.LearningRate = 2
			_, err := app.NewPipeline(cfg).Run(ctx)

			assertStage(err, app.StageLoad)
			So(errors.Is(err, boosting.ErrInvalidParams), ShouldBeTrue)
		})

		Convey("When the feature set is unknown", func() {
			cfg := app.DefaultTrainingConfig(write(header), artifactDir)
			cfg.FeatureSet = "everything"
			_, err := app.NewPipeline(cfg).Run(ctx)

			assertStage(err, app.StageLoad)
			So(errors.Is(err, schema.ErrUnknownFeatureSet), ShouldBeTrue)
		})

		Convey("When every row has the same features", func() {
			cfg := app.DefaultTrainingConfig(write(header+
				"u1,d1,100,10,healthy,good,low,7,10\n"+
				"u2,d1,100,10,healthy,good,low,7,20\n"+
				"u3,d1,100,10,healthy,good,low,7,30\n"+
				"u4,d1,100,10,healthy,good,low,7,40\n"+
				"u5,d1,100,10,healthy,good,low,7,50\n"), artifactDir)
			cfg.Params = smallParams()
			report, err := app.NewPipeline(cfg).Run(ctx)

			Convey("Then training should still complete with unscaled features", func() {
				So(err, ShouldBeNil)
				So(report.Degenerate, ShouldResemble, schema.Core().Names())
				So(report.TopFeatures, ShouldBeEmpty)
			})
		})
	})
}
