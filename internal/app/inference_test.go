package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/diabrisk/internal/adapters/artifact"
	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/domain/boosting"
	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/scaler"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// referenceEntry encodes to [110, 30, 1, 1, 0, 7].
func referenceEntry() schema.RawFields {
	return schema.RawFields{
		schema.BloodGlucose:        "110",
		schema.PhysicalActivity:    "30",
		schema.Diet:                "healthy",
		schema.MedicationAdherence: "good",
		schema.StressLevel:         "low",
		schema.SleepHours:          "7",
	}
}

// fixtureDir saves the reference pair: a scaler that maps the reference
// entry to [0.5, 1, 1, 1, -1, 0.5] and two trees giving 30 + 0.5*(10+2) = 36.
func fixtureDir(t *testing.T) string {
	t.Helper()
	names := schema.Core().Names()
	st, err := scaler.Restore(names,
		[]float64{100, 20, 0.5, 0.5, 1, 6},
		[]float64{20, 10, 0.5, 0.5, 1, 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	ens, err := boosting.New(names, 30, 0.5, []boosting.Tree{
		{Nodes: []boosting.Node{
			{Feature: 0, Threshold: 0, Left: 1, Right: 2, Gain: 5},
			{Leaf: true, Value: -5},
			{Leaf: true, Value: 10},
		}},
		{Nodes: []boosting.Node{
			{Feature: 4, Threshold: 0.5, Left: 1, Right: 2, Gain: 1},
			{Leaf: true, Value: 2},
			{Leaf: true, Value: 4},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if _, err := artifact.Save(context.Background(), dir, artifact.Bundle{Scaler: st, Model: ens, Params: boosting.DefaultParams()}); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestInferencePredict(t *testing.T) {
	ctx := context.Background()

	Convey("Given an inference service over the reference pair", t, func() {
		dir := fixtureDir(t)
		svc, err := app.LoadInference(ctx, dir)
		So(err, ShouldBeNil)

		Convey("When the reference entry is scored", func() {
			p, err := svc.Predict(ctx, referenceEntry())

			Convey("Then the score should follow encode, scale and both trees", func() {
				So(err, ShouldBeNil)
				So(p.RiskScore, ShouldAlmostEqual, 36, 1e-9)
				So(p.Band, ShouldEqual, model.BandModerate)
				So(p.Advice, ShouldEqual, scoring.Advice(model.BandModerate))
				info, _ := svc.Info()
				So(p.PairID, ShouldEqual, info.PairID)
			})

			Convey("Then repeated calls should return the same result", func() {
				again, err := svc.Score(ctx, referenceEntry())
				So(err, ShouldBeNil)
				So(again, ShouldResemble, p)
			})
		})

		Convey("When entries land in other leaves", func() {
			low := referenceEntry()
			low[schema.BloodGlucose] = "80"
			low[schema.StressLevel] = "high"
			p, err := svc.Predict(ctx, low)

			Convey("Then the matching leaves should be summed", func() {
				So(err, ShouldBeNil)
				// 80 scales to -1 (left, -5), stress 2 scales to 1 (right, 4).
				So(p.RiskScore, ShouldAlmostEqual, 29.5, 1e-9)
				So(p.Band, ShouldEqual, model.BandModerate)
			})
		})

		Convey("When fields are invalid", func() {
			cases := []struct {
				field, value string
			}{
				{schema.BloodGlucose, "0"},
				{schema.BloodGlucose, "-5"},
				{schema.StressLevel, "extreme"},
				{schema.SleepHours, "seven"},
			}
			for _, tc := range cases {
				raw := referenceEntry()
				raw[tc.field] = tc.value
				_, err := svc.Predict(ctx, raw)

				var verr *schema.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, tc.field)
			}
		})

		Convey("When a field is missing", func() {
			raw := referenceEntry()
			delete(raw, schema.Diet)
			_, err := svc.Predict(ctx, raw)
			So(errors.Is(err, schema.ErrValidation), ShouldBeTrue)
		})

		Convey("When the context is already canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Predict(cctx, referenceEntry())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("When called from many goroutines", func() {
			var wg sync.WaitGroup
			scores := make([]float64, 32)
			for i := range scores {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					p, err := svc.Predict(ctx, referenceEntry())
					if err == nil {
						scores[i] = p.RiskScore
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every call should agree", func() {
				for _, s := range scores {
					So(s, ShouldAlmostEqual, 36, 1e-9)
				}
			})
		})

		Convey("When describing the model", func() {
			info, err := svc.Info()

			So(err, ShouldBeNil)
			So(info.Features, ShouldResemble, schema.Core().Names())
			So(info.NumTrees, ShouldEqual, 2)
			So(info.TopFeatures, ShouldHaveLength, 2)
			So(info.TopFeatures[0].Feature, ShouldEqual, schema.BloodGlucose)
			So(svc.Schema().Len(), ShouldEqual, 6)
		})
	})
}

func TestInferenceNotLoaded(t *testing.T) {
	ctx := context.Background()

	Convey("Given no loaded artifacts", t, func() {
		var svc *app.Inference

		Convey("Then every call should report it", func() {
			_, err := svc.Predict(ctx, referenceEntry())
			So(errors.Is(err, app.ErrModelNotLoaded), ShouldBeTrue)
			_, err = svc.Info()
			So(errors.Is(err, app.ErrModelNotLoaded), ShouldBeTrue)
			So(svc.Schema(), ShouldBeNil)
		})

		Convey("Then wrapping an empty bundle should fail", func() {
			_, err := app.NewInference(&artifact.Bundle{})
			So(errors.Is(err, app.ErrModelNotLoaded), ShouldBeTrue)
		})
	})

	Convey("Given an artifact directory with a mismatched model", t, func() {
		dir := fixtureDir(t)
		other := t.TempDir()
		names, _ := schema.FeatureNames(schema.FeatureSetExtended)
		names = names[:9]
		mean, scale := make([]float64, 9), make([]float64, 9)
		for i := range scale {
			scale[i] = 1
		}
		st, err := scaler.Restore(names, mean, scale)
		So(err, ShouldBeNil)
		ens, err := boosting.New(names, 1, 0.1, []boosting.Tree{{Nodes: []boosting.Node{{Leaf: true, Value: 1}}}})
		So(err, ShouldBeNil)
		_, err = artifact.Save(ctx, other, artifact.Bundle{Scaler: st, Model: ens})
		So(err, ShouldBeNil)
		data, err := os.ReadFile(filepath.Join(other, artifact.ModelFile))
		So(err, ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, artifact.ModelFile), data, 0o600), ShouldBeNil)

		Convey("When the service is loaded", func() {
			svc, err := app.LoadInference(ctx, dir)

			Convey("Then startup should fail with an artifact load error", func() {
				So(svc, ShouldBeNil)
				var loadErr *artifact.ArtifactLoadError
				So(errors.As(err, &loadErr), ShouldBeTrue)
				So(loadErr.Path, ShouldEqual, filepath.Join(dir, artifact.ModelFile))
			})
		})
	})
}
