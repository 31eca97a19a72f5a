package scoring_test

import (
	"context"
	"testing"

	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
	scoring "github.com/okian/diabrisk/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBandFor(t *testing.T) {
	Convey("Given risk scores around the band edges", t, func() {
		cases := []struct {
			score float64
			band  model.RiskBand
		}{
			{-3, model.BandLow},
			{0, model.BandLow},
			{19.999, model.BandLow},
			{20, model.BandModerate},
			{49.5, model.BandModerate},
			{50, model.BandHigh},
			{120, model.BandHigh},
		}

		Convey("Then each should land in its band", func() {
			for _, tc := range cases {
				So(scoring.BandFor(tc.score), ShouldEqual, tc.band)
			}
		})

		Convey("Then every band should have advice", func() {
			for _, b := range []model.RiskBand{model.BandLow, model.BandModerate, model.BandHigh} {
				So(scoring.Advice(b), ShouldNotBeEmpty)
			}
		})
	})
}

func TestScorerFunc(t *testing.T) {
	Convey("Given a function scorer", t, func() {
		var s scoring.Scorer = scoring.ScorerFunc(func(_ context.Context, raw schema.RawFields) (model.Prediction, error) {
			return model.Prediction{RiskScore: 42, Band: scoring.BandFor(42)}, nil
		})

		Convey("When scoring", func() {
			p, err := s.Score(context.Background(), schema.RawFields{})

			Convey("Then the function result is returned", func() {
				So(err, ShouldBeNil)
				So(p.RiskScore, ShouldEqual, 42)
				So(p.Band, ShouldEqual, model.BandModerate)
			})
		})
	})
}
