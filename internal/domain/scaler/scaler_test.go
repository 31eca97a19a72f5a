package scaler_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/diabrisk/internal/domain/scaler"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/stat"
)

const tolerance = 1e-9

func TestScaler_Fit(t *testing.T) {
	Convey("Given a set of training vectors", t, func() {
		features := []string{"a", "b", "c"}
		rows := [][]float64{
			{110, 30, 1},
			{145, 0, 0},
			{98, 60, 1},
			{180, 15, 0},
			{125, 45, 1},
		}

		Convey("When fitting the scaler", func() {
			st, err := scaler.Fit(features, rows)

			Convey("Then it should record population moments per feature", func() {
				So(err, ShouldBeNil)
				So(st.Len(), ShouldEqual, 3)
				So(st.Features(), ShouldResemble, features)
				So(st.Mean()[0], ShouldAlmostEqual, 131.6, tolerance)
				So(st.Mean()[2], ShouldAlmostEqual, 0.6, tolerance)
				So(st.Scale()[2], ShouldAlmostEqual, math.Sqrt(0.24), tolerance)
			})

			Convey("And transformed fitting rows should have zero mean and unit std", func() {
				scaled, err := st.TransformAll(rows)
				So(err, ShouldBeNil)
				for j := range features {
					col := make([]float64, len(scaled))
					for i := range scaled {
						col[i] = scaled[i][j]
					}
					mean, std := stat.PopMeanStdDev(col, nil)
					So(mean, ShouldAlmostEqual, 0, tolerance)
					So(std, ShouldAlmostEqual, 1, tolerance)
				}
			})

			Convey("And transform should not touch its input", func() {
				in := []float64{110, 30, 1}
				_, err := st.Transform(in)
				So(err, ShouldBeNil)
				So(in, ShouldResemble, []float64{110, 30, 1})
			})

			Convey("And transform should reject a vector of the wrong length", func() {
				_, err := st.Transform([]float64{1, 2})
				So(errors.Is(err, scaler.ErrShapeMismatch), ShouldBeTrue)
			})
		})

		Convey("When a column is constant", func() {
			constant := [][]float64{{1, 0.1}, {2, 0.1}, {3, 0.1}}
			st, err := scaler.Fit([]string{"x", "hydration"}, constant)

			Convey("Then it should report the feature and fall back to scale 1", func() {
				So(errors.Is(err, scaler.ErrDegenerateFeature), ShouldBeTrue)
				var derr *scaler.DegenerateFeatureError
				So(errors.As(err, &derr), ShouldBeTrue)
				So(derr.Features, ShouldResemble, []string{"hydration"})
				So(st, ShouldNotBeNil)
				So(st.Scale()[1], ShouldEqual, 1)

				out, err := st.Transform([]float64{2, 0.1})
				So(err, ShouldBeNil)
				So(math.IsNaN(out[1]), ShouldBeFalse)
				So(out[1], ShouldAlmostEqual, 0, tolerance)
			})
		})

		Convey("When the input is empty", func() {
			_, err := scaler.Fit(features, nil)
			So(errors.Is(err, scaler.ErrEmptyInput), ShouldBeTrue)
		})

		Convey("When a row is ragged", func() {
			_, err := scaler.Fit(features, [][]float64{{1, 2, 3}, {1, 2}})
			So(errors.Is(err, scaler.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("When a value is not finite", func() {
			_, err := scaler.Fit(features, [][]float64{{1, 2, math.NaN()}})
			So(errors.Is(err, scaler.ErrNonFinite), ShouldBeTrue)
		})
	})
}

func TestScaler_Restore(t *testing.T) {
	Convey("Given persisted scaler values", t, func() {
		Convey("When they are consistent", func() {
			st, err := scaler.Restore([]string{"a", "b"}, []float64{100, 20}, []float64{20, 10})

			Convey("Then transform should replay them exactly", func() {
				So(err, ShouldBeNil)
				out, err := st.Transform([]float64{110, 30})
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []float64{0.5, 1})
			})
		})

		Convey("When lengths disagree", func() {
			_, err := scaler.Restore([]string{"a", "b"}, []float64{1}, []float64{1, 1})
			So(errors.Is(err, scaler.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("When a scale is not positive", func() {
			_, err := scaler.Restore([]string{"a"}, []float64{1}, []float64{0})
			So(errors.Is(err, scaler.ErrNonFinite), ShouldBeTrue)
		})
	})
}
