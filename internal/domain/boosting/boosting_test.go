package boosting_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/diabrisk/internal/domain/boosting"
	. "github.com/smartystreets/goconvey/convey"
)

func fixtureTrees() []boosting.Tree {
	return []boosting.Tree{
		{Nodes: []boosting.Node{
			{Feature: 0, Threshold: 0, Left: 1, Right: 2, Gain: 4},
			{Leaf: true, Value: -5},
			{Leaf: true, Value: 10},
		}},
		{Nodes: []boosting.Node{
			{Feature: 4, Threshold: 0.5, Left: 1, Right: 2, Gain: 1},
			{Leaf: true, Value: 2},
			{Leaf: true, Value: 4},
		}},
	}
}

func TestEnsemble_Predict(t *testing.T) {
	Convey("Given a two-tree fixture ensemble", t, func() {
		features := []string{"f0", "f1", "f2", "f3", "f4", "f5"}
		e, err := boosting.New(features, 30, 0.5, fixtureTrees())
		So(err, ShouldBeNil)

		Convey("When predicting a vector routed right then left", func() {
			score, err := e.Predict([]float64{0.5, 1, 1, 1, -1, 0.5})

			Convey("Then it should be base + rate * (10 + 2)", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 36)
			})
		})

		Convey("When the threshold value itself is predicted", func() {
			score, err := e.Predict([]float64{0, 0, 0, 0, 0.5, 0})

			Convey("Then equality should route right", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 30+0.5*(10+4))
			})
		})

		Convey("When predicting twice", func() {
			v := []float64{-2, 0, 0, 0, 3, 0}
			a, _ := e.Predict(v)
			b, _ := e.Predict(v)
			So(a, ShouldEqual, b)
		})

		Convey("When the vector has the wrong width", func() {
			_, err := e.Predict([]float64{1, 2, 3})
			So(errors.Is(err, boosting.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("Then importance should rank by gain", func() {
			imp := e.Importance()
			So(imp, ShouldResemble, []boosting.Importance{
				{Feature: "f0", Splits: 1, Gain: 4},
				{Feature: "f4", Splits: 1, Gain: 1},
			})
			So(e.TopFeatures(1), ShouldHaveLength, 1)
		})
	})
}

func TestEnsemble_New(t *testing.T) {
	Convey("Given malformed parts", t, func() {
		features := []string{"a", "b"}

		Convey("When a node splits on a feature outside the vector", func() {
			trees := []boosting.Tree{{Nodes: []boosting.Node{
				{Feature: 5, Threshold: 1, Left: 1, Right: 2},
				{Leaf: true}, {Leaf: true},
			}}}
			_, err := boosting.New(features, 0, 0.1, trees)
			So(errors.Is(err, boosting.ErrMalformedTree), ShouldBeTrue)
		})

		Convey("When a child points back at its parent", func() {
			trees := []boosting.Tree{{Nodes: []boosting.Node{
				{Feature: 0, Threshold: 1, Left: 0, Right: 1},
				{Leaf: true},
			}}}
			_, err := boosting.New(features, 0, 0.1, trees)
			So(errors.Is(err, boosting.ErrMalformedTree), ShouldBeTrue)
		})

		Convey("When there are no trees", func() {
			_, err := boosting.New(features, 0, 0.1, nil)
			So(errors.Is(err, boosting.ErrMalformedTree), ShouldBeTrue)
		})

		Convey("When the learning rate is out of range", func() {
			_, err := boosting.New(features, 0, 0, fixtureTrees()[:1])
			So(errors.Is(err, boosting.ErrInvalidParams), ShouldBeTrue)
		})
	})
}

func TestFit(t *testing.T) {
	Convey("Given a step-shaped target", t, func() {
		var X [][]float64
		var y []float64
		for i := 0; i < 10; i++ {
			X = append(X, []float64{float64(i), float64(i % 3)})
			if i >= 5 {
				y = append(y, 10)
			} else {
				y = append(y, 0)
			}
		}

		Convey("When one unregularized stump is fitted at full rate", func() {
			p := boosting.DefaultParams()
			p.NTrees = 1
			p.MaxDepth = 1
			p.LearningRate = 1
			p.Lambda = 0
			e, err := boosting.Fit([]string{"x", "noise"}, X, y, p)

			Convey("Then it should split between 4 and 5 and reproduce the step", func() {
				So(err, ShouldBeNil)
				So(e.BaseScore(), ShouldEqual, 5)
				root := e.Trees()[0].Nodes[0]
				So(root.Feature, ShouldEqual, 0)
				So(root.Threshold, ShouldEqual, 4.5)
				preds, err := e.PredictAll(X)
				So(err, ShouldBeNil)
				So(preds, ShouldResemble, y)
				So(e.Importance()[0].Feature, ShouldEqual, "x")
			})
		})
	})

	Convey("Given a smooth target", t, func() {
		var X [][]float64
		var y []float64
		for i := 0; i < 200; i++ {
			a := float64(i%20) / 2
			b := float64(i%7) - 3
			X = append(X, []float64{a, b})
			y = append(y, 2*a+b*b)
		}

		Convey("When fitted with default parameters", func() {
			e, err := boosting.Fit([]string{"a", "b"}, X, y, boosting.DefaultParams())
			So(err, ShouldBeNil)

			Convey("Then training error should fall far below the target spread", func() {
				preds, _ := e.PredictAll(X)
				var sse, sst float64
				for i := range y {
					sse += (preds[i] - y[i]) * (preds[i] - y[i])
					sst += (y[i] - e.BaseScore()) * (y[i] - e.BaseScore())
				}
				So(math.Sqrt(sse/float64(len(y))), ShouldBeLessThan, 0.1*math.Sqrt(sst/float64(len(y))))
				So(e.NumTrees(), ShouldEqual, boosting.DefaultNTrees)
			})
		})

		Convey("When fitted twice with row subsampling and the same seed", func() {
			p := boosting.DefaultParams()
			p.Subsample = 0.7
			p.NTrees = 20
			first, err := boosting.Fit([]string{"a", "b"}, X, y, p)
			So(err, ShouldBeNil)
			second, err := boosting.Fit([]string{"a", "b"}, X, y, p)
			So(err, ShouldBeNil)

			Convey("Then both models should be identical", func() {
				So(second.Trees(), ShouldResemble, first.Trees())
				So(second.BaseScore(), ShouldEqual, first.BaseScore())
			})
		})
	})

	Convey("Given invalid inputs", t, func() {
		Convey("When parameters are out of range", func() {
			p := boosting.DefaultParams()
			p.LearningRate = 1.5
			_, err := boosting.Fit([]string{"a"}, [][]float64{{1}}, []float64{1}, p)
			So(errors.Is(err, boosting.ErrInvalidParams), ShouldBeTrue)
		})

		Convey("When there are no rows", func() {
			_, err := boosting.Fit([]string{"a"}, nil, nil, boosting.DefaultParams())
			So(errors.Is(err, boosting.ErrEmptyInput), ShouldBeTrue)
		})

		Convey("When rows and targets disagree", func() {
			_, err := boosting.Fit([]string{"a"}, [][]float64{{1}, {2}}, []float64{1}, boosting.DefaultParams())
			So(errors.Is(err, boosting.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("When a target is NaN", func() {
			_, err := boosting.Fit([]string{"a"}, [][]float64{{1}}, []float64{math.NaN()}, boosting.DefaultParams())
			So(errors.Is(err, boosting.ErrNonFinite), ShouldBeTrue)
		})
	})
}
