package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/diabrisk/internal/adapters/http/api"
	"github.com/okian/diabrisk/internal/adapters/http/client"
	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedPredictor struct{}

func (fixedPredictor) Predict(_ context.Context, raw schema.RawFields) (model.Prediction, error) {
	if _, err := schema.Core().Encode(raw); err != nil {
		return model.Prediction{}, err
	}
	return model.Prediction{RiskScore: 42.5, Band: model.BandModerate, PairID: "p-1", Advice: "moderate"}, nil
}

func (fixedPredictor) Info() (app.ModelInfo, error) {
	return app.ModelInfo{PairID: "p-1", Features: schema.Core().Names(), NumTrees: 100}, nil
}

func entry() schema.RawFields {
	return schema.RawFields{
		schema.BloodGlucose:        "110",
		schema.PhysicalActivity:    "30",
		schema.Diet:                "healthy",
		schema.MedicationAdherence: "good",
		schema.StressLevel:         "low",
		schema.SleepHours:          "7",
	}
}

func newServer(p api.Predictor) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(p).Register(mux)
	return httptest.NewServer(mux)
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given a client for a running API", t, func() {
		srv := newServer(fixedPredictor{})
		defer srv.Close()
		c := client.New(srv.URL+"/", client.WithTimeout(time.Second))

		Convey("When a valid entry is scored", func() {
			p, err := c.Predict(ctx, entry())

			Convey("Then the prediction should round trip", func() {
				So(err, ShouldBeNil)
				So(p, ShouldResemble, model.Prediction{RiskScore: 42.5, Band: model.BandModerate, PairID: "p-1", Advice: "moderate"})
			})
		})

		Convey("When the server rejects a field", func() {
			raw := entry()
			raw[schema.Diet] = "keto"
			_, err := c.Score(ctx, raw)

			Convey("Then it should surface as a local validation error", func() {
				var verr *schema.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, schema.Diet)
				So(errors.Is(err, schema.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When the model is described", func() {
			info, err := c.Model(ctx)

			So(err, ShouldBeNil)
			So(info.PairID, ShouldEqual, "p-1")
			So(info.Features, ShouldResemble, schema.Core().Names())
		})
	})

	Convey("Given a server without a model", t, func() {
		var missing *app.Inference
		srv := newServer(missing)
		defer srv.Close()

		_, err := client.New(srv.URL).Predict(ctx, entry())

		var serr *client.StatusError
		So(errors.As(err, &serr), ShouldBeTrue)
		So(serr.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
		So(errors.Is(err, client.ErrModelUnavailable), ShouldBeTrue)
	})

	Convey("Given a server answering plain text errors", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := client.New(srv.URL).Model(ctx)

		So(errors.Is(err, client.ErrUnexpectedStatus), ShouldBeTrue)
		So(errors.Is(err, client.ErrModelUnavailable), ShouldBeFalse)
		So(err.Error(), ShouldContainSubstring, "upstream down")
	})
}
