// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/pkg/logger"
)

const defaultMaxBodyBytes = 64 << 10

// Predictor is the model surface the handlers need. *app.Inference
// satisfies it.
type Predictor interface {
	Predict(ctx context.Context, raw schema.RawFields) (model.Prediction, error)
	Info() (app.ModelInfo, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	predictHandler *PredictHandler
	modelHandler   *ModelHandler
	healthHandler  *HealthHandler
	logger         logger.Logger
	maxBody        int64
}

// NewServer creates a new API server with all handlers. A nil predictor is
// allowed; model routes then answer 503.
func NewServer(p Predictor, opts ...Option) *Server {
	s := &Server{
		logger:  logger.Get().Named("api"),
		maxBody: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.predictHandler = NewPredictHandler(p, s.logger, s.maxBody)
	s.modelHandler = NewModelHandler(p)
	s.healthHandler = NewHealthHandler()
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/model", MetricsMiddleware(s.modelHandler.HandleModel, "model"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}
