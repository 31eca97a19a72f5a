package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/domain/schema"
	"github.com/okian/diabrisk/pkg/logger"
)

// PredictHandler handles POST /predict.
type PredictHandler struct {
	predictor Predictor
	logger    logger.Logger
	maxBody   int64
}

// NewPredictHandler creates a predict handler.
func NewPredictHandler(p Predictor, l logger.Logger, maxBody int64) *PredictHandler {
	return &PredictHandler{predictor: p, logger: l, maxBody: maxBody}
}

// HandlePredict scores one daily entry. Field values may be JSON strings or
// numbers; they are passed to the encoder as their literal text.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if h.predictor == nil {
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", ErrModelNotLoaded)
		return
	}

	raw, err := decodeFields(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", ErrBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	p, err := h.predictor.Predict(r.Context(), raw)
	if err != nil {
		h.writePredictError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PredictHandler) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "validation_error",
			Field:   verr.Field,
			Message: verr.Reason,
		})
	case errors.Is(err, app.ErrModelNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", ErrModelNotLoaded)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "canceled", err)
	default:
		h.logger.Error(r.Context(), "prediction failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// decodeFields reads a flat JSON object into raw field values.
func decodeFields(body io.Reader) (schema.RawFields, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	if obj == nil {
		return nil, errors.New("body must be a JSON object")
	}
	raw := make(schema.RawFields, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			raw[k] = val
		case json.Number:
			raw[k] = val.String()
		case nil:
			// left out, reported as missing by the encoder
		default:
			var buf bytes.Buffer
			_ = json.NewEncoder(&buf).Encode(v)
			return nil, fmt.Errorf("field %q must be a string or number, got %s", k, bytes.TrimSpace(buf.Bytes()))
		}
	}
	return raw, nil
}
