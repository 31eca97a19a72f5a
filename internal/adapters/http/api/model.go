package api

import (
	"net/http"
)

// ModelHandler handles GET /model.
type ModelHandler struct {
	predictor Predictor
}

// NewModelHandler creates a model handler.
func NewModelHandler(p Predictor) *ModelHandler {
	return &ModelHandler{predictor: p}
}

// HandleModel describes the loaded artifact pair.
func (h *ModelHandler) HandleModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if h.predictor == nil {
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", ErrModelNotLoaded)
		return
	}
	info, err := h.predictor.Info()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", ErrModelNotLoaded)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
