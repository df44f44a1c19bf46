package api

import (
	"net/http"

	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/model"
)

// WeightsDependencies expose the learned model state.
type WeightsDependencies interface {
	Weights() layers.Weights
	LayerAccuracy() map[model.Layer]float64
	Calibration() meta.Calibration
	ModelVersion() string
}

// WeightsHandler serves the current layer weights.
type WeightsHandler struct {
	deps WeightsDependencies
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps WeightsDependencies) *WeightsHandler {
	return &WeightsHandler{deps: deps}
}

// HandleGetWeights handles GET /weights requests.
func (h *WeightsHandler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	writeJSON(w, http.StatusOK, weightsResponse{
		ModelVersion: h.deps.ModelVersion(),
		Weights:      h.deps.Weights(),
		Accuracy:     h.deps.LayerAccuracy(),
		Calibration:  h.deps.Calibration(),
	})
}
