package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/matchquant/internal/domain/model"
)

// AnalyseDependencies are the calls made by the synchronous analysis route.
type AnalyseDependencies interface {
	AnalyseMatch(ctx context.Context, in model.MatchInput) ([]model.QuantPick, error)
}

// AnalyseHandler handles fixture analysis requests.
type AnalyseHandler struct {
	deps AnalyseDependencies
}

// NewAnalyseHandler creates a new analyse handler.
func NewAnalyseHandler(deps AnalyseDependencies) *AnalyseHandler {
	return &AnalyseHandler{deps: deps}
}

type analyseResponse struct {
	MatchID string            `json:"match_id"`
	Picks   []model.QuantPick `json:"picks"`
}

// HandleAnalyse handles POST /analyse requests. The fixture is analysed
// inline and its picks returned.
func (h *AnalyseHandler) HandleAnalyse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req matchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind("analyse", ErrBadRequest, err))
		return
	}
	picks, err := h.deps.AnalyseMatch(r.Context(), req.toInput())
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyseResponse{MatchID: req.MatchID, Picks: picks})
}

func writeAnalysisError(w http.ResponseWriter, err error) {
	var ie *model.InputError
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
