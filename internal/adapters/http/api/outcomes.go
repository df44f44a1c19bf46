package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/model"
)

// OutcomeDependencies are the calls made by the settlement route.
type OutcomeDependencies interface {
	SubmitOutcomes(ctx context.Context, o model.Outcome) (meta.Settlement, error)
}

// OutcomesHandler settles predictions against final results.
type OutcomesHandler struct {
	deps OutcomeDependencies
}

// NewOutcomesHandler creates a new outcomes handler.
func NewOutcomesHandler(deps OutcomeDependencies) *OutcomesHandler {
	return &OutcomesHandler{deps: deps}
}

type settlementResponse struct {
	MatchID    string  `json:"match_id"`
	Settled    int     `json:"settled"`
	Correct    int     `json:"correct"`
	ProfitLoss float64 `json:"profit_loss"`
}

// HandlePostOutcome handles POST /outcomes requests.
func (h *OutcomesHandler) HandlePostOutcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req outcomeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind("outcomes", ErrBadRequest, err))
		return
	}

	res, err := h.deps.SubmitOutcomes(r.Context(), req.toOutcome())
	var ie *model.InputError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, settlementResponse{
			MatchID:    res.MatchID,
			Settled:    res.Settled,
			Correct:    res.Correct,
			ProfitLoss: res.ProfitLoss,
		})
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, meta.ErrNoPredictions):
		writeError(w, http.StatusNotFound, "no_predictions", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", Wrap("outcomes", err))
	}
}
