package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/matchquant/internal/app"
	"github.com/okian/matchquant/internal/domain/model"
)

// FixtureDependencies are the calls made by the batch intake route.
type FixtureDependencies interface {
	Submit(ctx context.Context, in model.MatchInput) error
}

// FixturesHandler queues fixtures for background analysis.
type FixturesHandler struct {
	deps FixtureDependencies
}

// NewFixturesHandler creates a new fixtures handler.
func NewFixturesHandler(deps FixtureDependencies) *FixturesHandler {
	return &FixturesHandler{deps: deps}
}

// HandlePostFixture handles POST /fixtures requests.
func (h *FixturesHandler) HandlePostFixture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req matchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind("fixtures", ErrBadRequest, err))
		return
	}

	err := h.deps.Submit(r.Context(), req.toInput())
	var ie *model.InputError
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
	case errors.Is(err, service.ErrDuplicateFixture):
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind("fixtures", ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind("fixtures", ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
