// Package api exposes the analysis service over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AnalyseDependencies
	FixtureDependencies
	OutcomeDependencies
	WeightsDependencies
}

// Server wires HTTP routes for the analysis API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analyseHandler  *AnalyseHandler
	fixturesHandler *FixturesHandler
	outcomesHandler *OutcomesHandler
	weightsHandler  *WeightsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		analyseHandler:  NewAnalyseHandler(deps),
		fixturesHandler: NewFixturesHandler(deps),
		outcomesHandler: NewOutcomesHandler(deps),
		weightsHandler:  NewWeightsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyse", MetricsMiddleware(s.analyseHandler.HandleAnalyse, "analyse"))
	mux.HandleFunc("/fixtures", MetricsMiddleware(s.fixturesHandler.HandlePostFixture, "fixtures"))
	mux.HandleFunc("/outcomes", MetricsMiddleware(s.outcomesHandler.HandlePostOutcome, "outcomes"))
	mux.HandleFunc("/weights", MetricsMiddleware(s.weightsHandler.HandleGetWeights, "weights"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
		var ie *model.InputError
		if errors.As(err, &ie) {
			resp.Field = ie.Field
		}
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// weightsResponse is the body of GET /weights.
type weightsResponse struct {
	ModelVersion string                  `json:"model_version"`
	Weights      layers.Weights          `json:"weights"`
	Accuracy     map[model.Layer]float64 `json:"accuracy"`
	Calibration  meta.Calibration        `json:"calibration"`
}
