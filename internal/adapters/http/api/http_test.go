package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/matchquant/internal/adapters/http/api"
	service "github.com/okian/matchquant/internal/app"
	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies implements api.Dependencies with canned answers.
type mockDependencies struct {
	analyseErr error
	submitErr  error
	settleErr  error

	analysed []model.MatchInput
	queued   []model.MatchInput
	outcomes []model.Outcome
}

func (m *mockDependencies) AnalyseMatch(_ context.Context, in model.MatchInput) ([]model.QuantPick, error) {
	m.analysed = append(m.analysed, in)
	if m.analyseErr != nil {
		return nil, m.analyseErr
	}
	return []model.QuantPick{{MatchID: in.MatchID, Market: model.MarketHome, FinalScore: 62}}, nil
}

func (m *mockDependencies) Submit(_ context.Context, in model.MatchInput) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.queued = append(m.queued, in)
	return nil
}

func (m *mockDependencies) SubmitOutcomes(_ context.Context, o model.Outcome) (meta.Settlement, error) {
	m.outcomes = append(m.outcomes, o)
	if m.settleErr != nil {
		return meta.Settlement{}, m.settleErr
	}
	return meta.Settlement{MatchID: o.MatchID, Settled: 3, Correct: 2, ProfitLoss: 0.6}, nil
}

func (m *mockDependencies) Weights() layers.Weights { return layers.DefaultWeights() }

func (m *mockDependencies) LayerAccuracy() map[model.Layer]float64 {
	return map[model.Layer]float64{model.LayerMonteCarlo: 0.61}
}

func (m *mockDependencies) Calibration() meta.Calibration {
	return meta.Calibration{Markets: map[model.Market]meta.HitRate{}, Buckets: map[int]meta.HitRate{}}
}

func (m *mockDependencies) ModelVersion() string { return "v10" }

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any { return m.stats }

const fixtureBody = `{
	"match_id": "m-1",
	"home_team": "Arsenal",
	"away_team": "Chelsea",
	"league": "Premier League",
	"commence_time": "2026-03-07T15:00:00Z",
	"kickoff_hour": 15,
	"odds": {"home": 1.7, "draw": 3.8, "over_25": 1.9}
}`

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"analysed": 4}}).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then health serves metrics", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats are served as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var out map[string]any
			So(json.NewDecoder(w.Body).Decode(&out), ShouldBeNil)
			So(out["analysed"], ShouldEqual, 4)
		})

		Convey("Then unknown paths are not found", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAnalyseHandler_HandleAnalyse(t *testing.T) {
	Convey("Given an analyse route", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a fixture is posted", func() {
			w := do(mux, http.MethodPost, "/analyse", fixtureBody)

			Convey("Then its picks are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var out struct {
					MatchID string            `json:"match_id"`
					Picks   []model.QuantPick `json:"picks"`
				}
				So(json.NewDecoder(w.Body).Decode(&out), ShouldBeNil)
				So(out.MatchID, ShouldEqual, "m-1")
				So(out.Picks, ShouldHaveLength, 1)
				So(out.Picks[0].Market, ShouldEqual, model.MarketHome)
			})

			Convey("Then the wire fields reach the service", func() {
				So(deps.analysed, ShouldHaveLength, 1)
				in := deps.analysed[0]
				So(in.HomeTeam, ShouldEqual, "Arsenal")
				So(in.CommenceTime.Equal(time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(*in.KickoffHour, ShouldEqual, 15)
				So(in.Odds["over_25"], ShouldEqual, 1.9)
			})
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/analyse", `{"match_id":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "invalid_json")
		})

		Convey("When the body carries unknown fields", func() {
			w := do(mux, http.MethodPost, "/analyse", `{"fixture":"x"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service rejects the input", func() {
			deps.analyseErr = &model.InputError{Field: "odds", Reason: "no recognised market"}
			w := do(mux, http.MethodPost, "/analyse", fixtureBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			var out map[string]string
			So(json.NewDecoder(w.Body).Decode(&out), ShouldBeNil)
			So(out["code"], ShouldEqual, "invalid_input")
			So(out["field"], ShouldEqual, "odds")
		})

		Convey("When the analysis fails", func() {
			deps.analyseErr = errors.New("boom")
			So(do(mux, http.MethodPost, "/analyse", fixtureBody).Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the request is cancelled", func() {
			deps.analyseErr = context.Canceled
			So(do(mux, http.MethodPost, "/analyse", fixtureBody).Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When the method is wrong", func() {
			So(do(mux, http.MethodGet, "/analyse", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestFixturesHandler_HandlePostFixture(t *testing.T) {
	Convey("Given a fixtures route", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a fresh fixture is queued", func() {
			w := do(mux, http.MethodPost, "/fixtures", fixtureBody)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, `"accepted"`)
			So(deps.queued, ShouldHaveLength, 1)
		})

		Convey("When the fixture is already pending", func() {
			deps.submitErr = service.ErrDuplicateFixture
			w := do(mux, http.MethodPost, "/fixtures", fixtureBody)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})

		Convey("When the queue is full", func() {
			deps.submitErr = service.ErrQueueFull
			w := do(mux, http.MethodPost, "/fixtures", fixtureBody)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Body.String(), ShouldContainSubstring, "backpressure")
		})

		Convey("When the batch pipeline is not running", func() {
			deps.submitErr = service.ErrNotStarted
			So(do(mux, http.MethodPost, "/fixtures", fixtureBody).Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When the fixture is invalid", func() {
			deps.submitErr = &model.InputError{Field: "commence_time", Reason: "in the past"}
			So(do(mux, http.MethodPost, "/fixtures", fixtureBody).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOutcomesHandler_HandlePostOutcome(t *testing.T) {
	body := `{
		"match_id": "m-1",
		"home_score": 2,
		"away_score": 1,
		"goals": [{"minute": 12, "side": "home"}, {"minute": 55, "side": "a"}, {"minute": 88, "side": "h"}],
		"closing_odds": {"home": 1.6}
	}`

	Convey("Given an outcomes route", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a result is posted", func() {
			w := do(mux, http.MethodPost, "/outcomes", body)

			Convey("Then the settlement is reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var out map[string]any
				So(json.NewDecoder(w.Body).Decode(&out), ShouldBeNil)
				So(out["settled"], ShouldEqual, 3)
				So(out["correct"], ShouldEqual, 2)
			})

			Convey("Then goal sides are normalised", func() {
				So(deps.outcomes, ShouldHaveLength, 1)
				o := deps.outcomes[0]
				So(o.Goals[0].Side, ShouldEqual, model.SideHome)
				So(o.Goals[1].Side, ShouldEqual, model.SideAway)
				So(o.Goals[2].Side, ShouldEqual, model.SideHome)
				So(o.ClosingOdds["home"], ShouldEqual, 1.6)
			})
		})

		Convey("When nothing was predicted for the match", func() {
			deps.settleErr = meta.ErrNoPredictions
			w := do(mux, http.MethodPost, "/outcomes", body)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "no_predictions")
		})

		Convey("When the result is inconsistent", func() {
			deps.settleErr = &model.InputError{Field: "goals", Reason: "do not add up"}
			So(do(mux, http.MethodPost, "/outcomes", body).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestWeightsHandler_HandleGetWeights(t *testing.T) {
	Convey("Given a weights route", t, func() {
		mux := newMux(&mockDependencies{})
		w := do(mux, http.MethodGet, "/weights", "")

		Convey("Then the model state is served", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			var out struct {
				ModelVersion string             `json:"model_version"`
				Weights      map[string]float64 `json:"weights"`
				Accuracy     map[string]float64 `json:"accuracy"`
			}
			So(json.NewDecoder(w.Body).Decode(&out), ShouldBeNil)
			So(out.ModelVersion, ShouldEqual, "v10")
			So(out.Weights[string(model.LayerMonteCarlo)], ShouldEqual, 25)
			So(out.Accuracy[string(model.LayerMonteCarlo)], ShouldEqual, 0.61)
		})

		Convey("Then posting is refused", func() {
			So(do(mux, http.MethodPost, "/weights", "{}").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Kinded errors match both their kind and their cause", t, func() {
		cause := errors.New("decode")
		err := api.WrapKind("fixtures", api.ErrBadRequest, cause)
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "fixtures: bad request: decode")
		So(errors.Is(api.NewKind("fixtures", api.ErrBackpressure), api.ErrBackpressure), ShouldBeTrue)
	})
}
