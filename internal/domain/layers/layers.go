// Package layers scores one market of a fixture through twelve bounded
// layers and folds them into the layer, quant and final scores.
package layers

import (
	"math"

	"github.com/okian/matchquant/internal/domain/dynamics"
	"github.com/okian/matchquant/internal/domain/lineup"
	"github.com/okian/matchquant/internal/domain/matchup"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/montecarlo"
)

const (
	confidenceFloor = 0.7
	confidenceSlope = 0.3
)

// Input is everything the scorer reads for one market. Context, MC and
// Lineup are shared by every market of the fixture.
type Input struct {
	Context  *matchup.Context
	MC       *montecarlo.Result
	Lineup   *lineup.Result
	Dynamics dynamics.Dynamics
	Market   model.Market
	Odds     float64
}

// Score is the scored market.
type Score struct {
	Layers model.LayerScores
	// Active marks the layers that had source data or produced a score.
	Active map[model.Layer]bool

	MCProb      float64
	ImpliedProb float64
	Edge        float64

	LayerScore float64
	QuantScore float64
	FinalScore int

	Reasons  []string
	Warnings []string
}

// Coverage is the share of observable layers that were active.
func (s Score) Coverage() float64 {
	var n int
	for _, l := range model.ObservableLayers {
		if s.Active[l] {
			n++
		}
	}
	return float64(n) / float64(len(model.ObservableLayers))
}

// ActiveCount returns how many observable layers were active.
func (s Score) ActiveCount() int {
	var n int
	for _, l := range model.ObservableLayers {
		if s.Active[l] {
			n++
		}
	}
	return n
}

// Scorer computes layer scores. It holds no per-fixture state.
type Scorer struct {
	weights Weights
}

// New creates a scorer with the default weights.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns a copy of the scorer's base weights.
func (s *Scorer) Weights() Weights { return s.weights.Clone() }

// layerFunc scores one layer. It returns the unbounded score and whether
// the layer had data to work with.
type layerFunc func(in *Input, t *tally) (float64, bool)

// tally collects the reasons and warnings of one market.
type tally struct {
	reasons  []string
	warnings []string
}

func (t *tally) reason(r string) {
	if r != "" {
		t.reasons = append(t.reasons, r)
	}
}

func (t *tally) warn(w string) {
	if w != "" {
		t.warnings = append(t.warnings, w)
	}
}

var layerFuncs = map[model.Layer]layerFunc{ //nolint:gochecknoglobals // static dispatch table
	model.LayerMonteCarlo:   monteCarloLayer,
	model.LayerLineup:       lineupLayer,
	model.LayerMarket:       marketLayer,
	model.LayerMomentum:     momentumLayer,
	model.LayerTactical:     tacticalLayer,
	model.LayerIntelligence: intelligenceLayer,
	model.LayerClass:        classLayer,
	model.LayerReferee:      refereeLayer,
	model.LayerH2H:          h2hLayer,
	model.LayerReality:      realityLayer,
	model.LayerProfile:      profileLayer,
}

// Score runs every layer for in. w overrides the scorer's base weights when
// non-nil, which is how learned weights are applied.
func (s *Scorer) Score(in Input, w Weights) Score {
	if w == nil {
		w = s.weights
	}
	out := Score{
		Layers: make(model.LayerScores, len(model.ScoringLayers)),
		Active: make(map[model.Layer]bool, len(model.ScoringLayers)),
	}
	if in.Odds > 0 {
		out.ImpliedProb = 1 / in.Odds
	}
	if in.MC != nil {
		if p, ok := in.MC.Prob(in.Market); ok {
			out.MCProb = p
			out.Edge = p - out.ImpliedProb
		}
	}

	var t tally
	for _, l := range model.ScoringLayers {
		if l == model.LayerSweetSpot {
			continue
		}
		f, ok := layerFuncs[l]
		if !ok {
			continue
		}
		raw, active := f(&in, &t)
		// Adding zero turns a signed -0 into 0.
		v := clamp(raw, w.Of(l)) + 0
		out.Layers[l] = v
		out.Active[l] = active || v != 0
	}
	if b := SweetSpotBonus(in.Market, in.Odds); b != 0 {
		out.Layers[model.LayerSweetSpot] = b
		out.Active[model.LayerSweetSpot] = true
		t.reason("odds in the " + string(in.Market) + " sweet spot")
	}

	out.LayerScore = out.Layers.Sum()
	conf := 0.0
	if in.MC != nil {
		conf = in.MC.Confidence
	}
	out.QuantScore = out.LayerScore * (confidenceFloor + confidenceSlope*conf)
	out.FinalScore = FinalScore(out.QuantScore)
	out.Reasons, out.Warnings = t.reasons, t.warnings
	return out
}

// FinalScore rounds a quant score. Zero is reserved for trapped picks, so a
// score that rounds to zero is pushed to +/-1 following its sign.
func FinalScore(quant float64) int {
	f := int(math.Round(quant))
	if f != 0 {
		return f
	}
	if quant < 0 {
		return -1
	}
	return 1
}
