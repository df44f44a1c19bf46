package layers

import (
	"math"

	"github.com/okian/matchquant/internal/domain/model"
)

// Default layer weights. Each layer's contribution is bounded to +/- its
// weight; the trap weight is only reported on blocked picks.
const (
	DefaultMonteCarloWeight   = 25
	DefaultLineupWeight       = 15
	DefaultMarketWeight       = 15
	DefaultMomentumWeight     = 10
	DefaultTacticalWeight     = 10
	DefaultIntelligenceWeight = 8
	DefaultClassWeight        = 8
	DefaultRefereeWeight      = 8
	DefaultH2HWeight          = 8
	DefaultRealityWeight      = 5
	DefaultProfileWeight      = 5
	TrapWeight                = -50
)

// Weights maps each scoring layer to its bound.
type Weights map[model.Layer]float64

// DefaultWeights returns a fresh copy of the default weight table.
func DefaultWeights() Weights {
	return Weights{
		model.LayerMonteCarlo:   DefaultMonteCarloWeight,
		model.LayerLineup:       DefaultLineupWeight,
		model.LayerMarket:       DefaultMarketWeight,
		model.LayerMomentum:     DefaultMomentumWeight,
		model.LayerTactical:     DefaultTacticalWeight,
		model.LayerIntelligence: DefaultIntelligenceWeight,
		model.LayerClass:        DefaultClassWeight,
		model.LayerReferee:      DefaultRefereeWeight,
		model.LayerH2H:          DefaultH2HWeight,
		model.LayerReality:      DefaultRealityWeight,
		model.LayerProfile:      DefaultProfileWeight,
	}
}

// Of returns the weight of layer l, falling back to the default when w has
// no usable entry.
func (w Weights) Of(l model.Layer) float64 {
	if v, ok := w[l]; ok && v >= 0 {
		return v
	}
	return DefaultWeights()[l]
}

// Merge returns a copy of w with every non-negative entry of o applied.
// Unknown layers are ignored.
func (w Weights) Merge(o map[string]float64) Weights {
	out := w.Clone()
	for name, v := range o {
		l := model.Layer(name)
		if _, ok := out[l]; !ok || v < 0 {
			continue
		}
		out[l] = v
	}
	return out
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for l, v := range w {
		out[l] = v
	}
	return out
}

// Bound is the largest absolute layer score the weights allow, sweet-spot
// bonus included.
func (w Weights) Bound() float64 {
	var sum float64
	for _, l := range model.ScoringLayers {
		if l == model.LayerSweetSpot {
			continue
		}
		sum += w.Of(l)
	}
	return sum + maxSweetSpot()
}

func clamp(v, bound float64) float64 {
	return math.Max(-bound, math.Min(bound, v))
}
