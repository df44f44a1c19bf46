package model

import "time"

// Layer names one component of the layered score.
type Layer string

// Scoring layers. LayerTrap is a blocker and never contributes to a sum.
const (
	LayerMonteCarlo   Layer = "mc"
	LayerLineup       Layer = "lineup"
	LayerMarket       Layer = "market"
	LayerMomentum     Layer = "momentum"
	LayerTactical     Layer = "tactical"
	LayerIntelligence Layer = "intelligence"
	LayerClass        Layer = "class"
	LayerReferee      Layer = "referee"
	LayerH2H          Layer = "h2h"
	LayerReality      Layer = "reality"
	LayerProfile      Layer = "profile"
	LayerSweetSpot    Layer = "sweet_spot"
	LayerTrap         Layer = "trap"
)

// ScoringLayers are the twelve layers summed into the layer score.
var ScoringLayers = []Layer{ //nolint:gochecknoglobals // closed enumeration
	LayerMonteCarlo, LayerLineup, LayerMarket, LayerMomentum, LayerTactical, LayerIntelligence,
	LayerClass, LayerReferee, LayerH2H, LayerReality, LayerProfile, LayerSweetSpot,
}

// ObservableLayers are the layers whose activity defines data coverage.
var ObservableLayers = []Layer{ //nolint:gochecknoglobals // closed enumeration
	LayerLineup, LayerMarket, LayerMomentum, LayerTactical, LayerIntelligence,
	LayerClass, LayerReferee, LayerH2H, LayerReality, LayerProfile,
}

// LayerScores holds the bounded contribution of each scoring layer.
type LayerScores map[Layer]float64

// Sum adds every scoring layer.
func (ls LayerScores) Sum() float64 {
	var total float64
	for _, l := range ScoringLayers {
		total += ls[l]
	}
	return total
}

// Recommendation is the action tier of a pick.
type Recommendation string

// Recommendation tiers, strongest first.
const (
	RecommendationElite     Recommendation = "ELITE"
	RecommendationStrong    Recommendation = "STRONG"
	RecommendationGood      Recommendation = "GOOD"
	RecommendationValueLean Recommendation = "VALUE_LEAN"
	RecommendationWatch     Recommendation = "WATCH"
	RecommendationSkip      Recommendation = "SKIP"
	RecommendationBlocked   Recommendation = "BLOCKED"
)

// RiskTier grades how much a pick can be trusted.
type RiskTier string

// Risk tiers.
const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// QuantPick is the scored recommendation for one market of one fixture.
// Picks are values and are not modified after assembly.
type QuantPick struct {
	PredictionID string    `json:"prediction_id"`
	MatchID      string    `json:"match_id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Market       Market    `json:"market"`
	ModelVersion string    `json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`

	Odds         float64 `json:"odds"`
	ImpliedProb  float64 `json:"implied_prob"`
	MCProb       float64 `json:"mc_prob"`
	Edge         float64 `json:"edge"`
	MCConfidence float64 `json:"mc_confidence"`
	XGHome       float64 `json:"xg_home"`
	XGAway       float64 `json:"xg_away"`

	Layers       LayerScores `json:"layers"`
	LayerScore   float64     `json:"layer_score"`
	QuantScore   float64     `json:"quant_score"`
	FinalScore   int         `json:"final_score"`
	DataCoverage float64     `json:"data_coverage"`
	ActiveLayers int         `json:"active_layers"`

	Kelly          float64        `json:"kelly"`
	Risk           RiskTier       `json:"risk"`
	Recommendation Recommendation `json:"recommendation"`
	Label          string         `json:"label"`
	Reasons        []string       `json:"reasons"`
	Warnings       []string       `json:"warnings"`

	IsTrap     bool   `json:"is_trap"`
	TrapReason string `json:"trap_reason,omitempty"`
	Degraded   bool   `json:"degraded,omitempty"`
}
