package picks

import (
	"github.com/shopspring/decimal"

	"github.com/okian/matchquant/internal/domain/model"
)

// Risk policy thresholds.
const (
	KellyFraction = 0.25
	KellyCap      = 0.10

	EliteScore     = 75
	StrongScore    = 60
	GoodScore      = 45
	ValueLeanScore = 30
	WatchScore     = 18

	EliteCoverage   = 0.6
	LowDataCoverage = 0.4

	lowRiskConfidence  = 0.7
	highRiskConfidence = 0.4

	kellyPlaces = 4
)

var (
	kellyFraction = decimal.NewFromFloat(KellyFraction) //nolint:gochecknoglobals // decimal constant
	kellyCap      = decimal.NewFromFloat(KellyCap)      //nolint:gochecknoglobals // decimal constant
)

// Kelly returns the quarter-Kelly stake for decimal odds and win
// probability p, capped at 10% of bankroll and floored at 0.
func Kelly(odds, p float64) float64 {
	if odds <= 1 || p <= 0 {
		return 0
	}
	b := decimal.NewFromFloat(odds).Sub(decimal.NewFromInt(1))
	pd := decimal.NewFromFloat(p)
	full := b.Mul(pd).Sub(decimal.NewFromInt(1).Sub(pd)).Div(b)
	stake := decimal.Min(full.Mul(kellyFraction), kellyCap)
	if stake.IsNegative() {
		return 0
	}
	return stake.Round(kellyPlaces).InexactFloat64()
}

// Recommend maps a final score and data coverage onto a tier.
func Recommend(score int, coverage float64) model.Recommendation {
	switch {
	case score >= EliteScore && coverage >= EliteCoverage:
		return model.RecommendationElite
	case score >= StrongScore:
		return model.RecommendationStrong
	case score >= GoodScore:
		return model.RecommendationGood
	case score >= ValueLeanScore:
		return model.RecommendationValueLean
	case score >= WatchScore:
		return model.RecommendationWatch
	default:
		return model.RecommendationSkip
	}
}

// Label is the display string of a recommendation.
func Label(r model.Recommendation, coverage float64) string {
	if r != model.RecommendationBlocked && coverage < LowDataCoverage {
		return string(r) + " (low data)"
	}
	return string(r)
}

// Risk grades a pick from its data coverage and simulation confidence.
func Risk(coverage, confidence float64) model.RiskTier {
	switch {
	case coverage < LowDataCoverage || confidence < highRiskConfidence:
		return model.RiskHigh
	case coverage >= EliteCoverage && confidence >= lowRiskConfidence:
		return model.RiskLow
	default:
		return model.RiskMedium
	}
}
