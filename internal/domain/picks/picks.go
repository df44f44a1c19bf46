// Package picks assembles scored markets into the recommendations handed to
// callers: stake sizing, action tier, risk tier and a stable prediction id.
package picks

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/internal/domain/lineup"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/montecarlo"
	"github.com/okian/matchquant/internal/domain/trap"
)

// DefaultModelVersion is stamped on picks unless overridden.
const DefaultModelVersion = "v10"

// degradedCoverage is the coverage reported on picks produced after the
// fixture budget ran out.
const degradedCoverage = 0.3

// namespace seeds prediction ids so that they never collide with ids of
// other systems.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("matchquant/prediction")) //nolint:gochecknoglobals // derived constant

// PredictionID returns the stable id of a prediction. The same fixture,
// market and model version always map to the same id.
func PredictionID(matchID string, m model.Market, version string) string {
	return uuid.NewSHA1(namespace, []byte(matchID+"|"+string(m)+"|"+version)).String()
}

// Assembler turns layer scores into picks. It is safe for concurrent use.
type Assembler struct {
	version string
	now     func() time.Time
}

// New creates an assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		version: DefaultModelVersion,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ModelVersion returns the version stamped on picks.
func (a *Assembler) ModelVersion() string { return a.version }

// Fixture is the fixture-level data shared by every pick.
type Fixture struct {
	Input  model.MatchInput
	MC     *montecarlo.Result
	Lineup *lineup.Result
}

func (a *Assembler) base(f Fixture, mo model.MarketOdds) model.QuantPick {
	p := model.QuantPick{
		PredictionID: PredictionID(f.Input.MatchID, mo.Market, a.version),
		MatchID:      f.Input.MatchID,
		HomeTeam:     f.Input.HomeTeam,
		AwayTeam:     f.Input.AwayTeam,
		Market:       mo.Market,
		ModelVersion: a.version,
		CreatedAt:    a.now().UTC(),
		Odds:         mo.Odds,
		Layers:       model.LayerScores{},
		Reasons:      []string{},
		Warnings:     []string{},
	}
	if mo.Odds > 0 {
		p.ImpliedProb = 1 / mo.Odds
	}
	if f.MC != nil {
		if prob, ok := f.MC.Prob(mo.Market); ok {
			p.MCProb = prob
			p.Edge = prob - p.ImpliedProb
		}
		p.MCConfidence = f.MC.Confidence
	}
	if f.Lineup != nil {
		p.XGHome, p.XGAway = f.Lineup.XGHome, f.Lineup.XGAway
	}
	return p
}

// Assemble builds the pick of a scored market.
func (a *Assembler) Assemble(f Fixture, mo model.MarketOdds, s layers.Score) model.QuantPick {
	p := a.base(f, mo)
	for l, v := range s.Layers {
		p.Layers[l] = v
	}
	p.LayerScore = s.LayerScore
	p.QuantScore = s.QuantScore
	p.FinalScore = s.FinalScore
	p.DataCoverage = s.Coverage()
	p.ActiveLayers = s.ActiveCount()
	p.Kelly = Kelly(mo.Odds, p.MCProb)
	p.Risk = Risk(p.DataCoverage, p.MCConfidence)
	p.Recommendation = Recommend(p.FinalScore, p.DataCoverage)
	p.Label = Label(p.Recommendation, p.DataCoverage)
	p.Reasons = append(p.Reasons, s.Reasons...)
	p.Warnings = append(p.Warnings, s.Warnings...)
	if p.DataCoverage < LowDataCoverage {
		p.Warnings = append(p.Warnings, "low data coverage")
	}
	return p
}

// Blocked builds the pick of a trapped market. No layer is scored.
func (a *Assembler) Blocked(f Fixture, mo model.MarketOdds, v trap.Verdict) model.QuantPick {
	p := a.base(f, mo)
	p.Layers[model.LayerTrap] = layers.TrapWeight
	p.IsTrap = true
	p.TrapReason = v.Reason
	p.Risk = model.RiskHigh
	p.Recommendation = model.RecommendationBlocked
	p.Label = Label(p.Recommendation, 0)
	p.Reasons = append(p.Reasons, "trap: "+v.Reason)
	return p
}

// Degraded builds the placeholder pick emitted when the fixture ran out of
// time before the market could be scored.
func (a *Assembler) Degraded(f Fixture, mo model.MarketOdds, reason string) model.QuantPick {
	p := a.base(f, mo)
	p.FinalScore = WatchScore
	p.QuantScore = WatchScore
	p.DataCoverage = degradedCoverage
	p.Risk = model.RiskHigh
	p.Recommendation = model.RecommendationWatch
	p.Label = Label(p.Recommendation, p.DataCoverage)
	p.Degraded = true
	p.Warnings = append(p.Warnings, reason)
	return p
}
