// Package lineup turns the raw team strengths of a fixture into the pair of
// expected-goal values fed to the simulator, recording every adjustment it
// applies.
package lineup

import (
	"fmt"
	"math"

	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/matchup"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/names"
)

// Named constants of the adjustment pipeline.
const (
	attackWeight  = 0.6
	defenceWeight = 0.4

	// League means used when a team has no usable history.
	LeagueHomeScored   = 1.55
	LeagueAwayScored   = 1.25
	LeagueHomeConceded = 1.20
	LeagueAwayConceded = 1.35

	regressionWideGap = 2.0
	regressionOneGap  = 5.0
	regressionEven    = 10.0

	wideGapFavoured = 1.25
	wideGapOther    = 0.75
	oneGapFavoured  = 1.10
	oneGapOther     = 0.90

	psychEdgeMin    = 0.1
	psychEdgeFactor = 0.05

	tacticalBand = 0.15

	vsTypeMinMatches = 3
	vsTypeDelta      = 0.10

	maxStarImpact     = 0.20
	defaultStarImpact = 0.10
	europeFatigue     = 0.08
	derbyBoost        = 0.10
	weatherBoost      = 0.10
	windowBoost       = 0.05

	coldBelowCelsius = 10.0
	hotAboveCelsius  = 25.0

	// MinXG is the floor applied to both final values.
	MinXG = 0.5
)

// Source says where a baseline component came from.
type Source string

// Baseline sources, highest priority first.
const (
	SourceCompetition Source = "competition"
	SourceSeason      Source = "season"
	SourceDefault     Source = "default"
)

// Kind distinguishes multiplicative from additive adjustments.
type Kind string

// Adjustment kinds.
const (
	KindFactor Kind = "factor"
	KindDelta  Kind = "delta"
)

// Adjustment is one step applied to a side's xG. Side is empty when the
// adjustment applies to both.
type Adjustment struct {
	Step   string
	Side   model.Side
	Kind   Kind
	Value  float64
	Reason string
}

// Impact records how the final xG pair was reached.
type Impact struct {
	BaseHome   float64
	BaseAway   float64
	HomeSource Source
	AwaySource Source

	Adjustments []Adjustment
	// HomeDelta and AwayDelta sum the additive adjustments per side: vs-type,
	// absences, fatigue, derby and weather.
	HomeDelta float64
	AwayDelta float64
	Derby     bool
	Floored   bool
	Reasons   []string
}

// TotalDelta is the net additive change to the fixture's total xG.
func (i *Impact) TotalDelta() float64 { return i.HomeDelta + i.AwayDelta }

// Active reports whether any lineup-level adjustment was applied.
func (i *Impact) Active() bool {
	for _, a := range i.Adjustments {
		if a.Kind == KindDelta {
			return true
		}
	}
	return false
}

// Result is the adjusted xG pair.
type Result struct {
	XGHome float64
	XGAway float64
	Impact Impact
}

// Adjuster computes the xG pair of a fixture. It is stateless.
type Adjuster struct{}

// New creates an adjuster.
func New() *Adjuster { return &Adjuster{} }

type state struct {
	home, away float64
	impact     Impact
}

func (s *state) factor(step string, side model.Side, f float64, reason string) {
	if f == 1 {
		return
	}
	switch side {
	case model.SideHome:
		s.home *= f
	case model.SideAway:
		s.away *= f
	default:
		s.home *= f
		s.away *= f
	}
	s.impact.Adjustments = append(s.impact.Adjustments, Adjustment{Step: step, Side: side, Kind: KindFactor, Value: f, Reason: reason})
}

func (s *state) delta(step string, side model.Side, d float64, reason string) {
	if d == 0 {
		return
	}
	switch side {
	case model.SideHome:
		s.home += d
		s.impact.HomeDelta += d
	case model.SideAway:
		s.away += d
		s.impact.AwayDelta += d
	default:
		s.home += d
		s.away += d
		s.impact.HomeDelta += d
		s.impact.AwayDelta += d
	}
	s.impact.Adjustments = append(s.impact.Adjustments, Adjustment{Step: step, Side: side, Kind: KindDelta, Value: d, Reason: reason})
	if reason != "" {
		s.impact.Reasons = append(s.impact.Reasons, reason)
	}
}

// Adjust runs the adjustment pipeline over the fixture context.
func (a *Adjuster) Adjust(c *matchup.Context) Result {
	home, away := c.Home.Profile(), c.Away.Profile()
	gap := 0
	if home.Tier.Known() && away.Tier.Known() {
		gap = int(home.Tier) - int(away.Tier)
	}

	var s state
	s.home, s.impact.HomeSource = baseline(c, model.SideHome, gap)
	s.away, s.impact.AwaySource = baseline(c, model.SideAway, gap)
	s.impact.BaseHome, s.impact.BaseAway = s.home, s.away

	tierScaling(&s, gap)

	s.factor("fortress", model.SideHome, home.FortressFactor(), "")
	s.factor("away_weakness", model.SideAway, 2-away.WeaknessFactor(), "")
	switch edge := home.PsychEdge - away.PsychEdge; {
	case edge >= psychEdgeMin:
		s.factor("psych", model.SideHome, 1+psychEdgeFactor, "")
		s.factor("psych", model.SideAway, 1-psychEdgeFactor, "")
	case edge <= -psychEdgeMin:
		s.factor("psych", model.SideHome, 1-psychEdgeFactor, "")
		s.factor("psych", model.SideAway, 1+psychEdgeFactor, "")
	}

	tactical(&s, c)
	vsType(&s, c, model.SideHome, away.Tier)
	vsType(&s, c, model.SideAway, home.Tier)
	absences(&s, c)
	conditions(&s, c)

	if s.home < MinXG {
		s.home = MinXG
		s.impact.Floored = true
	}
	if s.away < MinXG {
		s.away = MinXG
		s.impact.Floored = true
	}
	return Result{XGHome: s.home, XGAway: s.away, Impact: s.impact}
}

// regressionWeight is the pseudo-count of league-mean matches blended into
// competition stats.
func regressionWeight(gap int) float64 {
	switch abs(gap) {
	case 0:
		return regressionEven
	case 1:
		return regressionOneGap
	default:
		return regressionWideGap
	}
}

func regress(stat float64, n int, mean, weight float64) float64 {
	return (stat*float64(n) + mean*weight) / (float64(n) + weight)
}

// venueRates returns the side's scoring and conceding rates at its venue for
// this fixture, and where they came from.
func venueRates(c *matchup.Context, side model.Side, gap int) (scored, conceded float64, src Source) {
	meanScored, meanConceded := LeagueHomeScored, LeagueHomeConceded
	if side == model.SideAway {
		meanScored, meanConceded = LeagueAwayScored, LeagueAwayConceded
	}
	sd := c.Side(side)

	var n, gf, ga int
	for _, m := range sd.Competition {
		ms, ok := sideIn(sd.Ref, m)
		if !ok || ms != side {
			continue
		}
		s, co := m.GoalsFor(ms)
		n++
		gf += s
		ga += co
	}
	if n > 0 {
		w := regressionWeight(gap)
		return regress(float64(gf)/float64(n), n, meanScored, w),
			regress(float64(ga)/float64(n), n, meanConceded, w),
			SourceCompetition
	}

	if a := sd.Aggregates; a != nil {
		if side == model.SideHome && a.HomeMatches > 0 {
			return float64(a.HomeScored) / float64(a.HomeMatches), float64(a.HomeConceded) / float64(a.HomeMatches), SourceSeason
		}
		if side == model.SideAway && a.AwayMatches > 0 {
			return float64(a.AwayScored) / float64(a.AwayMatches), float64(a.AwayConceded) / float64(a.AwayMatches), SourceSeason
		}
	}
	return meanScored, meanConceded, SourceDefault
}

func baseline(c *matchup.Context, side model.Side, gap int) (float64, Source) {
	attack, _, src := venueRates(c, side, gap)
	_, defence, _ := venueRates(c, side.Opposite(), gap)
	return attackWeight*attack + defenceWeight*defence, src
}

func tierScaling(s *state, gap int) {
	var fav, other float64
	switch abs(gap) {
	case 0:
		return
	case 1:
		fav, other = oneGapFavoured, oneGapOther
	default:
		fav, other = wideGapFavoured, wideGapOther
	}
	if gap > 0 {
		s.factor("tier", model.SideHome, fav, "")
		s.factor("tier", model.SideAway, other, "")
		return
	}
	s.factor("tier", model.SideHome, other, "")
	s.factor("tier", model.SideAway, fav, "")
}

// tactical rescales the pair into +/-15% of the matchup cell's average total.
func tactical(s *state, c *matchup.Context) {
	cell := c.Tactical
	if cell == nil || cell.Matches == 0 || cell.AvgGoals <= 0 {
		return
	}
	total := s.home + s.away
	lo, hi := cell.AvgGoals*(1-tacticalBand), cell.AvgGoals*(1+tacticalBand)
	target := math.Min(math.Max(total, lo), hi)
	if target == total {
		return
	}
	s.factor("tactical", "", target/total, "")
}

// vsType rewards a side that beats its average against the class of the
// opponent it faces.
func vsType(s *state, c *matchup.Context, side model.Side, opponent model.Tier) {
	a := c.Side(side).Aggregates
	if a == nil || a.Matches == 0 {
		return
	}
	avg := a.GoalsPerMatch()
	name := c.Side(side).Ref.Canonical
	switch {
	case opponent >= model.TierA && a.VsTopMatches >= vsTypeMinMatches:
		if float64(a.VsTopGoals)/float64(a.VsTopMatches) > avg {
			s.delta("vs_top", side, vsTypeDelta, fmt.Sprintf("%s score above average against top sides", name))
		} else {
			s.delta("vs_top", side, -vsTypeDelta, "")
		}
	case opponent == model.TierD && a.VsBottomMatches >= vsTypeMinMatches:
		if float64(a.VsBottomGoals)/float64(a.VsBottomMatches) > avg {
			s.delta("vs_bottom", side, vsTypeDelta, fmt.Sprintf("%s punish bottom sides", name))
		} else {
			s.delta("vs_bottom", side, -vsTypeDelta, "")
		}
	}
}

func absences(s *state, c *matchup.Context) {
	for _, side := range []model.Side{model.SideHome, model.SideAway} {
		sd := c.Side(side)
		if m := sd.Momentum; m != nil && m.StarPlayerOut {
			impact := m.StarImpactXG
			if impact <= 0 {
				impact = defaultStarImpact
			}
			impact = math.Min(impact, maxStarImpact)
			s.delta("star_absence", side, -impact, fmt.Sprintf("%s missing a star player (-%.2f xG)", sd.Ref.Canonical, impact))
		}
	}
	if c.Input.HomePlayedEuropeMidweek {
		s.delta("europe", model.SideHome, -europeFatigue, fmt.Sprintf("%s played in Europe midweek", c.Home.Ref.Canonical))
	}
	if c.Input.AwayPlayedEuropeMidweek {
		s.delta("europe", model.SideAway, -europeFatigue, fmt.Sprintf("%s played in Europe midweek", c.Away.Ref.Canonical))
	}
	if c.Input.IsDerby {
		s.impact.Derby = true
		s.delta("derby", "", derbyBoost, "derby: both sides +0.10 xG")
	}
}

// conditions applies the weather and kick-off window profiles of both DNAs.
func conditions(s *state, c *matchup.Context) {
	temp, hasTemp := c.Input.Temperature()
	rainy := c.Input.Rainy()
	window, hasWindow := dna.WindowOf(c.Input.Kickoff())

	for _, side := range []model.Side{model.SideHome, model.SideAway} {
		sd := c.Side(side)
		if sd.DNA == nil {
			continue
		}
		w := sd.DNA.Weather
		name := sd.Ref.Canonical
		if rainy {
			if w.Has(dna.TagRainAttacker) {
				s.delta("weather", side, weatherBoost, fmt.Sprintf("rain: %s score more in the wet", name))
			}
			if w.Has(dna.TagRainWeak) {
				s.delta("weather", side, -weatherBoost, fmt.Sprintf("rain: %s struggle in the wet", name))
			}
			if w.Has(dna.TagRainLeaky) {
				s.delta("weather", side.Opposite(), weatherBoost, fmt.Sprintf("rain: %s leak goals in the wet", name))
			}
		}
		if hasTemp && temp < coldBelowCelsius {
			if w.Has(dna.TagColdSpecialist) {
				s.delta("weather", side, weatherBoost, fmt.Sprintf("cold: %s thrive below 10C", name))
			}
			if w.Has(dna.TagColdVulnerable) {
				s.delta("weather", side, -weatherBoost, fmt.Sprintf("cold: %s vulnerable below 10C", name))
			}
		}
		if hasTemp && temp > hotAboveCelsius {
			if w.Has(dna.TagHeatDiesel) {
				s.delta("weather", side, weatherBoost, fmt.Sprintf("heat: %s finish strong above 25C", name))
			}
			if w.Has(dna.TagHeatWeak) {
				s.delta("weather", side, -weatherBoost, fmt.Sprintf("heat: %s fade above 25C", name))
			}
		}
		if hasWindow && windowSpecialist(sd.DNA.Schedule.Tag, window) {
			s.delta("kickoff_window", side, windowBoost, fmt.Sprintf("kick-off: %s play well in the %s slot", name, window))
		}
	}
}

func windowSpecialist(tag dna.Tag, w dna.Window) bool {
	switch w {
	case dna.WindowPrime:
		return tag == dna.TagPrimeTimeBeast
	case dna.WindowAfternoon:
		return tag == dna.TagAfternoonSpecialist
	case dna.WindowLunch:
		return tag == dna.TagLunchWarrior
	default:
		return false
	}
}

func sideIn(ref model.TeamRef, m model.Match) (model.Side, bool) {
	home, away := names.Normalize(m.HomeTeam), names.Normalize(m.AwayTeam)
	for _, n := range ref.Names() {
		switch names.Normalize(n) {
		case home:
			return model.SideHome, true
		case away:
			return model.SideAway, true
		}
	}
	return "", false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
