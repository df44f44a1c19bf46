package model

import (
	"fmt"
	"strings"
	"time"
)

// MatchInput is one fixture submitted for analysis. Pointer fields are
// optional context; nil means unknown.
type MatchInput struct {
	MatchID      string
	HomeTeam     string
	AwayTeam     string
	League       string
	CommenceTime time.Time
	RefereeName  string

	IsDerby                 bool
	HomePlayedEuropeMidweek bool
	AwayPlayedEuropeMidweek bool
	Competition             string
	KickoffHour             *int
	TemperatureCelsius      *float64
	IsRainy                 *bool

	// Odds maps market names to decimal odds. Unknown names are ignored.
	Odds map[string]float64
}

// MarketOdds is one recognised market and its price.
type MarketOdds struct {
	Market Market
	Odds   float64
}

// Validate checks the fixture against the clock reading now. It returns an
// *InputError for the first problem found.
func (in *MatchInput) Validate(now time.Time) error {
	if strings.TrimSpace(in.MatchID) == "" {
		return inputErr("match_id", "required")
	}
	if strings.TrimSpace(in.HomeTeam) == "" {
		return inputErr("home_team", "required")
	}
	if strings.TrimSpace(in.AwayTeam) == "" {
		return inputErr("away_team", "required")
	}
	if strings.EqualFold(strings.TrimSpace(in.HomeTeam), strings.TrimSpace(in.AwayTeam)) {
		return inputErr("away_team", "must differ from home_team")
	}
	if in.CommenceTime.IsZero() {
		return inputErr("commence_time", "required")
	}
	if in.CommenceTime.Before(now) {
		return inputErr("commence_time", "in the past")
	}
	if in.KickoffHour != nil && (*in.KickoffHour < 0 || *in.KickoffHour > 23) {
		return inputErr("kickoff_hour", "must be within 0..23")
	}
	for name, price := range in.Odds {
		if _, ok := ParseMarket(name); !ok {
			continue
		}
		if price <= 1 {
			return inputErr("odds."+name, fmt.Sprintf("decimal odds must be > 1, got %v", price))
		}
	}
	if len(in.MarketOdds()) == 0 {
		return inputErr("odds", "no recognised market")
	}
	return nil
}

// MarketOdds returns the recognised markets in canonical order.
func (in *MatchInput) MarketOdds() []MarketOdds {
	out := make([]MarketOdds, 0, len(in.Odds))
	for _, m := range Markets {
		for name, price := range in.Odds {
			if parsed, ok := ParseMarket(name); ok && parsed == m {
				out = append(out, MarketOdds{Market: m, Odds: price})
				break
			}
		}
	}
	return out
}

// Kickoff returns the local kick-off hour, falling back to the commence time.
func (in *MatchInput) Kickoff() int {
	if in.KickoffHour != nil {
		return *in.KickoffHour
	}
	return in.CommenceTime.Hour()
}

// Rainy reports whether rain was declared for the fixture.
func (in *MatchInput) Rainy() bool { return in.IsRainy != nil && *in.IsRainy }

// Temperature returns the declared temperature and whether one was given.
func (in *MatchInput) Temperature() (float64, bool) {
	if in.TemperatureCelsius == nil {
		return 0, false
	}
	return *in.TemperatureCelsius, true
}

// GoalEvent is one goal of a settled match.
type GoalEvent struct {
	Minute int
	Side   Side
}

// Outcome is the final result of a fixture submitted after the whistle.
type Outcome struct {
	MatchID   string
	HomeScore int
	AwayScore int
	HTHome    *int
	HTAway    *int
	Goals     []GoalEvent

	// Teams and kick-off are only needed when the fixture was never
	// analysed by this process.
	HomeTeam string
	AwayTeam string
	Kickoff  time.Time
	// ClosingOdds maps market names to the closing decimal odds.
	ClosingOdds map[string]float64
}

// Closing returns the recognised closing prices above 1.
func (o *Outcome) Closing() map[Market]float64 {
	out := make(map[Market]float64, len(o.ClosingOdds))
	for name, price := range o.ClosingOdds {
		if m, ok := ParseMarket(name); ok && price > 1 {
			out[m] = price
		}
	}
	return out
}

// Validate checks scores are non-negative and, when goal events are given,
// that they add up to the final score.
func (o *Outcome) Validate() error {
	if strings.TrimSpace(o.MatchID) == "" {
		return inputErr("match_id", "required")
	}
	if o.HomeScore < 0 {
		return inputErr("home_score", "must be >= 0")
	}
	if o.AwayScore < 0 {
		return inputErr("away_score", "must be >= 0")
	}
	if (o.HTHome == nil) != (o.HTAway == nil) {
		return inputErr("ht_score", "both half-time scores or neither")
	}
	if o.HTHome != nil {
		if *o.HTHome < 0 || *o.HTHome > o.HomeScore {
			return inputErr("ht_home_score", "must be within 0..home_score")
		}
		if *o.HTAway < 0 || *o.HTAway > o.AwayScore {
			return inputErr("ht_away_score", "must be within 0..away_score")
		}
	}
	if len(o.Goals) == 0 {
		return nil
	}
	var home, away int
	for i, g := range o.Goals {
		if g.Minute < 1 || g.Minute > 130 {
			return inputErr(fmt.Sprintf("goals[%d].minute", i), "must be within 1..130")
		}
		switch g.Side {
		case SideHome:
			home++
		case SideAway:
			away++
		default:
			return inputErr(fmt.Sprintf("goals[%d].side", i), "must be h or a")
		}
	}
	if home != o.HomeScore || away != o.AwayScore {
		return inputErr("goals", "goal events do not add up to the final score")
	}
	return nil
}
