package api

import (
	"strings"
	"time"

	"github.com/okian/matchquant/internal/domain/model"
)

// matchRequest is the wire form of a fixture.
type matchRequest struct {
	MatchID                 string             `json:"match_id"`
	HomeTeam                string             `json:"home_team"`
	AwayTeam                string             `json:"away_team"`
	League                  string             `json:"league"`
	CommenceTime            time.Time          `json:"commence_time"`
	RefereeName             string             `json:"referee_name,omitempty"`
	IsDerby                 bool               `json:"is_derby,omitempty"`
	HomePlayedEuropeMidweek bool               `json:"home_played_europe_midweek,omitempty"`
	AwayPlayedEuropeMidweek bool               `json:"away_played_europe_midweek,omitempty"`
	Competition             string             `json:"competition,omitempty"`
	KickoffHour             *int               `json:"kickoff_hour,omitempty"`
	TemperatureCelsius      *float64           `json:"temperature_celsius,omitempty"`
	IsRainy                 *bool              `json:"is_rainy,omitempty"`
	Odds                    map[string]float64 `json:"odds"`
}

func (r *matchRequest) toInput() model.MatchInput {
	return model.MatchInput{
		MatchID:                 r.MatchID,
		HomeTeam:                r.HomeTeam,
		AwayTeam:                r.AwayTeam,
		League:                  r.League,
		CommenceTime:            r.CommenceTime,
		RefereeName:             r.RefereeName,
		IsDerby:                 r.IsDerby,
		HomePlayedEuropeMidweek: r.HomePlayedEuropeMidweek,
		AwayPlayedEuropeMidweek: r.AwayPlayedEuropeMidweek,
		Competition:             r.Competition,
		KickoffHour:             r.KickoffHour,
		TemperatureCelsius:      r.TemperatureCelsius,
		IsRainy:                 r.IsRainy,
		Odds:                    r.Odds,
	}
}

type goalRequest struct {
	Minute int    `json:"minute"`
	Side   string `json:"side"`
}

// outcomeRequest is the wire form of a final result.
type outcomeRequest struct {
	MatchID     string             `json:"match_id"`
	HomeScore   int                `json:"home_score"`
	AwayScore   int                `json:"away_score"`
	HTHome      *int               `json:"ht_home_score,omitempty"`
	HTAway      *int               `json:"ht_away_score,omitempty"`
	Goals       []goalRequest      `json:"goals,omitempty"`
	HomeTeam    string             `json:"home_team,omitempty"`
	AwayTeam    string             `json:"away_team,omitempty"`
	Kickoff     time.Time          `json:"kickoff,omitempty"`
	ClosingOdds map[string]float64 `json:"closing_odds,omitempty"`
}

func (r *outcomeRequest) toOutcome() model.Outcome {
	o := model.Outcome{
		MatchID:     r.MatchID,
		HomeScore:   r.HomeScore,
		AwayScore:   r.AwayScore,
		HTHome:      r.HTHome,
		HTAway:      r.HTAway,
		HomeTeam:    r.HomeTeam,
		AwayTeam:    r.AwayTeam,
		Kickoff:     r.Kickoff,
		ClosingOdds: r.ClosingOdds,
	}
	for _, g := range r.Goals {
		o.Goals = append(o.Goals, model.GoalEvent{Minute: g.Minute, Side: sideOf(g.Side)})
	}
	return o
}

// sideOf accepts the long and short side names. Anything else is passed
// through so validation can reject it.
func sideOf(s string) model.Side {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home", "h":
		return model.SideHome
	case "away", "a":
		return model.SideAway
	default:
		return model.Side(s)
	}
}
