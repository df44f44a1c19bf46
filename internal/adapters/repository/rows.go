package repository

import (
	"strings"
	"time"

	"github.com/okian/matchquant/internal/domain/model"
)

// Warehouse tables. Team columns hold source names; lookups compare them
// case-insensitively against every name of the requested team.

type teamRow struct {
	ID                 string `gorm:"primaryKey;type:varchar(64)"`
	Name               string `gorm:"type:varchar(128);not null;index"`
	League             string `gorm:"type:varchar(128)"`
	Tier               string `gorm:"type:varchar(1)"`
	HistoricalStrength float64
	SquadValue         float64
	Style              string `gorm:"type:varchar(20)"`
	HomeFortressFactor float64
	AwayWeaknessFactor float64
	PsychEdge          float64
	StarPlayers        string `gorm:"type:text"` // comma separated
}

func (teamRow) TableName() string { return "teams" }

func (r teamRow) toModel() model.Team {
	t := model.Team{
		ID:                 r.ID,
		Name:               r.Name,
		League:             r.League,
		Tier:               model.ParseTier(r.Tier),
		HistoricalStrength: r.HistoricalStrength,
		SquadValue:         r.SquadValue,
		Style:              model.ParseStyle(r.Style),
		HomeFortressFactor: r.HomeFortressFactor,
		AwayWeaknessFactor: r.AwayWeaknessFactor,
		PsychEdge:          r.PsychEdge,
	}
	for _, p := range strings.Split(r.StarPlayers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			t.StarPlayers = append(t.StarPlayers, p)
		}
	}
	return t
}

type aggregateRow struct {
	Team            string `gorm:"primaryKey;type:varchar(128)"`
	Season          string `gorm:"primaryKey;type:varchar(9)"`
	Matches         int
	GoalsFor        int
	GoalsAgainst    int
	XGFor           float64 `gorm:"column:xg_for"`
	XGAgainst       float64 `gorm:"column:xg_against"`
	Shots           int
	HomeMatches     int
	HomeScored      int
	HomeConceded    int
	AwayMatches     int
	AwayScored      int
	AwayConceded    int
	VsTopMatches    int
	VsTopGoals      int
	VsBottomMatches int
	VsBottomGoals   int
}

func (aggregateRow) TableName() string { return "team_season_stats" }

func (r aggregateRow) toModel(team model.Team) model.TeamAggregates {
	return model.TeamAggregates{
		Team:            team,
		Season:          r.Season,
		Matches:         r.Matches,
		GoalsFor:        r.GoalsFor,
		GoalsAgainst:    r.GoalsAgainst,
		XGFor:           r.XGFor,
		XGAgainst:       r.XGAgainst,
		Shots:           r.Shots,
		HomeMatches:     r.HomeMatches,
		HomeScored:      r.HomeScored,
		HomeConceded:    r.HomeConceded,
		AwayMatches:     r.AwayMatches,
		AwayScored:      r.AwayScored,
		AwayConceded:    r.AwayConceded,
		VsTopMatches:    r.VsTopMatches,
		VsTopGoals:      r.VsTopGoals,
		VsBottomMatches: r.VsBottomMatches,
		VsBottomGoals:   r.VsBottomGoals,
	}
}

type playerRow struct {
	ID              string `gorm:"primaryKey;type:varchar(64)"`
	Season          string `gorm:"primaryKey;type:varchar(9)"`
	Name            string `gorm:"type:varchar(128)"`
	Team            string `gorm:"type:varchar(128);index"`
	Minutes         int
	Appearances     int
	Goals           int
	NPGoals         int     `gorm:"column:np_goals"`
	XG              float64 `gorm:"column:xg"`
	NPXG            float64 `gorm:"column:npxg"`
	Assists         int
	XA              float64 `gorm:"column:xa"`
	Shots           int
	KeyPasses       int
	XGChain         float64 `gorm:"column:xg_chain"`
	XGBuildup       float64 `gorm:"column:xg_buildup"`
	YellowCards     int
	RedCards        int
	PenaltiesScored int
	PenaltiesTaken  int
	RecentMatches   int
	RecentGoals     int
	RecentXG        float64 `gorm:"column:recent_xg"`
}

func (playerRow) TableName() string { return "players" }

func (r playerRow) toModel() model.Player {
	return model.Player{
		ID:              r.ID,
		Name:            r.Name,
		Team:            r.Team,
		Season:          r.Season,
		Minutes:         r.Minutes,
		Appearances:     r.Appearances,
		Goals:           r.Goals,
		NPGoals:         r.NPGoals,
		XG:              r.XG,
		NPXG:            r.NPXG,
		Assists:         r.Assists,
		XA:              r.XA,
		Shots:           r.Shots,
		KeyPasses:       r.KeyPasses,
		XGChain:         r.XGChain,
		XGBuildup:       r.XGBuildup,
		YellowCards:     r.YellowCards,
		RedCards:        r.RedCards,
		PenaltiesScored: r.PenaltiesScored,
		PenaltiesTaken:  r.PenaltiesTaken,
		RecentMatches:   r.RecentMatches,
		RecentGoals:     r.RecentGoals,
		RecentXG:        r.RecentXG,
	}
}

type matchRow struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	Competition  string    `gorm:"type:varchar(128)"`
	Season       string    `gorm:"type:varchar(9);index"`
	HomeTeam     string    `gorm:"type:varchar(128);index"`
	AwayTeam     string    `gorm:"type:varchar(128);index"`
	Kickoff      time.Time `gorm:"type:timestamptz"`
	HomeGoals    int
	AwayGoals    int
	HTHome       *int     `gorm:"column:ht_home"`
	HTAway       *int     `gorm:"column:ht_away"`
	HomeXG       float64  `gorm:"column:home_xg"`
	AwayXG       float64  `gorm:"column:away_xg"`
	TemperatureC *float64 `gorm:"column:temperature_c"`
	Rainy        *bool
}

func (matchRow) TableName() string { return "matches" }

func (r matchRow) toModel() model.Match {
	m := model.Match{
		ID:          r.ID,
		Competition: r.Competition,
		Season:      r.Season,
		HomeTeam:    r.HomeTeam,
		AwayTeam:    r.AwayTeam,
		Kickoff:     r.Kickoff.UTC(),
		HomeGoals:   r.HomeGoals,
		AwayGoals:   r.AwayGoals,
		HomeXG:      r.HomeXG,
		AwayXG:      r.AwayXG,
	}
	if r.HTHome != nil && r.HTAway != nil {
		m.HTHome, m.HTAway, m.HasHT = *r.HTHome, *r.HTAway, true
	}
	if r.TemperatureC != nil {
		m.HasWeather = true
		m.TemperatureC = *r.TemperatureC
		m.Rainy = r.Rainy != nil && *r.Rainy
	}
	return m
}

type goalRow struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	MatchID   string `gorm:"type:varchar(64);not null;index"`
	Minute    int
	Team      string  `gorm:"type:varchar(128)"`
	ScorerID  string  `gorm:"type:varchar(64)"`
	AssistID  string  `gorm:"type:varchar(64)"`
	ShotXG    float64 `gorm:"column:shot_xg"`
	Situation string  `gorm:"type:varchar(20)"`
	BodyPart  string  `gorm:"type:varchar(20)"`
}

func (goalRow) TableName() string { return "goals" }

func (r goalRow) toModel() model.Goal {
	return model.Goal{
		MatchID:   r.MatchID,
		Minute:    r.Minute,
		Team:      r.Team,
		ScorerID:  r.ScorerID,
		AssistID:  r.AssistID,
		ShotXG:    r.ShotXG,
		Situation: model.Situation(r.Situation),
		BodyPart:  model.BodyPart(r.BodyPart),
	}
}

type oddsRow struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID    string    `gorm:"type:varchar(64);not null;index"`
	Bookmaker  string    `gorm:"type:varchar(64)"`
	CapturedAt time.Time `gorm:"type:timestamptz;index"`
	Home       float64
	Draw       float64
	Away       float64
	BTTSYes    float64 `gorm:"column:btts_yes"`
	BTTSNo     float64 `gorm:"column:btts_no"`
	Over15     float64 `gorm:"column:over_15"`
	Over25     float64 `gorm:"column:over_25"`
	Over35     float64 `gorm:"column:over_35"`
	Under25    float64 `gorm:"column:under_25"`
}

func (oddsRow) TableName() string { return "odds_snapshots" }

// oddsColumns names the column pricing each market.
var oddsColumns = map[model.Market]string{ //nolint:gochecknoglobals // fixed schema
	model.MarketHome:    "home",
	model.MarketDraw:    "draw",
	model.MarketAway:    "away",
	model.MarketBTTSYes: "btts_yes",
	model.MarketBTTSNo:  "btts_no",
	model.MarketOver15:  "over_15",
	model.MarketOver25:  "over_25",
	model.MarketOver35:  "over_35",
	model.MarketUnder25: "under_25",
}

func (r oddsRow) toModel() model.OddsSnapshot {
	return model.OddsSnapshot{
		MatchID:    r.MatchID,
		Bookmaker:  r.Bookmaker,
		CapturedAt: r.CapturedAt.UTC(),
		Home:       r.Home,
		Draw:       r.Draw,
		Away:       r.Away,
		BTTSYes:    r.BTTSYes,
		BTTSNo:     r.BTTSNo,
		Over15:     r.Over15,
		Over25:     r.Over25,
		Over35:     r.Over35,
		Under25:    r.Under25,
	}
}

type refereeRow struct {
	Name              string `gorm:"primaryKey;type:varchar(128)"`
	League            string `gorm:"primaryKey;type:varchar(128)"`
	Matches           int
	YellowsPerMatch   float64
	RedsPerMatch      float64
	PenaltiesPerMatch float64
	GoalsPerMatch     float64
	HomeWinPct        float64
	BTTSPct           float64 `gorm:"column:btts_pct"`
	Over25Pct         float64 `gorm:"column:over_25_pct"`
}

func (refereeRow) TableName() string { return "referees" }

func (r refereeRow) toModel() model.RefereeProfile {
	return model.RefereeProfile{
		Name:              r.Name,
		League:            r.League,
		Matches:           r.Matches,
		YellowsPerMatch:   r.YellowsPerMatch,
		RedsPerMatch:      r.RedsPerMatch,
		PenaltiesPerMatch: r.PenaltiesPerMatch,
		GoalsPerMatch:     r.GoalsPerMatch,
		HomeWinPct:        r.HomeWinPct,
		BTTSPct:           r.BTTSPct,
		Over25Pct:         r.Over25Pct,
	}
}

type h2hRow struct {
	TeamA     string `gorm:"primaryKey;type:varchar(128)"`
	TeamB     string `gorm:"primaryKey;type:varchar(128)"`
	Matches   int
	TeamAWins int
	Draws     int
	TeamBWins int
	AvgGoals  float64
	BTTSPct   float64 `gorm:"column:btts_pct"`
	Over25Pct float64 `gorm:"column:over_25_pct"`
}

func (h2hRow) TableName() string { return "h2h_records" }

func (r h2hRow) toModel() model.H2HRecord {
	return model.H2HRecord{
		TeamA:     r.TeamA,
		TeamB:     r.TeamB,
		Matches:   r.Matches,
		TeamAWins: r.TeamAWins,
		Draws:     r.Draws,
		TeamBWins: r.TeamBWins,
		AvgGoals:  r.AvgGoals,
		BTTSPct:   r.BTTSPct,
		Over25Pct: r.Over25Pct,
	}
}

type trapRow struct {
	Team   string `gorm:"primaryKey;type:varchar(128)"`
	Market string `gorm:"primaryKey;type:varchar(20)"`
	Active bool
	Reason string `gorm:"type:text"`
}

func (trapRow) TableName() string { return "market_traps" }

func (r trapRow) toModel() model.MarketTrap {
	m, _ := model.ParseMarket(r.Market)
	return model.MarketTrap{Team: r.Team, Market: m, Active: r.Active, Reason: r.Reason}
}

type tacticalRow struct {
	StyleA    string `gorm:"primaryKey;type:varchar(20)"`
	StyleB    string `gorm:"primaryKey;type:varchar(20)"`
	Matches   int
	BTTSPct   float64 `gorm:"column:btts_pct"`
	Over25Pct float64 `gorm:"column:over_25_pct"`
	AvgGoals  float64
}

func (tacticalRow) TableName() string { return "tactical_matrix" }

func (r tacticalRow) toModel() model.TacticalCell {
	return model.TacticalCell{
		StyleA:    model.ParseStyle(r.StyleA),
		StyleB:    model.ParseStyle(r.StyleB),
		Matches:   r.Matches,
		BTTSPct:   r.BTTSPct,
		Over25Pct: r.Over25Pct,
		AvgGoals:  r.AvgGoals,
	}
}

type momentumRow struct {
	Team              string `gorm:"primaryKey;type:varchar(128)"`
	Last5Points       int    `gorm:"column:last5_points"`
	Last5GoalsFor     int    `gorm:"column:last5_goals_for"`
	Last5GoalsAgainst int    `gorm:"column:last5_goals_against"`
	StarPlayerOut     bool
	StarImpactXG      float64   `gorm:"column:star_impact_xg"`
	UpdatedAt         time.Time `gorm:"type:timestamptz"`
}

func (momentumRow) TableName() string { return "team_momentum" }

func (r momentumRow) toModel() model.TeamMomentum {
	return model.TeamMomentum{
		Team:              r.Team,
		Last5Points:       r.Last5Points,
		Last5GoalsFor:     r.Last5GoalsFor,
		Last5GoalsAgainst: r.Last5GoalsAgainst,
		StarPlayerOut:     r.StarPlayerOut,
		StarImpactXG:      r.StarImpactXG,
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}

// tables lists every warehouse table for migration.
func tables() []any {
	return []any{
		&teamRow{}, &aggregateRow{}, &playerRow{}, &matchRow{}, &goalRow{},
		&oddsRow{}, &refereeRow{}, &h2hRow{}, &trapRow{}, &tacticalRow{}, &momentumRow{},
	}
}
