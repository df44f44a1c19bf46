package model

import (
	"strconv"
	"time"
)

// Player holds per-season aggregates for one player.
type Player struct {
	ID          string
	Name        string
	Team        string
	Season      string
	Minutes     int
	Appearances int
	Goals       int
	NPGoals     int
	XG          float64
	NPXG        float64
	Assists     int
	XA          float64
	Shots       int
	KeyPasses   int
	XGChain     float64
	XGBuildup   float64
	YellowCards int
	RedCards    int

	PenaltiesScored int
	PenaltiesTaken  int

	// Short-term form window.
	RecentMatches int
	RecentGoals   int
	RecentXG      float64
}

// Situation is how a goal was created.
type Situation string

// Closed set of goal situations.
const (
	SituationOpenPlay Situation = "OPEN_PLAY"
	SituationSetPiece Situation = "SET_PIECE"
	SituationCorner   Situation = "FROM_CORNER"
	SituationFreeKick Situation = "DIRECT_FREEKICK"
	SituationPenalty  Situation = "PENALTY"
	SituationUnknown  Situation = ""
)

// SetPiece reports whether the situation counts as a dead-ball goal other than a penalty.
func (s Situation) SetPiece() bool {
	return s == SituationSetPiece || s == SituationCorner || s == SituationFreeKick
}

// BodyPart is what the scorer finished with.
type BodyPart string

// Closed set of body parts.
const (
	BodyRightFoot BodyPart = "RIGHT_FOOT"
	BodyLeftFoot  BodyPart = "LEFT_FOOT"
	BodyHead      BodyPart = "HEAD"
	BodyOther     BodyPart = "OTHER"
)

// Side is home or away.
type Side string

// Sides of a fixture.
const (
	SideHome Side = "h"
	SideAway Side = "a"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

// Goal is one goal event of a completed match.
type Goal struct {
	MatchID   string
	Minute    int
	Team      string // canonical name of the scoring team
	ScorerID  string
	AssistID  string
	ShotXG    float64
	Situation Situation
	BodyPart  BodyPart
}

// Half returns 1 for first-half goals and 2 otherwise.
func (g Goal) Half() int {
	if g.Minute <= 45 {
		return 1
	}
	return 2
}

// Match is a completed fixture.
type Match struct {
	ID          string
	Competition string
	Season      string
	HomeTeam    string
	AwayTeam    string
	Kickoff     time.Time
	HomeGoals   int
	AwayGoals   int
	HTHome      int
	HTAway      int
	HasHT       bool
	HomeXG      float64
	AwayXG      float64

	HasWeather   bool
	TemperatureC float64
	Rainy        bool
}

// SideOf reports on which side team played, and whether it played at all.
func (m Match) SideOf(team string) (Side, bool) {
	switch team {
	case m.HomeTeam:
		return SideHome, true
	case m.AwayTeam:
		return SideAway, true
	default:
		return "", false
	}
}

// GoalsFor returns the goals scored and conceded by the given side.
func (m Match) GoalsFor(side Side) (scored, conceded int) {
	if side == SideHome {
		return m.HomeGoals, m.AwayGoals
	}
	return m.AwayGoals, m.HomeGoals
}

// OddsSnapshot is one bookmaker quote for a match at a point in time. Zero
// means the market was not quoted in that snapshot.
type OddsSnapshot struct {
	MatchID    string
	Bookmaker  string
	CapturedAt time.Time
	Home       float64
	Draw       float64
	Away       float64
	BTTSYes    float64
	BTTSNo     float64
	Over15     float64
	Over25     float64
	Over35     float64
	Under25    float64
}

// Complete1X2 reports whether the snapshot quotes all three match-result prices.
func (o OddsSnapshot) Complete1X2() bool {
	return o.Home > 1 && o.Draw > 1 && o.Away > 1
}

// SeasonOf names the season a date belongs to by its starting year. Seasons
// turn over on 1 July.
func SeasonOf(t time.Time) string {
	y := t.Year()
	if t.Month() < time.July {
		y--
	}
	return strconv.Itoa(y)
}
