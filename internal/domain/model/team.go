// Package model contains the domain entities shared by every stage of the
// analysis pipeline. Values are plain records; stores return them, builders
// and scorers read them, nothing here performs I/O.
package model

import (
	"strings"
	"time"
)

// Tier is the discrete strength class of a team. Higher is stronger.
type Tier int

// Tier values map S/A/B/C/D onto 5..1 so that tier gaps are plain subtraction.
const (
	TierUnknown Tier = 0
	TierD       Tier = 1
	TierC       Tier = 2
	TierB       Tier = 3
	TierA       Tier = 4
	TierS       Tier = 5
)

// ParseTier maps a letter grade onto a Tier. Unknown letters yield TierUnknown.
func ParseTier(s string) Tier {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S":
		return TierS
	case "A":
		return TierA
	case "B":
		return TierB
	case "C":
		return TierC
	case "D":
		return TierD
	default:
		return TierUnknown
	}
}

func (t Tier) String() string {
	switch t {
	case TierS:
		return "S"
	case TierA:
		return "A"
	case TierB:
		return "B"
	case TierC:
		return "C"
	case TierD:
		return "D"
	default:
		return "?"
	}
}

// Known reports whether the tier was graded.
func (t Tier) Known() bool { return t >= TierD && t <= TierS }

// Style is a team's playing style used by the tactical matrix and the simulator.
type Style string

// Closed set of playing styles.
const (
	StyleUnknown    Style = ""
	StylePossession Style = "POSSESSION"
	StyleHighPress  Style = "HIGH_PRESS"
	StyleCounter    Style = "COUNTER"
	StyleDirect     Style = "DIRECT"
	StyleDefensive  Style = "DEFENSIVE"
	StyleBalanced   Style = "BALANCED"
)

// ParseStyle normalises a style name; unknown names map to StyleUnknown.
func ParseStyle(s string) Style {
	switch st := Style(strings.ToUpper(strings.TrimSpace(s))); st {
	case StylePossession, StyleHighPress, StyleCounter, StyleDirect, StyleDefensive, StyleBalanced:
		return st
	default:
		return StyleUnknown
	}
}

// Attacking reports whether the style produces open, high-variance matches.
func (s Style) Attacking() bool {
	return s == StyleHighPress || s == StyleDirect || s == StylePossession
}

// Team is the identity and static profile of a team for one season.
type Team struct {
	ID                 string
	Name               string
	League             string
	Tier               Tier
	HistoricalStrength float64
	SquadValue         float64
	Style              Style
	HomeFortressFactor float64 // multiplier on home xG, 1.0 when neutral
	AwayWeaknessFactor float64 // away xG is multiplied by 2 - factor, 1.0 when neutral
	PsychEdge          float64
	StarPlayers        []string
}

// FortressFactor returns the home fortress multiplier, defaulting to 1.
func (t Team) FortressFactor() float64 {
	if t.HomeFortressFactor <= 0 {
		return 1
	}
	return t.HomeFortressFactor
}

// WeaknessFactor returns the away weakness factor, defaulting to 1.
func (t Team) WeaknessFactor() float64 {
	if t.AwayWeaknessFactor <= 0 {
		return 1
	}
	return t.AwayWeaknessFactor
}

// TeamAggregates are season-level totals for a team ("team intelligence").
type TeamAggregates struct {
	Team         Team
	Season       string
	Matches      int
	GoalsFor     int
	GoalsAgainst int
	XGFor        float64
	XGAgainst    float64
	Shots        int

	HomeMatches  int
	HomeScored   int
	HomeConceded int
	AwayMatches  int
	AwayScored   int
	AwayConceded int

	// Record against top (S/A) and bottom (D) sides.
	VsTopMatches    int
	VsTopGoals      int
	VsBottomMatches int
	VsBottomGoals   int
}

// GoalsPerMatch returns the season scoring rate, 0 when no matches were played.
func (a TeamAggregates) GoalsPerMatch() float64 {
	if a.Matches == 0 {
		return 0
	}
	return float64(a.GoalsFor) / float64(a.Matches)
}

// TeamMomentum captures short-term form and availability.
type TeamMomentum struct {
	Team              string
	Last5Points       int
	Last5GoalsFor     int
	Last5GoalsAgainst int
	StarPlayerOut     bool
	StarImpactXG      float64 // xG the missing star contributes per match
	UpdatedAt         time.Time
}

// RefereeProfile summarises a referee's historical matches.
type RefereeProfile struct {
	Name              string
	League            string
	Matches           int
	YellowsPerMatch   float64
	RedsPerMatch      float64
	PenaltiesPerMatch float64
	GoalsPerMatch     float64
	HomeWinPct        float64
	BTTSPct           float64
	Over25Pct         float64
}

// H2HRecord is the head-to-head history from TeamA's point of view.
type H2HRecord struct {
	TeamA     string
	TeamB     string
	Matches   int
	TeamAWins int
	Draws     int
	TeamBWins int
	AvgGoals  float64
	BTTSPct   float64
	Over25Pct float64
}

// Flip returns the same record seen from TeamB.
func (h H2HRecord) Flip() H2HRecord {
	h.TeamA, h.TeamB = h.TeamB, h.TeamA
	h.TeamAWins, h.TeamBWins = h.TeamBWins, h.TeamAWins
	return h
}

// MarketTrap is a pre-registered market a team's odds are known to misprice.
type MarketTrap struct {
	Team   string
	Market Market
	Active bool
	Reason string
}

// TacticalCell is one (style_a, style_b) entry of the tactical matrix.
type TacticalCell struct {
	StyleA    Style
	StyleB    Style
	Matches   int
	BTTSPct   float64
	Over25Pct float64
	AvgGoals  float64
}

// TeamRef identifies a team by its canonical name and every source name it is
// known under. Stores match a record when any name matches.
type TeamRef struct {
	Canonical string
	Aliases   []string
}

// Ref wraps a bare name into a TeamRef with no aliases.
func Ref(name string) TeamRef { return TeamRef{Canonical: name} }

// Names returns the canonical name followed by its aliases, without duplicates.
func (t TeamRef) Names() []string {
	out := make([]string, 0, len(t.Aliases)+1)
	seen := make(map[string]struct{}, len(t.Aliases)+1)
	for _, n := range append([]string{t.Canonical}, t.Aliases...) {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
