// Package dna builds the 18-slot behavioural fingerprint of a team-season.
//
// A TeamDNA is a flat record. Slots are filled by independent stages in a
// fixed order; a later stage may read an earlier slot, never the reverse.
// Percentages are in [0, 100] and reported as 0 when their denominator is 0.
// Only explicitly signed deltas may be negative.
package dna

import "github.com/okian/matchquant/internal/domain/model"

// Thresholds used by the slot builders.
const (
	highScoringGPM = 2.0
	lowScoringGPM  = 1.0

	minGoalsForTiming = 5
	clutchPct         = 25.0
	dieselSecondHalf  = 60.0
	earlyPct          = 20.0

	mvpSharePct  = 35.0
	top3SharePct = 65.0

	fortressRatio     = 1.5
	roadWarriorsRatio = 0.8

	minShotsForFinishing = 10
	trueClinicalNPOver   = 2.0
	clinicalNPOver       = 0.5
	penaltyInflatedOver  = 1.0
	wastefulNPOver       = -1.5

	superSubMinMinutes    = 200
	superSubMaxMinsPerApp = 50.0
	superSubMinGoals      = 2
	superSubMinPer90      = 0.5
	strongBenchSharePct   = 15.0

	minPenaltiesForTaker = 2
	reliablePenaltyRate  = 0.8
	shakyPenaltyRate     = 0.7

	creativeHubXAShare      = 0.30
	brillianceAssistPerGoal = 0.5

	minRecentMatches = 3
	hotStreakFactor  = 2.0
	coldSeasonGPA    = 0.3
	regressionOverXG = 3.0

	clinicalTeamNPOver = 3.0
	wastefulTeamNPOver = -3.0
	penaltyReliantPct  = 20.0

	minChainAppearances   = 5
	architectBuildupShare = 0.6
	architectMinBuildup   = 2.0
	highInvolvementRatio  = 1.5
	finisherOnlyMaxShare  = 0.15
	finisherOnlyMinGoals  = 3
	playmakerMinXA        = 3.0
	playmakerMinKeyPasses = 30
	boxCrasherMinShots    = 20
	boxCrasherXGShare     = 0.6
	highDependencyShare   = 35.0
	moderateShare         = 25.0

	maxCombos         = 5
	comboReliantCount = 3
	comboReliantShare = 20.0

	burstGapMinutes     = 10
	minMultiGoalMatches = 3
	burstScorerPct      = 40.0
	steadyScorerPct     = 15.0

	minFirstGoalMatches = 3
	frontRunnerWinPct   = 80.0
	comebackKingPct     = 50.0
	fragileCollapsePct  = 30.0
	mentallyWeakWinPct  = 10.0

	minGameStateGoals   = 3
	killerLeadingPct    = 35.0
	killerIndex         = 2.0
	settlerLeadingPct   = 25.0
	settlerIndex        = 0.5
	comebackTrailingPct = 30.0
	comebackResilience  = 1.0
	levelScorerPct      = 50.0

	minBucketMatches  = 2
	strongWindowDelta = 0.5
	slightWindowDelta = 0.25
	weatherDelta      = 0.3
	coldBelowCelsius  = 10.0
	hotAboveCelsius   = 25.0

	minProfileMatches = 5
)

// TeamDNA is the fingerprint of one team-season. Values are immutable once
// built and may be shared between goroutines.
type TeamDNA struct {
	Team   model.Team
	Season string

	Volume     VolumeSlot
	Timing     TimingSlot
	Dependency DependencySlot
	Style      StyleSlot
	HomeAway   HomeAwaySlot
	Efficiency EfficiencySlot
	SuperSub   SuperSubSlot
	Penalty    PenaltySlot
	Creativity CreativitySlot
	Form       FormSlot
	NPClinical NPClinicalSlot
	Chain      ChainSlot
	Combos     ComboSlot
	Momentum   MomentumSlot
	FirstGoal  FirstGoalSlot
	GameState  GameStateSlot
	Schedule   ScheduleSlot
	Weather    WeatherSlot
	Profile    MarketProfile

	// Matches is the number of reconstructed matches the slots drew on.
	Matches int
}

// VolumeSlot is slot 1.
type VolumeSlot struct {
	Matches           int
	Goals             int
	Conceded          int
	XG                float64
	GoalsPerMatch     float64
	ConcededPerMatch  float64
	XGPerMatch        float64
	XGOverperformance float64
	Tag               Tag
}

// TimingSlot is slot 2. GoalsByPeriod buckets 0-15, 16-30, 31-45, 46-60,
// 61-75 and 76+.
type TimingSlot struct {
	GoalsByPeriod [6]int
	FirstHalfPct  float64
	SecondHalfPct float64
	ClutchPct     float64
	EarlyPct      float64
	PeakPeriod    int
	Tag           Tag
}

// DependencySlot is slot 3.
type DependencySlot struct {
	TopScorerID     string
	TopScorerPct    float64
	Top3Pct         float64
	DistinctScorers int
	Tag             Tag
}

// StyleSlot is slot 4.
type StyleSlot struct {
	OpenPlayPct float64
	SetPiecePct float64
	PenaltyPct  float64
	HeaderPct   float64
	HasData     bool
}

// HomeAwaySlot is slot 5.
type HomeAwaySlot struct {
	HomeGoalsPerMatch float64
	AwayGoalsPerMatch float64
	Ratio             float64
	Tag               Tag
}

// EfficiencySlot is slot 6.
type EfficiencySlot struct {
	ConversionPct  float64
	EliteFinishers int
	ClinicalCount  int
	WastefulCount  int
	Finishing      map[string]Finishing
}

// SuperSubSlot is slot 7.
type SuperSubSlot struct {
	Players  []string
	GoalsPct float64
	Tag      Tag
}

// PenaltySlot is slot 8.
type PenaltySlot struct {
	TakerID    string
	Scored     int
	Taken      int
	Conversion float64
	Tag        Tag
}

// CreativitySlot is slot 9.
type CreativitySlot struct {
	Assists      int
	XA           float64
	TopCreatorID string
	Tag          Tag
}

// FormSlot is slot 10. LastResults holds up to five W/D/L letters, most
// recent first.
type FormSlot struct {
	HotStreak            []string
	ColdStreak           []string
	RegressionCandidates []string
	LastResults          []string
	LastPoints           int
	Tag                  Tag
}

// NPClinicalSlot is slot 11.
type NPClinicalSlot struct {
	NPOverperformance float64
	TrueClinical      []string
	Clinical          []string
	PenaltyInflated   []string
	Wasteful          []string
	Tag               Tag
}

// ChainSlot is slot 12. Involvement holds the per-player involvement ratio;
// a player with no goal contributions but positive xGChain is recorded as
// 2 x xGChain and only feeds the role tags.
type ChainSlot struct {
	XGChain     float64
	XGBuildup   float64
	Involvement map[string]float64
	Roles       map[ChainRole][]string
	TopShare    float64
	Tag         Tag
}

// Combo is one recurring creator to finisher pairing.
type Combo struct {
	CreatorID   string
	FinisherID  string
	Occurrences int
	AvgShotXG   float64
}

// ComboSlot is slot 13.
type ComboSlot struct {
	Top []Combo
	Tag Tag
}

// MomentumSlot is slot 14.
type MomentumSlot struct {
	MultiGoalMatches int
	BurstMatches     int
	BurstRatePct     float64
	MeanGapMinutes   float64
	Tag              Tag
}

// FirstGoalSlot is slot 15.
type FirstGoalSlot struct {
	ScoredFirst           int
	ConcededFirst         int
	WinWhenScoringFirst   float64
	WinWhenConcedingFirst float64
	ComebackRate          float64
	CollapseRate          float64
	Tag                   Tag
}

// GameStateSlot is slot 16.
type GameStateSlot struct {
	Goals           int
	LeadingPct      float64
	TrailingPct     float64
	LevelPct        float64
	KillerIndex     float64
	ResilienceIndex float64
	Tag             Tag
}

// WindowStats is scoring in one kick-off window.
type WindowStats struct {
	Matches       int
	GoalsPerMatch float64
	Delta         float64
}

// ScheduleSlot is slot 17.
type ScheduleSlot struct {
	Windows    map[Window]WindowStats
	BestWindow Window
	Tag        Tag
}

// Split compares one condition with its complement.
type Split struct {
	Matches      int
	OtherMatches int
	AttackDelta  float64
	DefenceDelta float64
	Sufficient   bool
}

// WeatherSlot is slot 18.
type WeatherSlot struct {
	Rain   Split
	Cold   Split
	Heat   Split
	Tags   []Tag
	Status Tag
}

// Has reports whether the slot carries tag.
func (w WeatherSlot) Has(tag Tag) bool {
	for _, t := range w.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MarketProfile is the share of a team's matches landing each market.
type MarketProfile struct {
	Matches   int
	BTTSPct   float64
	Over15Pct float64
	Over25Pct float64
	Over35Pct float64
	WinPct    float64
	DrawPct   float64
	LossPct   float64
	HasData   bool
}

// Rate returns the profile percentage for a market and whether it applies.
func (p MarketProfile) Rate(m model.Market) (float64, bool) {
	if !p.HasData {
		return 0, false
	}
	switch m {
	case model.MarketBTTSYes:
		return p.BTTSPct, true
	case model.MarketBTTSNo:
		return 100 - p.BTTSPct, true
	case model.MarketOver15:
		return p.Over15Pct, true
	case model.MarketOver25:
		return p.Over25Pct, true
	case model.MarketOver35:
		return p.Over35Pct, true
	case model.MarketUnder25:
		return 100 - p.Over25Pct, true
	default:
		return 0, false
	}
}
