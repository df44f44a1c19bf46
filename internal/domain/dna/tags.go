package dna

// Profile tags are closed sets per slot. Every slot can also report
// TagNoData when its minimum sample is not met.

// Tag is a qualitative profile label.
type Tag string

// Shared tags.
const (
	TagNoData           Tag = "NO_DATA"
	TagInsufficientData Tag = "INSUFFICIENT_DATA"
	TagBalanced         Tag = "BALANCED"
	TagAverage          Tag = "AVERAGE"
)

// Slot 1.
const (
	TagHighScoring Tag = "HIGH_SCORING"
	TagLowScoring  Tag = "LOW_SCORING"
)

// Slot 2.
const (
	TagDiesel        Tag = "DIESEL"
	TagEarlyStarters Tag = "EARLY_STARTERS"
	TagClutchTeam    Tag = "CLUTCH_TEAM"
)

// Slot 3.
const (
	TagMVPDependent  Tag = "MVP_DEPENDENT"
	TagTop3Dependent Tag = "TOP3_DEPENDENT"
	TagDistributed   Tag = "DISTRIBUTED"
)

// Slot 5.
const (
	TagFortress     Tag = "FORTRESS"
	TagRoadWarriors Tag = "ROAD_WARRIORS"
)

// Slot 7.
const (
	TagStrongBench  Tag = "STRONG_BENCH"
	TagAverageBench Tag = "AVERAGE_BENCH"
	TagWeakBench    Tag = "WEAK_BENCH"
)

// Slot 8.
const (
	TagReliable   Tag = "RELIABLE"
	TagUnreliable Tag = "UNRELIABLE"
	TagUnproven   Tag = "UNPROVEN"
)

// Slot 9.
const (
	TagCreativeHub          Tag = "CREATIVE_HUB"
	TagIndividualBrilliance Tag = "INDIVIDUAL_BRILLIANCE"
	TagCollective           Tag = "COLLECTIVE"
)

// Slot 10.
const (
	TagHot       Tag = "HOT"
	TagStable    Tag = "STABLE"
	TagDeclining Tag = "DECLINING"
)

// Slot 11.
const (
	TagClinicalTeam   Tag = "CLINICAL_TEAM"
	TagPenaltyReliant Tag = "PENALTY_RELIANT"
	TagWastefulTeam   Tag = "WASTEFUL_TEAM"
)

// Slot 12.
const (
	TagHighDependency Tag = "HIGH_DEPENDENCY"
	TagModerate       Tag = "MODERATE"
)

// Slot 13.
const (
	TagComboReliant Tag = "COMBO_RELIANT"
	TagComboDiverse Tag = "COMBO_DIVERSE"
	TagNoCombo      Tag = "NO_COMBO"
)

// Slot 14.
const (
	TagBurstScorer  Tag = "BURST_SCORER"
	TagMixed        Tag = "MIXED"
	TagSteadyScorer Tag = "STEADY_SCORER"
)

// Slot 15.
const (
	TagFrontRunner  Tag = "FRONT_RUNNER"
	TagComebackKing Tag = "COMEBACK_KING"
	TagFragile      Tag = "FRAGILE"
	TagMentallyWeak Tag = "MENTALLY_WEAK"
	TagResilient    Tag = "RESILIENT"
)

// Slot 16.
const (
	TagKiller             Tag = "KILLER"
	TagSettler            Tag = "SETTLER"
	TagComebackSpecialist Tag = "COMEBACK_SPECIALIST"
	TagLevelScorer        Tag = "LEVEL_SCORER"
)

// Slot 17.
const (
	TagPrimeTimeBeast      Tag = "PRIME_TIME_BEAST"
	TagAfternoonSpecialist Tag = "AFTERNOON_SPECIALIST"
	TagLunchWarrior        Tag = "LUNCH_WARRIOR"
	TagPrimeTimeWeak       Tag = "PRIME_TIME_WEAK"
	TagAfternoonWeak       Tag = "AFTERNOON_WEAK"
	TagConsistent          Tag = "CONSISTENT"
	TagSlightPreference    Tag = "SLIGHT_PREFERENCE"
)

// Slot 18.
const (
	TagRainAttacker   Tag = "RAIN_ATTACKER"
	TagRainWeak       Tag = "RAIN_WEAK"
	TagRainLeaky      Tag = "RAIN_LEAKY"
	TagRainSolid      Tag = "RAIN_SOLID"
	TagColdSpecialist Tag = "COLD_SPECIALIST"
	TagColdVulnerable Tag = "COLD_VULNERABLE"
	TagHeatDiesel     Tag = "HEAT_DIESEL"
	TagHeatWeak       Tag = "HEAT_WEAK"
	TagWeatherNeutral Tag = "WEATHER_NEUTRAL"
)

// Finishing classifies a player's shot conversion against expectation.
type Finishing string

// Finishing classes. A class other than LowVolume needs at least
// minShotsForFinishing shots.
const (
	FinishingLowVolume       Finishing = "LOW_VOLUME"
	FinishingTrueClinical    Finishing = "TRUE_CLINICAL"
	FinishingClinical        Finishing = "CLINICAL"
	FinishingPenaltyInflated Finishing = "PENALTY_INFLATED"
	FinishingWasteful        Finishing = "WASTEFUL"
	FinishingNeutral         Finishing = "NEUTRAL"
)

// ChainRole is a player's role in the team's shot-producing possessions.
type ChainRole string

// Chain roles.
const (
	RoleBuildupArchitect ChainRole = "BUILDUP_ARCHITECT"
	RoleHighInvolvement  ChainRole = "HIGH_INVOLVEMENT"
	RoleFinisherOnly     ChainRole = "FINISHER_ONLY"
	RolePlaymaker        ChainRole = "PLAYMAKER"
	RoleBoxCrasher       ChainRole = "BOX_CRASHER"
)

// Window is a kick-off time bucket.
type Window string

// Kick-off windows by local hour.
const (
	WindowLunch     Window = "LUNCH"
	WindowAfternoon Window = "AFTERNOON"
	WindowPrime     Window = "PRIME_TIME"
)

// WindowOf maps a kick-off hour onto its window; hours before noon have none.
func WindowOf(hour int) (Window, bool) {
	switch {
	case hour >= 12 && hour < 15:
		return WindowLunch, true
	case hour >= 15 && hour < 19:
		return WindowAfternoon, true
	case hour >= 19 && hour < 24:
		return WindowPrime, true
	default:
		return "", false
	}
}
