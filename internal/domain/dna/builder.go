package dna

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/names"
	"github.com/okian/matchquant/pkg/logger"
)

// Source is the part of the history store the builder reads. Missing data
// is returned as nil or empty, never as an error.
type Source interface {
	TeamAggregates(ctx context.Context, team model.TeamRef, season string) (*model.TeamAggregates, error)
	Players(ctx context.Context, team model.TeamRef, season string) ([]model.Player, error)
	// Goals returns every goal of the matches the team played in the
	// season, for both sides.
	Goals(ctx context.Context, team model.TeamRef, season string) ([]model.Goal, error)
	MatchesPlayed(ctx context.Context, team model.TeamRef, competition string) ([]model.Match, error)
}

// Overlay supplies matches settled after the store snapshot was taken.
type Overlay interface {
	Settled(team string) []ReconstructedMatch
}

// Builder computes TeamDNA records.
type Builder struct {
	source  Source
	overlay Overlay
	logger  logger.Logger
}

// NewBuilder creates a builder reading from source.
func NewBuilder(source Source, opts ...Option) *Builder {
	b := &Builder{
		source: source,
		logger: logger.Get().Named("dna"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// buildInput is everything a slot stage may read. It lives for one build.
type buildInput struct {
	team     model.TeamRef
	keys     map[string]struct{}
	agg      *model.TeamAggregates
	players  []model.Player
	ownGoals []model.Goal
	matches  []ReconstructedMatch
	// recent is matches plus the overlay's settled matches. Only the form,
	// first-goal and game-state slots read it.
	recent []ReconstructedMatch
}

func (in *buildInput) isTeam(name string) bool {
	_, ok := in.keys[names.Normalize(name)]
	return ok
}

// sideIn returns on which side the team played m.
func (in *buildInput) sideIn(m model.Match) (model.Side, bool) {
	switch {
	case in.isTeam(m.HomeTeam):
		return model.SideHome, true
	case in.isTeam(m.AwayTeam):
		return model.SideAway, true
	default:
		return "", false
	}
}

type stage struct {
	slot  string
	build func(d *TeamDNA, in *buildInput) error
	clear func(d *TeamDNA)
}

// stages run in slot order; a stage may read the slots filled before it.
var stages = []stage{ //nolint:gochecknoglobals // fixed pipeline
	{"volume", buildVolume, func(d *TeamDNA) { d.Volume = VolumeSlot{Tag: TagNoData} }},
	{"timing", buildTiming, func(d *TeamDNA) { d.Timing = TimingSlot{Tag: TagNoData} }},
	{"dependency", buildDependency, func(d *TeamDNA) { d.Dependency = DependencySlot{Tag: TagNoData} }},
	{"style", buildStyle, func(d *TeamDNA) { d.Style = StyleSlot{} }},
	{"home_away", buildHomeAway, func(d *TeamDNA) { d.HomeAway = HomeAwaySlot{Tag: TagNoData} }},
	{"efficiency", buildEfficiency, func(d *TeamDNA) { d.Efficiency = EfficiencySlot{} }},
	{"super_sub", buildSuperSub, func(d *TeamDNA) { d.SuperSub = SuperSubSlot{Tag: TagNoData} }},
	{"penalty", buildPenalty, func(d *TeamDNA) { d.Penalty = PenaltySlot{Tag: TagUnproven} }},
	{"creativity", buildCreativity, func(d *TeamDNA) { d.Creativity = CreativitySlot{Tag: TagNoData} }},
	{"form", buildForm, func(d *TeamDNA) { d.Form = FormSlot{Tag: TagNoData} }},
	{"np_clinical", buildNPClinical, func(d *TeamDNA) { d.NPClinical = NPClinicalSlot{Tag: TagNoData} }},
	{"chain", buildChain, func(d *TeamDNA) { d.Chain = ChainSlot{Tag: TagNoData} }},
	{"combos", buildCombos, func(d *TeamDNA) { d.Combos = ComboSlot{Tag: TagNoCombo} }},
	{"momentum", buildMomentum, func(d *TeamDNA) { d.Momentum = MomentumSlot{Tag: TagNoData} }},
	{"first_goal", buildFirstGoal, func(d *TeamDNA) { d.FirstGoal = FirstGoalSlot{Tag: TagNoData} }},
	{"game_state", buildGameState, func(d *TeamDNA) { d.GameState = GameStateSlot{Tag: TagNoData} }},
	{"schedule", buildSchedule, func(d *TeamDNA) { d.Schedule = ScheduleSlot{Tag: TagInsufficientData} }},
	{"weather", buildWeather, func(d *TeamDNA) { d.Weather = WeatherSlot{Status: TagInsufficientData} }},
	{"profile", buildProfile, func(d *TeamDNA) { d.Profile = MarketProfile{} }},
}

// Build computes the DNA of team for season. Store failures and missing data
// leave the affected slots at their no-data values; the only error returned
// is the context's.
func (b *Builder) Build(ctx context.Context, team model.TeamRef, season string) (*TeamDNA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := b.fetch(ctx, team, season)
	if err != nil {
		return nil, err
	}

	d := &TeamDNA{Season: season, Matches: len(in.matches)}
	if in.agg != nil {
		d.Team = in.agg.Team
	}
	d.Team.Name = team.Canonical

	for _, st := range stages {
		if err := st.build(d, in); err != nil {
			b.logger.Warn(ctx, "inconsistent data, slot reset",
				logger.String("team", team.Canonical),
				logger.String("season", season),
				logger.String("slot", st.slot),
				logger.Error(err),
			)
			st.clear(d)
		}
	}
	return d, nil
}

func (b *Builder) fetch(ctx context.Context, team model.TeamRef, season string) (*buildInput, error) {
	in := &buildInput{team: team, keys: make(map[string]struct{})}
	for _, n := range team.Names() {
		in.keys[names.Normalize(n)] = struct{}{}
	}

	agg, err := b.source.TeamAggregates(ctx, team, season)
	if err != nil {
		b.absent(ctx, team, "team_aggregates", err)
	}
	in.agg = agg

	players, err := b.source.Players(ctx, team, season)
	if err != nil {
		b.absent(ctx, team, "players", err)
	}
	in.players = append([]model.Player(nil), players...)
	sort.SliceStable(in.players, func(i, j int) bool { return in.players[i].ID < in.players[j].ID })

	goals, err := b.source.Goals(ctx, team, season)
	if err != nil {
		b.absent(ctx, team, "goals", err)
	}

	played, err := b.source.MatchesPlayed(ctx, team, "")
	if err != nil {
		b.absent(ctx, team, "matches_played", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byMatch := make(map[string][]model.Goal)
	for _, g := range goals {
		byMatch[g.MatchID] = append(byMatch[g.MatchID], g)
		if in.isTeam(g.Team) {
			in.ownGoals = append(in.ownGoals, g)
		}
	}
	sort.SliceStable(in.ownGoals, func(i, j int) bool {
		if in.ownGoals[i].MatchID != in.ownGoals[j].MatchID {
			return in.ownGoals[i].MatchID < in.ownGoals[j].MatchID
		}
		return in.ownGoals[i].Minute < in.ownGoals[j].Minute
	})

	// Reconstructions are cached per build; a match is rebuilt once even
	// when it appears twice in the feed.
	recon := make(map[string]ReconstructedMatch)
	for _, m := range played {
		if season != "" && m.Season != "" && m.Season != season {
			continue
		}
		if _, ok := in.sideIn(m); !ok {
			continue
		}
		if _, ok := recon[m.ID]; ok {
			continue
		}
		recon[m.ID] = Reconstruct(m, byMatch[m.ID])
	}
	in.matches = sortedMatches(recon)

	if b.overlay == nil {
		in.recent = in.matches
		return in, nil
	}
	for _, r := range b.overlay.Settled(team.Canonical) {
		if _, ok := in.sideIn(r.Match); ok {
			recon[r.Match.ID] = r
		}
	}
	in.recent = sortedMatches(recon)
	return in, nil
}

// sortedMatches orders reconstructions by kick-off, then id.
func sortedMatches(recon map[string]ReconstructedMatch) []ReconstructedMatch {
	out := make([]ReconstructedMatch, 0, len(recon))
	for _, r := range recon {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, c := out[i].Match, out[j].Match
		if !a.Kickoff.Equal(c.Kickoff) {
			return a.Kickoff.Before(c.Kickoff)
		}
		return a.ID < c.ID
	})
	return out
}

func (b *Builder) absent(ctx context.Context, team model.TeamRef, what string, err error) {
	b.logger.Warn(ctx, "history read failed, treating as absent",
		logger.String("team", team.Canonical),
		logger.String("read", what),
		logger.Error(err),
	)
}

func inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInconsistentData, fmt.Sprintf(format, args...))
}

func pct(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	p := num / den * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
