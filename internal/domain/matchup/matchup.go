// Package matchup gathers everything known about one fixture before it is
// scored: both team DNAs, the head-to-head record, the tactical cell, the
// referee and the odds history of every priced market.
package matchup

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/names"
	"github.com/okian/matchquant/pkg/logger"
)

// Store is the part of the history store the fetcher reads.
type Store interface {
	Team(ctx context.Context, team model.TeamRef) (*model.Team, error)
	TeamAggregates(ctx context.Context, team model.TeamRef, season string) (*model.TeamAggregates, error)
	MatchesPlayed(ctx context.Context, team model.TeamRef, competition string) ([]model.Match, error)
	Momentum(ctx context.Context, team model.TeamRef) (*model.TeamMomentum, error)
	MarketTraps(ctx context.Context, team model.TeamRef) ([]model.MarketTrap, error)
	H2H(ctx context.Context, a, b model.TeamRef) (*model.H2HRecord, error)
	Referee(ctx context.Context, name, league string) (*model.RefereeProfile, error)
	TacticalCell(ctx context.Context, a, b model.Style) (*model.TacticalCell, error)
	OddsTimeline(ctx context.Context, matchID string, market model.Market) ([]model.OddsSnapshot, error)
}

// Resolver canonicalises team and competition names.
type Resolver interface {
	Expand(name string) (model.TeamRef, error)
	Competition(name string) string
}

// DNASource serves cached team DNAs.
type DNASource interface {
	Get(ctx context.Context, team model.TeamRef, season string) (*dna.TeamDNA, error)
}

// Side is one team of the fixture.
type Side struct {
	Ref   model.TeamRef
	Team  model.Team
	Known bool // a team record was found

	DNA        *dna.TeamDNA
	Aggregates *model.TeamAggregates
	// Competition holds the team's matches in the fixture's competition
	// class, cups folded into their parent league.
	Competition []model.Match
	Momentum    *model.TeamMomentum
	Traps       []model.MarketTrap
}

// Context is the pre-fetched data of one fixture. It is read-only once
// returned by Fetch.
type Context struct {
	Input       model.MatchInput
	Season      string
	Competition string

	Home Side
	Away Side

	H2H      *model.H2HRecord // from the home team's point of view
	Tactical *model.TacticalCell
	Referee  *model.RefereeProfile
	Odds     map[model.Market][]model.OddsSnapshot
}

// Side returns the side record for s.
func (c *Context) Side(s model.Side) *Side {
	if s == model.SideHome {
		return &c.Home
	}
	return &c.Away
}

// Fetcher builds a Context with parallel store reads.
type Fetcher struct {
	store    Store
	resolver Resolver
	dna      DNASource
	season   string
	logger   logger.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(store Store, resolver Resolver, dnaSource DNASource, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:    store,
		resolver: resolver,
		dna:      dnaSource,
		logger:   logger.Get().Named("matchup"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve expands a team name, falling back to its variants when the name
// is unknown to the alias table.
func (f *Fetcher) Resolve(name string) model.TeamRef {
	ref, err := f.resolver.Expand(name)
	if err != nil {
		return names.Fallback(name)
	}
	return ref
}

// Fetch gathers the context of in. Missing data leaves fields nil; the only
// error returned is the context's.
func (f *Fetcher) Fetch(ctx context.Context, in model.MatchInput) (*Context, error) {
	c := &Context{
		Input:  in,
		Season: f.season,
		Odds:   make(map[model.Market][]model.OddsSnapshot),
	}
	if c.Season == "" {
		c.Season = model.SeasonOf(in.CommenceTime)
	}
	competition := in.Competition
	if competition == "" {
		competition = in.League
	}
	c.Competition = f.resolver.Competition(competition)
	c.Home.Ref = f.Resolve(in.HomeTeam)
	c.Away.Ref = f.Resolve(in.AwayTeam)

	// Per-market timelines are written into a slice first so that the map is
	// only touched after the group has joined.
	priced := in.MarketOdds()
	timelines := make([][]model.OddsSnapshot, len(priced))

	g, gctx := errgroup.WithContext(ctx)
	f.fetchSide(gctx, g, &c.Home, c.Season, c.Competition)
	f.fetchSide(gctx, g, &c.Away, c.Season, c.Competition)
	g.Go(func() error {
		h, err := f.store.H2H(gctx, c.Home.Ref, c.Away.Ref)
		c.H2H = absent(gctx, f, "h2h", h, err)
		return nil
	})
	if in.RefereeName != "" {
		g.Go(func() error {
			r, err := f.store.Referee(gctx, in.RefereeName, in.League)
			c.Referee = absent(gctx, f, "referee", r, err)
			return nil
		})
	}
	for i, mo := range priced {
		g.Go(func() error {
			tl, err := f.store.OddsTimeline(gctx, in.MatchID, mo.Market)
			if err != nil {
				f.warn(gctx, "odds_timeline", err)
				return nil
			}
			timelines[i] = tl
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, mo := range priced {
		if len(timelines[i]) > 0 {
			c.Odds[mo.Market] = timelines[i]
		}
	}

	// The tactical cell needs both styles, which come from the team reads.
	hs, as := c.Home.style(), c.Away.style()
	if hs != model.StyleUnknown && as != model.StyleUnknown {
		cell, err := f.store.TacticalCell(ctx, hs, as)
		c.Tactical = absent(ctx, f, "tactical_cell", cell, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *Fetcher) fetchSide(ctx context.Context, g *errgroup.Group, s *Side, season, competition string) {
	g.Go(func() error {
		t, err := f.store.Team(ctx, s.Ref)
		if t = absent(ctx, f, "team", t, err); t != nil {
			s.Team = *t
			s.Known = true
		}
		return nil
	})
	g.Go(func() error {
		a, err := f.store.TeamAggregates(ctx, s.Ref, season)
		s.Aggregates = absent(ctx, f, "team_aggregates", a, err)
		return nil
	})
	g.Go(func() error {
		ms, err := f.store.MatchesPlayed(ctx, s.Ref, competition)
		if err != nil {
			f.warn(ctx, "matches_played", err)
			return nil
		}
		s.Competition = ms
		return nil
	})
	g.Go(func() error {
		m, err := f.store.Momentum(ctx, s.Ref)
		s.Momentum = absent(ctx, f, "momentum", m, err)
		return nil
	})
	g.Go(func() error {
		traps, err := f.store.MarketTraps(ctx, s.Ref)
		if err != nil {
			f.warn(ctx, "market_traps", err)
			return nil
		}
		s.Traps = traps
		return nil
	})
	g.Go(func() error {
		d, err := f.dna.Get(ctx, s.Ref, season)
		if err != nil {
			f.warn(ctx, "team_dna", err)
			return nil
		}
		s.DNA = d
		return nil
	})
}

// Profile merges the store's team record with the DNA's view of the team.
func (s *Side) Profile() model.Team {
	t := s.Team
	if !s.Known && s.DNA != nil {
		t = s.DNA.Team
	}
	if !t.Tier.Known() && s.DNA != nil {
		t.Tier = s.DNA.Team.Tier
	}
	if t.Style == model.StyleUnknown && s.DNA != nil {
		t.Style = s.DNA.Team.Style
	}
	if t.Name == "" {
		t.Name = s.Ref.Canonical
	}
	return t
}

func (s *Side) style() model.Style { return s.Profile().Style }

// ActiveTrap returns the first active trap on market m.
func (s *Side) ActiveTrap(m model.Market) (model.MarketTrap, bool) {
	for _, t := range s.Traps {
		if t.Active && t.Market == m {
			return t, true
		}
	}
	return model.MarketTrap{}, false
}

func (f *Fetcher) warn(ctx context.Context, read string, err error) {
	f.logger.Warn(ctx, "matchup read failed, treating as absent",
		logger.String("read", read),
		logger.Error(err),
	)
}

// absent logs a failed read and turns it into a nil value.
func absent[T any](ctx context.Context, f *Fetcher, read string, v *T, err error) *T {
	if err != nil {
		f.warn(ctx, read, err)
		return nil
	}
	return v
}
