package matchup_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/matchup"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/names"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeStore serves fixed records keyed by canonical name.
type fakeStore struct {
	teams       map[string]model.Team
	aggregates  map[string]model.TeamAggregates
	competition map[string][]model.Match
	momentum    map[string]model.TeamMomentum
	traps       map[string][]model.MarketTrap
	h2h         *model.H2HRecord
	h2hErr      error
	referee     *model.RefereeProfile
	cell        *model.TacticalCell
	odds        map[model.Market][]model.OddsSnapshot

	gotCompetition atomic.Value
	gotCell        atomic.Value
}

func (f *fakeStore) Team(_ context.Context, team model.TeamRef) (*model.Team, error) {
	if t, ok := f.teams[team.Canonical]; ok {
		return &t, nil
	}
	return nil, nil
}

func (f *fakeStore) TeamAggregates(_ context.Context, team model.TeamRef, _ string) (*model.TeamAggregates, error) {
	if a, ok := f.aggregates[team.Canonical]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeStore) MatchesPlayed(_ context.Context, team model.TeamRef, competition string) ([]model.Match, error) {
	if competition != "" {
		f.gotCompetition.Store(competition)
	}
	return f.competition[team.Canonical], nil
}

func (f *fakeStore) Players(context.Context, model.TeamRef, string) ([]model.Player, error) {
	return nil, nil
}

func (f *fakeStore) Goals(context.Context, model.TeamRef, string) ([]model.Goal, error) {
	return nil, nil
}

func (f *fakeStore) Momentum(_ context.Context, team model.TeamRef) (*model.TeamMomentum, error) {
	if m, ok := f.momentum[team.Canonical]; ok {
		return &m, nil
	}
	return nil, nil
}

func (f *fakeStore) MarketTraps(_ context.Context, team model.TeamRef) ([]model.MarketTrap, error) {
	return f.traps[team.Canonical], nil
}

func (f *fakeStore) H2H(context.Context, model.TeamRef, model.TeamRef) (*model.H2HRecord, error) {
	return f.h2h, f.h2hErr
}

func (f *fakeStore) Referee(context.Context, string, string) (*model.RefereeProfile, error) {
	return f.referee, nil
}

func (f *fakeStore) TacticalCell(_ context.Context, a, b model.Style) (*model.TacticalCell, error) {
	f.gotCell.Store([2]model.Style{a, b})
	return f.cell, nil
}

func (f *fakeStore) OddsTimeline(_ context.Context, _ string, m model.Market) ([]model.OddsSnapshot, error) {
	return f.odds[m], nil
}

func fixture() model.MatchInput {
	return model.MatchInput{
		MatchID:      "fx-1",
		HomeTeam:     "Man Utd",
		AwayTeam:     "Spurs",
		League:       "Premier League",
		Competition:  "FA Cup",
		CommenceTime: time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
		RefereeName:  "Michael Oliver",
		Odds:         map[string]float64{"home": 2.1, "draw": 3.4, "over_25": 1.8},
	}
}

func store() *fakeStore {
	return &fakeStore{
		teams: map[string]model.Team{
			"Manchester United": {Name: "Manchester United", Tier: model.TierA, Style: model.StylePossession},
			"Tottenham":         {Name: "Tottenham", Tier: model.TierB, Style: model.StyleHighPress},
		},
		aggregates: map[string]model.TeamAggregates{
			"Manchester United": {Season: "2025", Matches: 25},
		},
		competition: map[string][]model.Match{
			"Tottenham": {{ID: "m-1", Competition: "Premier League", HomeTeam: "Tottenham", AwayTeam: "Everton"}},
		},
		momentum: map[string]model.TeamMomentum{
			"Tottenham": {Team: "Tottenham", Last5Points: 9},
		},
		traps: map[string][]model.MarketTrap{
			"Manchester United": {{Team: "Manchester United", Market: model.MarketHome, Active: true}},
		},
		h2h:     &model.H2HRecord{TeamA: "Manchester United", TeamB: "Tottenham", Matches: 6},
		referee: &model.RefereeProfile{Name: "Michael Oliver", Matches: 20},
		cell:    &model.TacticalCell{StyleA: model.StylePossession, StyleB: model.StyleHighPress, Matches: 30},
		odds: map[model.Market][]model.OddsSnapshot{
			model.MarketHome:    {{MatchID: "fx-1", Home: 2.2}, {MatchID: "fx-1", Home: 2.1}},
			model.MarketBTTSYes: {{MatchID: "fx-1", BTTSYes: 1.7}},
		},
	}
}

type noDNA struct{}

func (noDNA) Get(context.Context, model.TeamRef, string) (*dna.TeamDNA, error) {
	return nil, errors.New("builder offline")
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	resolver, err := names.New()
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given a fetcher over a populated store", t, func() {
		st := store()
		provider := dna.NewProvider(dna.NewBuilder(st))
		f := matchup.NewFetcher(st, resolver, provider)

		Convey("When a fixture is fetched", func() {
			c, err := f.Fetch(ctx, fixture())
			So(err, ShouldBeNil)

			Convey("Then names are canonicalised and the season derived from kick-off", func() {
				So(c.Home.Ref.Canonical, ShouldEqual, "Manchester United")
				So(c.Away.Ref.Canonical, ShouldEqual, "Tottenham")
				So(c.Season, ShouldEqual, "2025")
			})

			Convey("Then the cup is evaluated in its parent league", func() {
				So(c.Competition, ShouldEqual, "Premier League")
				So(st.gotCompetition.Load(), ShouldEqual, "Premier League")
				So(c.Away.Competition, ShouldHaveLength, 1)
			})

			Convey("Then both sides carry their records", func() {
				So(c.Home.Known, ShouldBeTrue)
				So(c.Home.Team.Tier, ShouldEqual, model.TierA)
				So(c.Home.Aggregates.Matches, ShouldEqual, 25)
				So(c.Away.Momentum.Last5Points, ShouldEqual, 9)
				So(c.Home.DNA, ShouldNotBeNil)
				_, ok := c.Home.ActiveTrap(model.MarketHome)
				So(ok, ShouldBeTrue)
				_, ok = c.Away.ActiveTrap(model.MarketHome)
				So(ok, ShouldBeFalse)
			})

			Convey("Then fixture-level lookups are filled", func() {
				So(c.H2H.Matches, ShouldEqual, 6)
				So(c.Referee.Matches, ShouldEqual, 20)
				So(c.Tactical, ShouldNotBeNil)
				So(st.gotCell.Load(), ShouldResemble, [2]model.Style{model.StylePossession, model.StyleHighPress})
			})

			Convey("Then only priced markets with history get a timeline", func() {
				So(c.Odds[model.MarketHome], ShouldHaveLength, 2)
				_, ok := c.Odds[model.MarketOver25]
				So(ok, ShouldBeFalse)
				_, ok = c.Odds[model.MarketBTTSYes]
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a read fails", func() {
			st.h2hErr = errors.New("connection reset")
			c, err := f.Fetch(ctx, fixture())

			Convey("Then it is treated as absent and the rest survives", func() {
				So(err, ShouldBeNil)
				So(c.H2H, ShouldBeNil)
				So(c.Referee, ShouldNotBeNil)
			})
		})

		Convey("When the DNA source fails", func() {
			f := matchup.NewFetcher(st, resolver, noDNA{})
			c, err := f.Fetch(ctx, fixture())

			Convey("Then sides fall back to their store records", func() {
				So(err, ShouldBeNil)
				So(c.Home.DNA, ShouldBeNil)
				So(c.Home.Profile().Tier, ShouldEqual, model.TierA)
			})
		})

		Convey("When a team is unknown to every source", func() {
			in := fixture()
			in.AwayTeam = "Wrexham AFC"
			st.cell = nil
			c, err := f.Fetch(ctx, in)

			Convey("Then it keeps its own name and styles cannot pick a cell", func() {
				So(err, ShouldBeNil)
				So(c.Away.Ref.Canonical, ShouldEqual, "Wrexham AFC")
				So(c.Away.Ref.Aliases, ShouldContain, "Wrexham")
				So(c.Away.Known, ShouldBeFalse)
				So(c.Away.Profile().Name, ShouldEqual, "Wrexham AFC")
				So(c.Tactical, ShouldBeNil)
			})
		})

		Convey("When the season is pinned", func() {
			f := matchup.NewFetcher(st, resolver, provider, matchup.WithSeason("2024"))
			c, _ := f.Fetch(ctx, fixture())
			So(c.Season, ShouldEqual, "2024")
		})

		Convey("When the caller gives up", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := f.Fetch(cctx, fixture())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
