package layers_test

import (
	"testing"

	"github.com/okian/matchquant/internal/domain/dna"
	"github.com/okian/matchquant/internal/domain/dynamics"
	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/internal/domain/lineup"
	"github.com/okian/matchquant/internal/domain/matchup"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/montecarlo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeights(t *testing.T) {
	Convey("Given the default weights", t, func() {
		w := layers.DefaultWeights()

		Convey("Then the table matches the documented bounds", func() {
			So(w.Of(model.LayerMonteCarlo), ShouldEqual, 25)
			So(w.Of(model.LayerLineup), ShouldEqual, 15)
			So(w.Of(model.LayerProfile), ShouldEqual, 5)
			So(w.Bound(), ShouldEqual, 125)
		})

		Convey("Then merging ignores unknown layers and negative weights", func() {
			m := w.Merge(map[string]float64{"mc": 30, "lineup": -1, "nope": 4})
			So(m.Of(model.LayerMonteCarlo), ShouldEqual, 30)
			So(m.Of(model.LayerLineup), ShouldEqual, 15)
			So(w.Of(model.LayerMonteCarlo), ShouldEqual, 25)
			_, ok := m["nope"]
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSweetSpot(t *testing.T) {
	Convey("Sweet-spot bands are inclusive", t, func() {
		So(layers.SweetSpotBonus(model.MarketBTTSYes, 1.65), ShouldEqual, 8)
		So(layers.SweetSpotBonus(model.MarketBTTSYes, 1.85), ShouldEqual, 8)
		So(layers.SweetSpotBonus(model.MarketBTTSYes, 1.86), ShouldEqual, 0)
		So(layers.SweetSpotBonus(model.MarketOver25, 1.95), ShouldEqual, 6)
		So(layers.SweetSpotBonus(model.MarketHome, 2.60), ShouldEqual, 0)
	})
}

func TestFinalScore(t *testing.T) {
	Convey("Final scores never round to zero", t, func() {
		So(layers.FinalScore(12.6), ShouldEqual, 13)
		So(layers.FinalScore(0.2), ShouldEqual, 1)
		So(layers.FinalScore(-0.3), ShouldEqual, -1)
		So(layers.FinalScore(0), ShouldEqual, 1)
	})
}

func TestScore(t *testing.T) {
	s := layers.New()

	Convey("Given only a simulation result", t, func() {
		mc := &montecarlo.Result{BTTS: 0.6, Confidence: 1}

		Convey("When the edge is plain", func() {
			sc := s.Score(layers.Input{MC: mc, Market: model.MarketBTTSYes, Odds: 2.0}, nil)
			So(sc.Edge, ShouldAlmostEqual, 0.1, 1e-9)
			So(sc.ImpliedProb, ShouldAlmostEqual, 0.5, 1e-9)
			So(sc.Layers[model.LayerMonteCarlo], ShouldAlmostEqual, 20, 1e-9)
			So(sc.LayerScore, ShouldAlmostEqual, 20, 1e-9)
			So(sc.FinalScore, ShouldEqual, 20)
			So(sc.Coverage(), ShouldEqual, 0)
		})

		Convey("When the edge sits in the sweet band", func() {
			sc := s.Score(layers.Input{MC: &montecarlo.Result{BTTS: 0.55, Confidence: 1}, Market: model.MarketBTTSYes, Odds: 2.0}, nil)
			So(sc.Layers[model.LayerMonteCarlo], ShouldAlmostEqual, 12.5, 1e-9)
		})

		Convey("When the edge is suspiciously large", func() {
			sc := s.Score(layers.Input{MC: &montecarlo.Result{BTTS: 0.7, Confidence: 1}, Market: model.MarketBTTSYes, Odds: 2.0}, nil)
			So(sc.Layers[model.LayerMonteCarlo], ShouldEqual, 25)
			So(sc.Layers[model.LayerReality], ShouldEqual, -5)
			So(sc.Warnings, ShouldNotBeEmpty)
		})

		Convey("When confidence is low the quant score shrinks", func() {
			sc := s.Score(layers.Input{MC: &montecarlo.Result{BTTS: 0.6, Confidence: 0}, Market: model.MarketBTTSYes, Odds: 2.0}, nil)
			So(sc.LayerScore, ShouldAlmostEqual, 0, 1e-9)
			So(sc.FinalScore, ShouldEqual, 1)
		})

		Convey("When learned weights are supplied", func() {
			w := layers.DefaultWeights()
			w[model.LayerMonteCarlo] = 10
			sc := s.Score(layers.Input{MC: mc, Market: model.MarketBTTSYes, Odds: 2.0}, w)
			So(sc.Layers[model.LayerMonteCarlo], ShouldEqual, 10)
		})
	})

	Convey("Given a derby", t, func() {
		lu := &lineup.Result{XGHome: 1.6, XGAway: 1.4, Impact: lineup.Impact{
			HomeDelta:   0.1,
			AwayDelta:   0.1,
			Derby:       true,
			Adjustments: []lineup.Adjustment{{Step: "derby", Kind: lineup.KindDelta, Value: 0.1}},
			Reasons:     []string{"derby: both sides +0.10 xG"},
		}}

		Convey("Then goals markets tilt by the lineup layer", func() {
			yes := s.Score(layers.Input{Lineup: lu, Market: model.MarketBTTSYes, Odds: 1.70}, nil)
			no := s.Score(layers.Input{Lineup: lu, Market: model.MarketBTTSNo, Odds: 2.20}, nil)
			draw := s.Score(layers.Input{Lineup: lu, Market: model.MarketDraw, Odds: 3.40}, nil)
			So(yes.Layers[model.LayerLineup], ShouldEqual, 15)
			So(yes.Layers[model.LayerSweetSpot], ShouldEqual, 8)
			So(yes.Reasons, ShouldContain, "derby: both sides +0.10 xG")
			So(no.Layers[model.LayerLineup], ShouldEqual, -15)
			So(draw.Layers[model.LayerLineup], ShouldEqual, 2)
			So(yes.Active[model.LayerLineup], ShouldBeTrue)
		})
	})

	Convey("Given shortening steam with closing-line value", t, func() {
		d := dynamics.Dynamics{
			Market:       model.MarketBTTSYes,
			HasData:      true,
			Opening:      1.95,
			Latest:       1.80,
			MovementPct:  -7.69,
			Steam:        true,
			Movement:     dynamics.MovementSteam,
			Direction:    dynamics.DirectionShortening,
			CLVPotential: 0.08,
		}
		sc := s.Score(layers.Input{Dynamics: d, Market: model.MarketBTTSYes, Odds: 1.80}, nil)

		Convey("Then the market layer reaches its bound and the steam is explained", func() {
			So(sc.Layers[model.LayerMarket], ShouldEqual, 15)
			So(sc.Reasons[0], ShouldStartWith, "steam:")
		})
	})

	Convey("Given drifting steam", t, func() {
		d := dynamics.Dynamics{HasData: true, Steam: true, Movement: dynamics.MovementSteam, Direction: dynamics.DirectionDrifting}
		sc := s.Score(layers.Input{Dynamics: d, Market: model.MarketHome, Odds: 2.4}, nil)
		So(sc.Layers[model.LayerMarket], ShouldEqual, -8)
	})

	Convey("Given a well-documented fixture", t, func() {
		c := &matchup.Context{
			Home:     matchup.Side{Ref: model.Ref("Arsenal"), Known: true, Team: model.Team{Name: "Arsenal", Tier: model.TierA}},
			Away:     matchup.Side{Ref: model.Ref("Luton"), Known: true, Team: model.Team{Name: "Luton", Tier: model.TierC}},
			Tactical: &model.TacticalCell{Matches: 20, BTTSPct: 62, Over25Pct: 58, AvgGoals: 2.9},
			Referee:  &model.RefereeProfile{Name: "Oliver", Matches: 12, GoalsPerMatch: 3.1, BTTSPct: 55, HomeWinPct: 52},
			H2H:      &model.H2HRecord{Matches: 5, TeamAWins: 4, Draws: 1, AvgGoals: 3.2, BTTSPct: 40, Over25Pct: 80},
		}
		c.Home.Momentum = &model.TeamMomentum{Last5Points: 13}
		c.Away.Momentum = &model.TeamMomentum{Last5Points: 4}
		c.Home.DNA = &dna.TeamDNA{
			Volume:  dna.VolumeSlot{Matches: 20, GoalsPerMatch: 2.2, ConcededPerMatch: 0.8},
			Profile: dna.MarketProfile{HasData: true, Matches: 20, WinPct: 75, BTTSPct: 45, Over25Pct: 65},
		}
		c.Away.DNA = &dna.TeamDNA{
			Volume:  dna.VolumeSlot{Matches: 20, GoalsPerMatch: 0.9, ConcededPerMatch: 1.9},
			Profile: dna.MarketProfile{HasData: true, Matches: 20, LossPct: 65, BTTSPct: 50, Over25Pct: 60},
		}
		mc := &montecarlo.Result{HomeWin: 0.66, Draw: 0.2, AwayWin: 0.14, Over25: 0.6, BTTS: 0.45, MeanHome: 2.1, MeanAway: 0.8, Confidence: 0.9}

		Convey("When the home market is scored", func() {
			sc := s.Score(layers.Input{Context: c, MC: mc, Market: model.MarketHome, Odds: 1.70}, nil)

			Convey("Then every observable layer with data is active", func() {
				So(sc.Active[model.LayerMomentum], ShouldBeTrue)
				So(sc.Active[model.LayerTactical], ShouldBeTrue)
				So(sc.Active[model.LayerIntelligence], ShouldBeTrue)
				So(sc.Active[model.LayerClass], ShouldBeTrue)
				So(sc.Active[model.LayerReferee], ShouldBeTrue)
				So(sc.Active[model.LayerH2H], ShouldBeTrue)
				So(sc.Active[model.LayerReality], ShouldBeTrue)
				So(sc.Active[model.LayerProfile], ShouldBeTrue)
				So(sc.ActiveCount(), ShouldEqual, 8)
				So(sc.Coverage(), ShouldAlmostEqual, 0.8, 1e-9)
			})

			Convey("Then the favourite's layers all point the same way", func() {
				So(sc.Layers[model.LayerMomentum], ShouldEqual, 6)
				So(sc.Layers[model.LayerClass], ShouldEqual, 8)
				So(sc.Layers[model.LayerReferee], ShouldEqual, 4)
				So(sc.Layers[model.LayerH2H], ShouldEqual, 6)
				So(sc.Layers[model.LayerProfile], ShouldEqual, 5)
				So(sc.Layers[model.LayerIntelligence], ShouldEqual, 8)
				So(sc.Layers[model.LayerSweetSpot], ShouldEqual, 5)
				So(sc.FinalScore, ShouldBeGreaterThanOrEqualTo, 45)
			})

			Convey("Then the layer score stays within the weight bound", func() {
				So(sc.LayerScore, ShouldBeBetweenOrEqual, -layers.DefaultWeights().Bound(), layers.DefaultWeights().Bound())
			})
		})

		Convey("When over 2.5 is scored", func() {
			sc := s.Score(layers.Input{Context: c, MC: mc, Market: model.MarketOver25, Odds: 1.90}, nil)
			So(sc.Layers[model.LayerTactical], ShouldEqual, 4)
			So(sc.Layers[model.LayerReferee], ShouldEqual, 6)
			So(sc.Layers[model.LayerH2H], ShouldEqual, 6)
			So(sc.Layers[model.LayerClass], ShouldEqual, 0)
			So(sc.Layers[model.LayerIntelligence], ShouldAlmostEqual, 3.2, 1e-9)
		})

		Convey("When under 2.5 is scored the goals layers flip", func() {
			sc := s.Score(layers.Input{Context: c, MC: mc, Market: model.MarketUnder25, Odds: 2.00}, nil)
			So(sc.Layers[model.LayerTactical], ShouldEqual, -4)
			So(sc.Layers[model.LayerReferee], ShouldEqual, -6)
		})
	})
}
