package dynamics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/matchquant/internal/domain/dynamics"
	"github.com/okian/matchquant/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // test clock

// snap builds a snapshot with a fixed 1X2 tuple so the over-round is known.
func snap(book string, h float64, home, draw, away, btts float64) model.OddsSnapshot {
	return model.OddsSnapshot{
		MatchID:    "m-1",
		Bookmaker:  book,
		CapturedAt: t0.Add(time.Duration(h * float64(time.Hour))),
		Home:       home,
		Draw:       draw,
		Away:       away,
		BTTSYes:    btts,
	}
}

type fakeStore struct {
	timeline []model.OddsSnapshot
	err      error
}

func (f *fakeStore) OddsTimeline(_ context.Context, _ string, _ model.Market) ([]model.OddsSnapshot, error) {
	return f.timeline, f.err
}

func TestLiquidityFactor(t *testing.T) {
	Convey("Liquidity factor follows the over-round bands", t, func() {
		So(dynamics.LiquidityFactor(0.02), ShouldEqual, 1.5)
		So(dynamics.LiquidityFactor(0.04), ShouldEqual, 1.0)
		So(dynamics.LiquidityFactor(0.06), ShouldEqual, 0.7)
		So(dynamics.LiquidityFactor(0.08), ShouldEqual, 0.3)
	})
}

func TestCompute(t *testing.T) {
	a := dynamics.New(nil, dynamics.WithColumns(dynamics.AllColumns()))

	Convey("Given a shortening btts_yes line in a 4% book", t, func() {
		tl := []model.OddsSnapshot{
			snap("pinnacle", 0, 2.5, 3.125, 3.125, 1.95),
			snap("pinnacle", 1.5, 2.5, 3.125, 3.125, 1.90),
			snap("pinnacle", 3, 2.5, 3.125, 3.125, 1.80),
		}
		d := a.Compute(model.MarketBTTSYes, tl, 1.80)

		Convey("Then it is classified as shortening steam", func() {
			So(d.HasData, ShouldBeTrue)
			So(d.Samples, ShouldEqual, 3)
			So(d.Steam, ShouldBeTrue)
			So(d.Movement, ShouldEqual, dynamics.MovementSteam)
			So(d.Direction, ShouldEqual, dynamics.DirectionShortening)
			So(d.Magnitude(), ShouldAlmostEqual, 7.69, 0.01)
			So(d.SharpSignal, ShouldEqual, 1)
			So(d.Liquidity, ShouldEqual, 1.0)
			So(d.CLVPotential, ShouldBeGreaterThan, 0.05)
			So(d.Reason(), ShouldStartWith, "steam:")
		})
	})

	Convey("Given the steam threshold boundaries", t, func() {
		Convey("When a 4% book moves 3.1%", func() {
			tl := []model.OddsSnapshot{
				snap("b", 0, 2.5, 3.125, 3.125, 2.00),
				snap("b", 1, 2.5, 3.125, 3.125, 2.062),
			}
			d := a.Compute(model.MarketBTTSYes, tl, 2.062)
			So(d.Steam, ShouldBeTrue)
			So(d.Direction, ShouldEqual, dynamics.DirectionDrifting)
			So(d.SharpSignal, ShouldEqual, -1)
		})

		Convey("When an 8% book moves 4%", func() {
			tl := []model.OddsSnapshot{
				snap("b", 0, 2.5, 2.94, 2.94, 2.00),
				snap("b", 1, 2.5, 2.94, 2.94, 2.08),
			}
			d := a.Compute(model.MarketBTTSYes, tl, 2.08)
			So(d.Liquidity, ShouldEqual, 0.3)
			So(d.Steam, ShouldBeFalse)
			So(d.Movement, ShouldEqual, dynamics.MovementStable)
			So(d.SharpSignal, ShouldEqual, 0)
		})
	})

	Convey("Given a slow move mostly outside the window", t, func() {
		tl := []model.OddsSnapshot{
			snap("b", 0, 0, 0, 0, 2.00),
			snap("b", 1, 0, 0, 0, 1.90),
			snap("b", 6, 0, 0, 0, 1.88),
		}
		d := a.Compute(model.MarketBTTSYes, tl, 1.88)

		Convey("Then only the in-window move counts for steam", func() {
			So(d.WindowMovePct, ShouldAlmostEqual, -1.05, 0.01)
			So(d.Steam, ShouldBeFalse)
			So(d.Movement, ShouldEqual, dynamics.MovementDrift)
			So(d.Direction, ShouldEqual, dynamics.DirectionShortening)
		})
	})

	Convey("Given a price that moved out and came back", t, func() {
		tl := []model.OddsSnapshot{
			snap("b", 0, 0, 0, 0, 2.00),
			snap("b", 1, 0, 0, 0, 2.08),
			snap("b", 2, 0, 0, 0, 2.02),
		}
		d := a.Compute(model.MarketBTTSYes, tl, 2.02)
		So(d.Movement, ShouldEqual, dynamics.MovementReverse)
		So(d.Reason(), ShouldNotBeEmpty)
	})

	Convey("Given quotes from two bookmakers", t, func() {
		tl := []model.OddsSnapshot{
			snap("a", 0, 0, 0, 0, 1.85),
			snap("b", 0.5, 0, 0, 0, 1.90),
			snap("a", 1, 0, 0, 0, 1.80),
		}
		d := a.Compute(model.MarketBTTSYes, tl, 1.85)
		So(d.Books, ShouldEqual, 2)
		So(d.Consensus, ShouldAlmostEqual, 0.99, 1e-9)
	})

	Convey("Given a market without a column", t, func() {
		d := dynamics.New(nil).Compute(model.MarketBTTSYes, []model.OddsSnapshot{snap("b", 0, 0, 0, 0, 1.9)}, 1.9)
		So(d.HasData, ShouldBeFalse)
		So(d.Movement, ShouldEqual, dynamics.MovementNone)
	})

	Convey("Given an empty timeline", t, func() {
		d := a.Compute(model.MarketHome, nil, 2.1)
		So(d.HasData, ShouldBeFalse)
		So(d.Consensus, ShouldEqual, 0)
		So(d.CLVPotential, ShouldEqual, 0)
	})
}

func TestAnalyse(t *testing.T) {
	ctx := context.Background()

	Convey("Given an analyser over a store", t, func() {
		store := &fakeStore{timeline: []model.OddsSnapshot{
			snap("b", 0, 2.10, 3.4, 3.6, 0),
			snap("b", 2, 1.95, 3.5, 3.9, 0),
		}}
		a := dynamics.New(store, dynamics.WithWindow(time.Hour))

		Convey("When a 1X2 market is analysed", func() {
			d, err := a.Analyse(ctx, "m-1", model.MarketHome, 1.95)
			So(err, ShouldBeNil)
			So(d.Opening, ShouldEqual, 2.10)
			So(d.Latest, ShouldEqual, 1.95)
			So(d.WindowMovePct, ShouldAlmostEqual, -7.14, 0.01)
		})

		Convey("When the market has no column", func() {
			_, err := a.Analyse(ctx, "m-1", model.MarketOver25, 1.9)
			So(errors.Is(err, dynamics.ErrUnsupportedMarket), ShouldBeTrue)
		})

		Convey("When the store fails", func() {
			store.err = errors.New("connection reset")
			d, err := a.Analyse(ctx, "m-1", model.MarketHome, 1.95)
			So(err, ShouldBeNil)
			So(d.HasData, ShouldBeFalse)
		})
	})
}
