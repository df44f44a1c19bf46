package montecarlo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/montecarlo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWilson(t *testing.T) {
	Convey("Given an interior proportion", t, func() {
		ci := montecarlo.Wilson(4800, 10000, 1.96)

		Convey("Then the interval strictly contains the point estimate", func() {
			So(ci.Lower, ShouldBeLessThan, 0.48)
			So(ci.Upper, ShouldBeGreaterThan, 0.48)
			So(ci.Width(), ShouldAlmostEqual, 0.0196, 0.001)
		})
	})

	Convey("Given no trials", t, func() {
		ci := montecarlo.Wilson(0, 0, 1.96)
		So(ci, ShouldResemble, montecarlo.Interval{Lower: 0, Upper: 1})
	})
}

func TestSimulate(t *testing.T) {
	ctx := context.Background()
	even := montecarlo.Params{XGHome: 1.4, XGAway: 1.2, StyleHome: model.StyleBalanced, StyleAway: model.StyleBalanced}

	Convey("Given a seeded engine", t, func() {
		e := montecarlo.New(montecarlo.WithSimulations(10000), montecarlo.WithSeed(42))

		Convey("When a mid-tier even fixture is simulated", func() {
			r, err := e.Simulate(ctx, even)
			So(err, ShouldBeNil)

			Convey("Then the probabilities are consistent", func() {
				So(r.Simulations, ShouldEqual, 10000)
				So(r.HomeWin+r.Draw+r.AwayWin, ShouldBeBetweenOrEqual, 0.99, 1.01)
				So(r.HomeWin, ShouldBeBetweenOrEqual, 0.33, 0.50)
				So(r.Over25, ShouldBeLessThanOrEqualTo, r.Over15)
				So(r.Over35, ShouldBeLessThanOrEqualTo, r.Over25)
				So(r.BTTSInterval.Contains(r.BTTS), ShouldBeTrue)
				So(r.Over25Interval.Contains(r.Over25), ShouldBeTrue)
				So(r.Confidence, ShouldBeBetween, 0.5, 1)
				So(r.ScoreProb(r.MostLikely), ShouldBeGreaterThan, 0)
			})

			Convey("Then market probabilities map onto the aggregates", func() {
				p, ok := r.Prob(model.MarketUnder25)
				So(ok, ShouldBeTrue)
				So(p, ShouldAlmostEqual, 1-r.Over25, 1e-12)
				_, ok = r.Prob(model.Market("corners"))
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the same inputs are simulated twice", func() {
			a, err := e.Simulate(ctx, even)
			So(err, ShouldBeNil)
			b, err := montecarlo.New(montecarlo.WithSimulations(10000), montecarlo.WithSeed(42), montecarlo.WithWorkers(1)).Simulate(ctx, even)
			So(err, ShouldBeNil)

			Convey("Then the results are identical regardless of worker count", func() {
				So(b, ShouldResemble, a)
			})
		})

		Convey("When the seed changes", func() {
			a, _ := e.Simulate(ctx, even)
			b, _ := montecarlo.New(montecarlo.WithSimulations(10000), montecarlo.WithSeed(7)).Simulate(ctx, even)
			So(a.HomeWin, ShouldNotEqual, b.HomeWin)
		})

		Convey("When a strong favourite hosts a weak side", func() {
			r, err := e.Simulate(ctx, montecarlo.Params{XGHome: 2.3, XGAway: 0.8})
			So(err, ShouldBeNil)
			So(r.HomeWin, ShouldBeGreaterThanOrEqualTo, 0.55)
			So(r.MeanHome, ShouldBeGreaterThan, r.MeanAway)
		})

		Convey("When expected goals are not positive", func() {
			_, err := e.Simulate(ctx, montecarlo.Params{XGHome: 0, XGAway: 1.1})
			So(errors.Is(err, montecarlo.ErrInvalidXG), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.Simulate(cctx, even)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
