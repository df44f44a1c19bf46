package meta_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/matchquant/internal/domain/layers"
	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/internal/domain/picks"
	. "github.com/smartystreets/goconvey/convey"
)

func pick(matchID string, m model.Market, odds float64, score int, ls model.LayerScores) model.QuantPick {
	return model.QuantPick{
		PredictionID: picks.PredictionID(matchID, m, "v10"),
		MatchID:      matchID,
		Market:       m,
		ModelVersion: "v10",
		Odds:         odds,
		MCProb:       0.6,
		FinalScore:   score,
		Layers:       ls,
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time         { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRecord(t *testing.T) {
	ctx := context.Background()

	Convey("Given a learner over an empty log", t, func() {
		log := meta.NewMemoryLog()
		l := meta.New(log)

		Convey("Then only picks at or above the threshold are logged", func() {
			ok, err := l.Record(ctx, pick("m-1", model.MarketHome, 1.8, 49, nil))
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			ok, err = l.Record(ctx, pick("m-1", model.MarketDraw, 3.4, 50, nil))
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(log.Len(), ShouldEqual, 1)
		})

		Convey("Then trapped picks are never logged", func() {
			p := pick("m-1", model.MarketOver25, 1.8, 80, nil)
			p.IsTrap = true
			ok, _ := l.Record(ctx, p)
			So(ok, ShouldBeFalse)
		})

		Convey("Then recording the same prediction twice keeps one row", func() {
			p := pick("m-2", model.MarketHome, 1.8, 70, nil)
			_, _ = l.Record(ctx, p)
			_, _ = l.Record(ctx, p)
			So(log.Len(), ShouldEqual, 1)
		})

		Convey("Then a record without an id is rejected", func() {
			p := pick("m-3", model.MarketHome, 1.8, 70, nil)
			p.PredictionID = ""
			_, err := l.Record(ctx, p)
			So(errors.Is(err, meta.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	Convey("Given three recorded picks on one match", t, func() {
		c := &clock{t: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
		log := meta.NewMemoryLog()
		l := meta.New(log, meta.WithClock(c.now))
		_, _ = l.Record(ctx, pick("m-1", model.MarketHome, 1.70, 60, model.LayerScores{model.LayerMonteCarlo: 12}))
		_, _ = l.Record(ctx, pick("m-1", model.MarketOver25, 1.90, 55, model.LayerScores{model.LayerMonteCarlo: 8}))
		_, _ = l.Record(ctx, pick("m-1", model.MarketBTTSNo, 2.10, 52, model.LayerScores{model.LayerMonteCarlo: 5}))

		Convey("When the match ends 2-1", func() {
			res, err := l.Settle(ctx, model.Outcome{MatchID: "m-1", HomeScore: 2, AwayScore: 1}, map[model.Market]float64{model.MarketHome: 1.60})
			So(err, ShouldBeNil)

			Convey("Then each pick is graded with its profit or loss", func() {
				So(res.Settled, ShouldEqual, 3)
				So(res.Correct, ShouldEqual, 2)
				So(res.ProfitLoss, ShouldAlmostEqual, 0.6, 1e-9)

				rows, _ := log.SettledSince(ctx, c.t.Add(-time.Hour))
				So(rows, ShouldHaveLength, 3)
				for _, r := range rows {
					So(r.ActualResult, ShouldEqual, "2-1")
					if r.Market == model.MarketHome {
						So(r.CLVCaptured, ShouldAlmostEqual, 1.70/1.60-1, 1e-9)
					}
				}
			})

			Convey("Then settling again finds nothing pending", func() {
				_, err := l.Settle(ctx, model.Outcome{MatchID: "m-1", HomeScore: 2, AwayScore: 1}, nil)
				So(errors.Is(err, meta.ErrNoPredictions), ShouldBeTrue)
			})

			Convey("Then calibration reflects the results", func() {
				cal := l.Calibration()
				So(cal.Markets[model.MarketHome].Rate, ShouldEqual, 1)
				So(cal.Markets[model.MarketBTTSNo].Rate, ShouldEqual, 0)
				So(cal.Buckets[50].Settled, ShouldEqual, 2)
				So(cal.Buckets[60].Correct, ShouldEqual, 1)
			})
		})
	})
}

// staleLog serves a snapshot of pending rows taken before another writer
// settled them.
type staleLog struct {
	*meta.MemoryLog
	snapshot []meta.Record
}

func (s *staleLog) Pending(context.Context, string) ([]meta.Record, error) {
	return append([]meta.Record(nil), s.snapshot...), nil
}

func TestSettleOnce(t *testing.T) {
	ctx := context.Background()
	final := model.Outcome{MatchID: "m-1", HomeScore: 2, AwayScore: 0}

	Convey("Given one recorded pick settled by many callers at once", t, func() {
		log := meta.NewMemoryLog()
		l := meta.New(log)
		_, err := l.Record(ctx, pick("m-1", model.MarketHome, 1.8, 70, model.LayerScores{model.LayerMonteCarlo: 10}))
		So(err, ShouldBeNil)

		const callers = 8
		results := make([]meta.Settlement, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = l.Settle(ctx, final, nil)
			}(i)
		}
		wg.Wait()

		Convey("Then the pick is graded and learned exactly once", func() {
			total := 0
			for _, r := range results {
				total += r.Settled
			}
			So(total, ShouldEqual, 1)
			So(l.SettledInWindow(), ShouldEqual, 1)
			So(l.Calibration().Markets[model.MarketHome].Settled, ShouldEqual, 1)
		})
	})

	Convey("Given a learner reading pending rows another writer already settled", t, func() {
		mem := meta.NewMemoryLog()
		first := meta.New(mem)
		_, _ = first.Record(ctx, pick("m-1", model.MarketHome, 1.8, 70, nil))
		snapshot, err := mem.Pending(ctx, "m-1")
		So(err, ShouldBeNil)
		_, err = first.Settle(ctx, final, nil)
		So(err, ShouldBeNil)

		second := meta.New(&staleLog{MemoryLog: mem, snapshot: snapshot})
		res, err := second.Settle(ctx, final, nil)

		Convey("Then it reports nothing settled and learns nothing", func() {
			So(errors.Is(err, meta.ErrNoPredictions), ShouldBeTrue)
			So(res.Settled, ShouldEqual, 0)
			So(second.SettledInWindow(), ShouldEqual, 0)
			So(second.Calibration().Markets, ShouldBeEmpty)
		})
	})
}

func TestRecordAfterSettle(t *testing.T) {
	ctx := context.Background()

	Convey("Given an outcome that arrives before its picks", t, func() {
		log := meta.NewMemoryLog()
		l := meta.New(log)
		_, err := l.Settle(ctx, model.Outcome{MatchID: "m-7", HomeScore: 3, AwayScore: 1}, map[model.Market]float64{model.MarketOver25: 1.80})
		So(errors.Is(err, meta.ErrNoPredictions), ShouldBeTrue)

		Convey("When a pick of that match is recorded", func() {
			ok, err := l.Record(ctx, pick("m-7", model.MarketOver25, 1.90, 60, nil))
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			Convey("Then it is settled on arrival", func() {
				pending, _ := log.Pending(ctx, "m-7")
				So(pending, ShouldBeEmpty)
				rows, _ := log.SettledSince(ctx, time.Time{})
				So(rows, ShouldHaveLength, 1)
				So(rows[0].ActualResult, ShouldEqual, "3-1")
				So(rows[0].IsCorrect, ShouldBeTrue)
				So(rows[0].CLVCaptured, ShouldAlmostEqual, 1.90/1.80-1, 1e-9)
				So(l.SettledInWindow(), ShouldEqual, 1)
			})
		})

		Convey("When a pick of another match is recorded", func() {
			_, _ = l.Record(ctx, pick("m-8", model.MarketHome, 1.90, 60, nil))

			Convey("Then it stays pending", func() {
				pending, _ := log.Pending(ctx, "m-8")
				So(pending, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a learner that remembers a single outcome", t, func() {
		log := meta.NewMemoryLog()
		l := meta.New(log, meta.WithOutcomeMemory(1))
		_, _ = l.Settle(ctx, model.Outcome{MatchID: "m-1", HomeScore: 1}, nil)
		_, _ = l.Settle(ctx, model.Outcome{MatchID: "m-2", HomeScore: 1}, nil)

		Convey("Then the oldest outcome is forgotten", func() {
			_, _ = l.Record(ctx, pick("m-1", model.MarketHome, 1.90, 60, nil))
			_, _ = l.Record(ctx, pick("m-2", model.MarketHome, 1.90, 60, nil))
			p1, _ := log.Pending(ctx, "m-1")
			p2, _ := log.Pending(ctx, "m-2")
			So(p1, ShouldHaveLength, 1)
			So(p2, ShouldBeEmpty)
		})
	})
}

func TestAdjustedWeights(t *testing.T) {
	ctx := context.Background()

	Convey("Given a learner with a steady clock", t, func() {
		c := &clock{t: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
		log := meta.NewMemoryLog()
		l := meta.New(log, meta.WithClock(c.now))

		settle := func(n int) {
			for i := 0; i < n; i++ {
				id := fmt.Sprintf("m-%d-%d", c.t.Unix(), i)
				ls := model.LayerScores{model.LayerMonteCarlo: 10, model.LayerClass: -4}
				_, _ = l.Record(ctx, pick(id, model.MarketHome, 2.0, 60, ls))
				_, err := l.Settle(ctx, model.Outcome{MatchID: id, HomeScore: 1}, nil)
				So(err, ShouldBeNil)
			}
		}

		Convey("When fewer than 30 picks are settled", func() {
			settle(29)

			Convey("Then the defaults come back exactly", func() {
				So(l.AdjustedWeights(), ShouldResemble, layers.DefaultWeights())
				So(l.SettledInWindow(), ShouldEqual, 29)
			})
		})

		Convey("When 30 picks are settled", func() {
			settle(30)
			w := l.AdjustedWeights()

			Convey("Then accurate layers gain and inaccurate ones lose ten percent", func() {
				So(w[model.LayerMonteCarlo], ShouldEqual, 28)
				So(w[model.LayerClass], ShouldEqual, 7)
				So(w[model.LayerLineup], ShouldEqual, 15)
				So(l.LayerAccuracy()[model.LayerMonteCarlo], ShouldEqual, 1)
			})

			Convey("Then the state can be restored from the log", func() {
				r := meta.New(log, meta.WithClock(c.now))
				So(r.Restore(ctx), ShouldBeNil)
				So(r.AdjustedWeights(), ShouldResemble, w)
			})

			Convey("Then the weights fall back once the settlements age out", func() {
				c.advance(31 * 24 * time.Hour)
				So(l.AdjustedWeights(), ShouldResemble, layers.DefaultWeights())
				So(l.SettledInWindow(), ShouldEqual, 0)
			})

			Convey("Then picks older than the window stop counting", func() {
				c.advance(31 * 24 * time.Hour)
				r := meta.New(log, meta.WithClock(c.now))
				So(r.Restore(ctx), ShouldBeNil)
				So(r.SettledInWindow(), ShouldEqual, 0)
				So(r.AdjustedWeights(), ShouldResemble, layers.DefaultWeights())
			})
		})
	})

	Convey("Given observations of different ages", t, func() {
		c := &clock{t: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
		l := meta.New(meta.NewMemoryLog(), meta.WithClock(c.now))
		_, _ = l.Record(ctx, pick("old", model.MarketHome, 2.0, 60, model.LayerScores{model.LayerH2H: 5}))
		_, _ = l.Settle(ctx, model.Outcome{MatchID: "old", AwayScore: 1}, nil)
		c.advance(4 * 7 * 24 * time.Hour)
		_, _ = l.Record(ctx, pick("new", model.MarketHome, 2.0, 60, model.LayerScores{model.LayerH2H: 5}))
		_, _ = l.Settle(ctx, model.Outcome{MatchID: "new", HomeScore: 1}, nil)

		Convey("Then older observations weigh less", func() {
			So(l.LayerAccuracy()[model.LayerH2H], ShouldAlmostEqual, 1/(1+0.8145062), 1e-6)
		})
	})
}
