package repository_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/matchquant/internal/adapters/repository"
	"github.com/okian/matchquant/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// flaky fails its first fails calls to Team, or blocks until the call's
// deadline when block is set.
type flaky struct {
	*repository.MemoryStore
	fails int32
	block bool
	calls atomic.Int32
}

func (f *flaky) Team(ctx context.Context, team model.TeamRef) (*model.Team, error) {
	n := f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n <= f.fails {
		return nil, errors.New("connection reset by peer")
	}
	return f.MemoryStore.Team(ctx, team)
}

func TestResilient(t *testing.T) {
	ctx := context.Background()
	arsenal := model.Ref("Arsenal")

	Convey("Given a store behind the resilient wrapper", t, func() {
		inner := &flaky{MemoryStore: seeded()}
		r, err := repository.NewResilient(inner,
			repository.WithTimeout(20*time.Millisecond),
			repository.WithRetryJitter(time.Millisecond),
			repository.WithRateLimit(1000, 10),
		)
		So(err, ShouldBeNil)

		Convey("When the first call fails", func() {
			inner.fails = 1
			team, err := r.Team(ctx, arsenal)

			Convey("Then the retry serves the record", func() {
				So(err, ShouldBeNil)
				So(team, ShouldNotBeNil)
				So(team.Name, ShouldEqual, "Arsenal")
				So(inner.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When both attempts fail", func() {
			inner.fails = 5
			team, err := r.Team(ctx, arsenal)

			Convey("Then the read is downgraded to absence", func() {
				So(err, ShouldBeNil)
				So(team, ShouldBeNil)
				So(inner.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the store hangs", func() {
			inner.block = true
			start := time.Now()
			team, err := r.Team(ctx, arsenal)

			Convey("Then each attempt is cut at the timeout", func() {
				So(err, ShouldBeNil)
				So(team, ShouldBeNil)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})

		Convey("When the caller's context is already done", func() {
			inner.block = true
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := r.Team(cctx, arsenal)

			Convey("Then the caller's error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("Then other reads pass through", func() {
			traps, err := r.MarketTraps(ctx, arsenal)
			So(err, ShouldBeNil)
			So(traps, ShouldHaveLength, 1)
			h, _ := r.H2H(ctx, arsenal, model.Ref("Chelsea"))
			So(h.TeamAWins, ShouldEqual, 3)
		})
	})

	Convey("Wrapping nothing is rejected", t, func() {
		_, err := repository.NewResilient(nil)
		So(errors.Is(err, repository.ErrNilStore), ShouldBeTrue)
	})
}
