package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/matchquant/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a fixture id is recorded", func() {
			So(d.SeenAndRecord(ctx, "fx-1"), ShouldBeFalse)

			Convey("Then a second submission is reported as seen", func() {
				So(d.SeenAndRecord(ctx, "fx-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then unrecording lets it through again", func() {
				d.Unrecord(ctx, "fx-1")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "fx-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			d.Unrecord(ctx, "nonexistent")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"fx-1", "fx-2", "fx-3"} {
			d.SeenAndRecord(ctx, id)
		}

		Convey("When a fourth id arrives", func() {
			So(d.SeenAndRecord(ctx, "fx-4"), ShouldBeFalse)

			Convey("Then the oldest id is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "fx-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "fx-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "fx-1"), ShouldBeFalse)
			})
		})

		Convey("When a middle id is unrecorded", func() {
			d.Unrecord(ctx, "fx-2")
			d.SeenAndRecord(ctx, "fx-4")

			Convey("Then nothing needs evicting", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "fx-1"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))
		for i := 0; i < 1000; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("fx-%d", i)), ShouldBeFalse)
		}
		So(d.Size(), ShouldEqual, 1000)
		So(d.SeenAndRecord(ctx, "fx-0"), ShouldBeTrue)
	})
}

func TestDedupeConcurrency(t *testing.T) {
	ctx := context.Background()

	Convey("Given many goroutines submitting the same fixtures", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("fx-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is admitted exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
