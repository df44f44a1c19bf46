package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/matchquant/internal/adapters/mq/queue"
	"github.com/okian/matchquant/internal/adapters/mq/worker"
	"github.com/okian/matchquant/internal/domain/model"
	logging "github.com/okian/matchquant/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	fixtures chan queue.Fixture
	once     sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{fixtures: make(chan queue.Fixture, 128)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Fixture {
	return mq.fixtures
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.fixtures) })
	return nil
}

func (mq *mockQueue) add(id string) {
	mq.fixtures <- model.MatchInput{MatchID: id, HomeTeam: "Arsenal", AwayTeam: "Chelsea"}
}

type mockAnalyser struct {
	mu     sync.Mutex
	errors map[string]error
	calls  int
}

func (ma *mockAnalyser) AnalyseMatch(_ context.Context, in model.MatchInput) ([]model.QuantPick, error) {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	ma.calls++
	if err, ok := ma.errors[in.MatchID]; ok {
		return nil, err
	}
	return []model.QuantPick{{MatchID: in.MatchID, Market: model.MarketHome, FinalScore: 55}}, nil
}

func (ma *mockAnalyser) fail(id string, err error) {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	if ma.errors == nil {
		ma.errors = make(map[string]error)
	}
	ma.errors[id] = err
}

type mockSink struct {
	mu      sync.Mutex
	results map[string]worker.Result
}

func newMockSink() *mockSink {
	return &mockSink{results: make(map[string]worker.Result)}
}

func (ms *mockSink) Deliver(_ context.Context, r worker.Result) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.results[r.MatchID] = r
}

func (ms *mockSink) get(id string) (worker.Result, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	r, ok := ms.results[id]
	return r, ok
}

func (ms *mockSink) len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.results)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		analyser := &mockAnalyser{}
		sink := newMockSink()
		w := worker.NewInMemoryWorker(q, analyser, sink, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a fixture is queued", func() {
			q.add("fx-1")

			convey.Convey("Then its picks reach the sink", func() {
				convey.So(waitFor(func() bool { _, ok := sink.get("fx-1"); return ok }), convey.ShouldBeTrue)
				r, _ := sink.get("fx-1")
				convey.So(r.Err, convey.ShouldBeNil)
				convey.So(r.Picks, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When the analysis fails", func() {
			boom := errors.New("boom")
			analyser.fail("fx-2", boom)
			q.add("fx-2")

			convey.Convey("Then the failure is delivered too", func() {
				convey.So(waitFor(func() bool { _, ok := sink.get("fx-2"); return ok }), convey.ShouldBeTrue)
				r, _ := sink.get("fx-2")
				convey.So(errors.Is(r.Err, boom), convey.ShouldBeTrue)
				convey.So(r.Picks, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a worker whose queue closes", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, &mockAnalyser{}, nil)
		stopped := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(stopped)
		}()
		_ = q.Close()

		convey.Convey("Then it stops on its own", func() {
			select {
			case <-stopped:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("worker still running", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		analyser := &mockAnalyser{}
		sink := newMockSink()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, analyser, sink)

			convey.Convey("Then it sizes itself to the machine", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When many fixtures are queued concurrently", func() {
			pool := worker.NewPool(4, q, analyser, sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			var wg sync.WaitGroup
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for j := 0; j < 20; j++ {
						q.add(fmt.Sprintf("fx-%d-%d", p, j))
					}
				}(i)
			}
			wg.Wait()

			convey.Convey("Then every fixture is delivered once", func() {
				convey.So(waitFor(func() bool { return sink.len() == 100 }), convey.ShouldBeTrue)
			})

			convey.Convey("Then shutdown drains and returns", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(sink.len(), convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When stopped twice", func() {
			pool := worker.NewPool(2, q, analyser, sink)
			pool.Start(context.Background())
			pool.Stop()

			convey.Convey("Then the second stop is harmless", func() {
				convey.So(pool.Stop, convey.ShouldNotPanic)
			})
		})
	})
}

func TestSinkFunc(t *testing.T) {
	convey.Convey("A function can act as a sink", t, func() {
		var got string
		s := worker.SinkFunc(func(_ context.Context, r worker.Result) { got = r.MatchID })
		s.Deliver(context.Background(), worker.Result{MatchID: "fx-9"})
		convey.So(got, convey.ShouldEqual, "fx-9")
	})
}
