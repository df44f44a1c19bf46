// Package worker drains the fixture queue and hands every fixture to the
// analyser.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/matchquant/internal/adapters/mq/queue"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
	"github.com/okian/matchquant/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Result is the outcome of one queued fixture.
type Result struct {
	MatchID string
	Picks   []model.QuantPick
	Err     error
}

// Analyser produces the picks of one fixture.
type Analyser interface {
	AnalyseMatch(ctx context.Context, in model.MatchInput) ([]model.QuantPick, error)
}

// Sink receives results as workers finish them.
type Sink interface {
	Deliver(ctx context.Context, r Result)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Result)

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, r Result) { f(ctx, r) }

// Queue defines how workers receive fixtures.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Fixture
}

// Worker processes fixtures until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing fixtures.
type InMemoryWorker struct {
	queue    Queue
	analyser Analyser
	sink     Sink
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, analyser Analyser, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		analyser: analyser,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	fixtures := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case f, ok := <-fixtures:
			if !ok {
				return
			}
			w.process(ctx, f)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process analyses one fixture and delivers the result, failed or not.
func (w *InMemoryWorker) process(ctx context.Context, f queue.Fixture) { //nolint:gocritic // hugeParam: fixture passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	picks, err := w.analyser.AnalyseMatch(ctx, f)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "fixture analysis failed",
			logger.String("match_id", f.MatchID),
			logger.Error(err),
		)
		err = fmt.Errorf("analyse fixture %s: %w", f.MatchID, err)
	}
	if w.sink != nil {
		w.sink.Deliver(ctx, Result{MatchID: f.MatchID, Picks: picks, Err: err})
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	once sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses one worker
// per CPU.
func NewPool(workerCount int, q Queue, analyser Analyser, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, analyser, sink, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals every worker and waits briefly for each to return.
func (p *Pool) Stop() {
	p.signal()
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

func (p *Pool) signal() {
	p.once.Do(func() {
		for _, w := range p.workers {
			close(w.shutdown)
		}
	})
}

// Shutdown closes the queue, lets the workers drain it and waits for them
// until ctx or the pool timeout expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			p.signal()
			return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
