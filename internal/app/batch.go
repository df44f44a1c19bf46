package service

import (
	"context"

	"github.com/okian/matchquant/internal/adapters/mq/queue"
	"github.com/okian/matchquant/internal/adapters/mq/worker"
	"github.com/okian/matchquant/internal/domain/dedupe"
	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/logger"
)

// Start builds the batch queue and worker pool and starts the workers.
// Results are delivered to the configured sink. Calling Start twice is a
// no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting batch processing...")

	s.provider.Reset()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, s, worker.SinkFunc(s.deliver))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "batch processing started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// deliver forwards the result, then releases the fixture id. A fixture is
// pending until its result has been handed over.
func (s *Service) deliver(ctx context.Context, r worker.Result) {
	if s.sink != nil {
		s.sink.Deliver(ctx, r)
	}
	s.deduper.Unrecord(ctx, r.MatchID)
}

// Submit queues a fixture for batch analysis. A fixture id that is still
// pending is rejected with ErrDuplicateFixture. The input is validated
// up front so that malformed fixtures never occupy the queue.
func (s *Service) Submit(ctx context.Context, in model.MatchInput) error { //nolint:gocritic // hugeParam: queued by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	if err := in.Validate(s.now()); err != nil {
		return err
	}
	if s.deduper.SeenAndRecord(ctx, in.MatchID) {
		s.logger.Debug(ctx, "duplicate fixture skipped", logger.String("match_id", in.MatchID))
		return ErrDuplicateFixture
	}
	if !s.queue.Enqueue(ctx, in) {
		s.deduper.Unrecord(ctx, in.MatchID)
		return ErrQueueFull
	}
	return nil
}

// Stop closes the queue, lets the workers drain it and waits for them.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping batch processing...")

	err := s.pool.Shutdown(ctx)
	s.cancel()
	s.started = false
	if err != nil {
		s.logger.Warn(ctx, "batch processing stopped with pending fixtures", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "batch processing stopped")
	return nil
}
