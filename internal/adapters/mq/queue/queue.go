// Package queue holds fixtures waiting for batch analysis.
package queue

import (
	"context"
	"sync"

	"github.com/okian/matchquant/internal/domain/model"
	"github.com/okian/matchquant/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
)

// Fixture is the payload flowing through the queue.
type Fixture = model.MatchInput

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a fixture to the queue.
	// Returns false if the queue is full or closed and the fixture was not enqueued.
	Enqueue(ctx context.Context, f Fixture) bool
	// Dequeue returns a channel that will receive fixtures as they become available.
	// The channel will be closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Fixture
	// Len returns the current number of queued fixtures.
	Len(ctx context.Context) int
	// Close stops accepting fixtures. Queued fixtures can still be dequeued.
	Close() error
	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	fixtures chan Fixture
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.fixtures = make(chan Fixture, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a fixture to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, f Fixture) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return false
	}

	select {
	case q.fixtures <- f:
		q.observe()
		return true
	default:
		metrics.RecordQueueRejected("queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive fixtures as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Fixture {
	out := make(chan Fixture)
	go func() {
		defer close(out)
		for f := range q.fixtures {
			select {
			case out <- f:
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued fixtures.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

func (q *InMemoryQueue) observe() int {
	size := len(q.fixtures)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close stops accepting fixtures.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.fixtures)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
