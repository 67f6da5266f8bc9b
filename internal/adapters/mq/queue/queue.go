// Package queue holds batch jobs waiting for a worker.
//
// Enqueue never blocks: a full queue is reported to the caller so the HTTP
// layer can answer with backpressure instead of holding the request open.
package queue

import (
	"context"
	"sync"

	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/pkg/metrics"
)

const defaultQueueCapacity = 16

// Job is the payload flowing through the queue.
type Job = model.BatchJob

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns ErrFull or ErrClosed when the job was not accepted.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel of jobs. The channel is closed when the
	// queue is closed and drained, or when ctx is done.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of pending jobs.
	Len() int

	// Close stops accepting jobs. Pending jobs are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				select {
				case out <- j:
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.jobs))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close implements Queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
