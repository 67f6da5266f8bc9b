// Package worker drains the batch queue and hands each job to a Handler.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/gscore/internal/adapters/mq/queue"
	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/pkg/logger"
	"github.com/okian/gscore/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = model.BatchJob

// Handler processes one job.
type Handler interface {
	Handle(ctx context.Context, j Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, j Job) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, j Job) error { return f(ctx, j) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, h Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		handler:  h,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.GetOr(logger.Nop()),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// Stopping the dequeue goroutine with the loop keeps it from stealing a
	// job nobody will process.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("batch_id", j.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, j Job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.RecordWorkerJob(result, float64(time.Since(start).Milliseconds()))
	}()
	return w.handler.Handle(ctx, j)
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool. A count below one means one worker. opts apply to
// every worker; each worker is named by its index.
func NewPool(count int, q Queue, h Handler, opts ...Option) *Pool {
	if count < 1 {
		count = 1
	}
	probe := &InMemoryWorker{logger: logger.GetOr(logger.Nop())}
	for _, opt := range opts {
		opt(probe)
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, count),
		queue:   q,
		logger:  probe.logger.Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, h, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and waits for the workers to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return errors.Join(errs...)
}

var _ Queue = (*queue.InMemoryQueue)(nil)
