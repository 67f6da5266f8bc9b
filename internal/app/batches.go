package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/okian/gscore/internal/adapters/mq/queue"
	"github.com/okian/gscore/internal/domain/bulk"
	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/pkg/logger"
	"github.com/okian/gscore/pkg/metrics"
)

// BatchState is the lifecycle position of a queued batch.
type BatchState string

// Batch states.
const (
	BatchQueued  BatchState = "queued"
	BatchRunning BatchState = "running"
	BatchDone    BatchState = "done"
	BatchFailed  BatchState = "failed"
)

// Batch is the status of a submitted batch.
type Batch struct {
	ID         string       `json:"batchId"`
	State      BatchState   `json:"state"`
	Identities int          `json:"identities"`
	Report     *bulk.Report `json:"report,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// batchRegistry tracks submitted batches in submission order. Once more than
// max batches are tracked the oldest finished one is forgotten.
type batchRegistry struct {
	mu    sync.RWMutex
	byID  map[string]*Batch
	order []string
	max   int
}

func newBatchRegistry() *batchRegistry {
	return &batchRegistry{byID: make(map[string]*Batch)}
}

func (r *batchRegistry) add(b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[b.ID] = &b
	r.order = append(r.order, b.ID)
	if r.max <= 0 || len(r.order) <= r.max {
		return
	}
	for i, id := range r.order {
		if st := r.byID[id].State; st == BatchDone || st == BatchFailed {
			delete(r.byID, id)
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

func (r *batchRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *batchRegistry) update(id string, fn func(*Batch)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.byID[id]; ok {
		fn(b)
	}
}

func (r *batchRegistry) get(id string) (Batch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return Batch{}, false
	}
	return *b, true
}

func (r *batchRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (s *Service) checkBatch(identities []string) ([]string, error) {
	ids := bulk.Dedupe(identities)
	if len(ids) == 0 {
		return nil, invalid("at least one githubUsername is required")
	}
	if len(ids) > s.maxBatchSize {
		return nil, invalid("batch has %d identities, the limit is %d", len(ids), s.maxBatchSize)
	}
	return ids, nil
}

// RunBatch scores identities in order and returns the report.
func (s *Service) RunBatch(ctx context.Context, identities []string) (bulk.Report, error) {
	ids, err := s.checkBatch(identities)
	if err != nil {
		return bulk.Report{}, err
	}
	return s.runBatch(ctx, uuid.NewString(), ids), nil
}

// runBatch holds batchMu so only one batch talks to upstream at a time.
func (s *Service) runBatch(ctx context.Context, id string, identities []string) bulk.Report {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.runner.Run(ctx, id, identities)
}

// SubmitBatch queues identities for the batch worker. An empty id is
// replaced by a generated one; a reused id is rejected.
func (s *Service) SubmitBatch(ctx context.Context, id string, identities []string) (Batch, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return Batch{}, ErrNotStarted
	}

	ids, err := s.checkBatch(identities)
	if err != nil {
		return Batch{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordBatchDuplicate()
		return Batch{}, fmt.Errorf("%w: %s", ErrDuplicateBatch, id)
	}

	b := Batch{ID: id, State: BatchQueued, Identities: len(ids)}
	s.batches.add(b)
	job := model.BatchJob{ID: id, Identities: ids, SubmittedAt: s.now().UTC()}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, id)
		s.batches.remove(id)
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return Batch{}, fmt.Errorf("%w: %v", ErrQueueFull, err)
		}
		return Batch{}, err
	}
	s.logger.Info(ctx, "batch queued", logger.String("batch_id", id), logger.Int("identities", len(ids)))
	return b, nil
}

// BatchStatus returns the state of a submitted batch.
func (s *Service) BatchStatus(_ context.Context, id string) (Batch, error) {
	b, ok := s.batches.get(id)
	if !ok {
		return Batch{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	return b, nil
}

// Recommendations returns the most recent batch report.
func (s *Service) Recommendations(ctx context.Context) (bulk.Report, bool, error) {
	return s.runner.Latest(ctx)
}

func (s *Service) handleBatch(ctx context.Context, j model.BatchJob) (err error) {
	s.batches.update(j.ID, func(b *Batch) { b.State = BatchRunning })
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch %s: %v", j.ID, r)
			s.batches.update(j.ID, func(b *Batch) {
				b.State = BatchFailed
				b.Error = err.Error()
			})
		}
	}()

	rep := s.runBatch(ctx, j.ID, j.Identities)

	s.batches.update(j.ID, func(b *Batch) {
		b.State = BatchDone
		b.Report = &rep
	})
	return nil
}
