package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func job(id string) Job {
	return Job{ID: id, Identities: []string{"alice", "bob"}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, job("batch1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "batch1" || len(got.Identities) != 2 {
		t.Errorf("unexpected job %+v", got)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"b1", "b2"} {
		if err := q.Enqueue(ctx, job(id)); err != nil {
			t.Fatalf("expected enqueue of %s to succeed, got %v", id, err)
		}
	}
	if err := q.Enqueue(ctx, job("b3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if q.Capacity() != 2 || q.Len() != 2 {
		t.Errorf("expected 2/2, got %d/%d", q.Len(), q.Capacity())
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, job("b1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(8))
	ctx := context.Background()
	const producers, perProducer = 4, 25

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for q.Enqueue(ctx, job(fmt.Sprintf("b%d_%d", id, j))) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	seen := make(map[string]bool)
	jobs := q.Dequeue(ctx)
	for len(seen) < producers*perProducer {
		select {
		case j := <-jobs:
			seen[j.ID] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d jobs", len(seen))
		}
	}
	wg.Wait()

	if l := q.Len(); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, job("b1")); err != nil {
		t.Fatal(err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, job("b2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Pending jobs are still delivered before the channel closes.
	var ids []string
	timeout := time.After(time.Second)
	jobs := q.Dequeue(ctx)
	for done := false; !done; {
		select {
		case j, ok := <-jobs:
			if !ok {
				done = true
				continue
			}
			ids = append(ids, j.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
	if len(ids) != 1 || ids[0] != "b1" {
		t.Errorf("expected [b1], got %v", ids)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
