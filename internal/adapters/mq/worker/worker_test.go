package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/gscore/internal/adapters/mq/queue"
	worker "github.com/okian/gscore/internal/adapters/mq/worker"
	"github.com/okian/gscore/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recordingHandler struct {
	mu      sync.Mutex
	handled []string
	fail    map[string]error
	block   chan struct{}
}

func (h *recordingHandler) Handle(_ context.Context, j worker.Job) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, j.ID)
	if err, ok := h.fail[j.ID]; ok {
		return err
	}
	if j.ID == "panic" {
		panic("boom")
	}
	return nil
}

func (h *recordingHandler) ids() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		h := &recordingHandler{fail: map[string]error{"bad": errors.New("upstream down")}}
		w := worker.NewInMemoryWorker(q, h, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs are enqueued", func() {
			for _, id := range []string{"b1", "bad", "panic", "b2"} {
				convey.So(q.Enqueue(ctx, worker.Job{ID: id}), convey.ShouldBeNil)
			}

			convey.Convey("Then they are handled in order and failures do not stop the loop", func() {
				convey.So(waitFor(func() bool { return len(h.ids()) == 4 }), convey.ShouldBeTrue)
				convey.So(h.ids(), convey.ShouldResemble, []string{"b1", "bad", "panic", "b2"})
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)

			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker stuck in a job", t, func() {
		q := queue.NewInMemoryQueue()
		h := &recordingHandler{block: make(chan struct{})}
		w := worker.NewInMemoryWorker(q, h)
		go w.Run(context.Background())
		convey.So(q.Enqueue(context.Background(), worker.Job{ID: "slow"}), convey.ShouldBeNil)
		time.Sleep(20 * time.Millisecond)

		convey.Convey("Then shutdown respects its deadline", func() {
			sctx, scancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldNotBeNil)
			close(h.block)
			<-w.Done()
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool with a non-positive size", t, func() {
		q := queue.NewInMemoryQueue()
		var mu sync.Mutex
		var seen []string
		p := worker.NewPool(0, q, worker.HandlerFunc(func(_ context.Context, j worker.Job) error {
			mu.Lock()
			seen = append(seen, j.ID)
			mu.Unlock()
			return nil
		}), worker.WithLogger(logger.Nop()), worker.WithName("ignored"))

		convey.So(p.Size(), convey.ShouldEqual, 1)
		p.Start(context.Background())

		convey.Convey("When jobs arrive and the pool shuts down", func() {
			convey.So(q.Enqueue(context.Background(), worker.Job{ID: "a"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(context.Background(), worker.Job{ID: "b"}), convey.ShouldBeNil)
			convey.So(waitFor(func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(seen) == 2
			}), convey.ShouldBeTrue)

			err := p.Shutdown(context.Background())

			convey.Convey("Then the jobs ran sequentially and the queue is closed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(seen, convey.ShouldResemble, []string{"a", "b"})
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
