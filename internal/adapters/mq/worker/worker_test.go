package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ironforge/raidlake/internal/adapters/mq/queue"
	"github.com/ironforge/raidlake/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithOutput(io.Discard))
	os.Exit(m.Run())
}

type recordingProcessor struct {
	mu        sync.Mutex
	processed []string
	failOn    string
}

func (p *recordingProcessor) Process(ctx context.Context, m queue.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.ObjectName == p.failOn {
		return errors.New("boom")
	}
	p.processed = append(p.processed, m.ObjectName)
	return nil
}

func (p *recordingProcessor) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running pool", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		proc := &recordingProcessor{}
		pool := NewPool(2, q, proc)
		pool.Start(ctx)

		Convey("When messages are enqueued", func() {
			So(q.Enqueue(ctx, queue.Message{ObjectName: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Message{ObjectName: "b"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Message{ObjectName: "c"}), ShouldBeTrue)

			Convey("Then all of them get processed", func() {
				waitFor(t, func() bool { return len(proc.seen()) == 3 })
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When one message fails", func() {
			proc.failOn = "bad"
			So(q.Enqueue(ctx, queue.Message{ObjectName: "bad"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Message{ObjectName: "good"}), ShouldBeTrue)

			Convey("Then the workers keep processing", func() {
				waitFor(t, func() bool {
					seen := proc.seen()
					return len(seen) == 1 && seen[0] == "good"
				})
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When messages are still queued at shutdown", func() {
			for i := 0; i < 10; i++ {
				So(q.Enqueue(ctx, queue.Message{ObjectName: "m"}), ShouldBeTrue)
			}

			Convey("Then shutdown drains them all before returning", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
				So(len(proc.seen()), ShouldEqual, 10)
			})
		})

		Convey("When the pool shuts down", func() {
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then the queue no longer accepts messages", func() {
				So(q.Enqueue(ctx, queue.Message{ObjectName: "late"}), ShouldBeFalse)
			})
		})
	})

	Convey("Given a single worker", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		proc := &recordingProcessor{}
		w := NewInMemoryWorker(q, proc, WithName("solo"))
		go w.Run(ctx)

		So(q.Enqueue(ctx, queue.Message{ObjectName: "only"}), ShouldBeTrue)
		waitFor(t, func() bool { return len(proc.seen()) == 1 })

		So(w.Shutdown(ctx), ShouldBeNil)
	})
}
