package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/dinerly/tablematch/internal/adapters/mq/queue"
	worker "github.com/dinerly/tablematch/internal/adapters/mq/worker"
	model "github.com/dinerly/tablematch/internal/domain/model"
)

// Mock implementations for testing.
type mockQueue struct {
	runChan    chan queue.Run
	closeError error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		runChan: make(chan queue.Run, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Run {
	return mq.runChan
}

func (mq *mockQueue) Close() error {
	close(mq.runChan)
	return mq.closeError
}

func (mq *mockQueue) addRun(run queue.Run) {
	mq.runChan <- run
}

type mockRunner struct {
	mu       sync.Mutex
	executed []string
	errors   map[string]error
}

func newMockRunner() *mockRunner {
	return &mockRunner{errors: make(map[string]error)}
}

func (mr *mockRunner) ExecuteRun(ctx context.Context, run worker.Run) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.executed = append(mr.executed, run.RunID)
	if err, exists := mr.errors[run.RunID]; exists {
		return err
	}
	return nil
}

func (mr *mockRunner) executedRuns() []string {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	out := make([]string, len(mr.executed))
	copy(out, mr.executed)
	return out
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given an in-memory worker", t, func() {
		mq := newMockQueue()
		runner := newMockRunner()
		w := worker.NewInMemoryWorker(mq, runner, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a run is enqueued", func() {
			mq.addRun(model.MatchRequest{RunID: "run1", EventID: "event1", TargetSize: 6})

			convey.Convey("Then the runner executes it", func() {
				ok := waitFor(time.Second, func() bool {
					return len(runner.executedRuns()) == 1
				})
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(runner.executedRuns()[0], convey.ShouldEqual, "run1")
			})
		})

		convey.Convey("When the runner fails", func() {
			runner.errors["bad"] = errors.New("roster malformed")
			mq.addRun(model.MatchRequest{RunID: "bad", EventID: "event1", TargetSize: 6})
			mq.addRun(model.MatchRequest{RunID: "good", EventID: "event2", TargetSize: 6})

			convey.Convey("Then subsequent runs still process", func() {
				ok := waitFor(time.Second, func() bool {
					return len(runner.executedRuns()) == 2
				})
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(runner.executedRuns(), convey.ShouldResemble, []string{"bad", "good"})
			})
		})

		convey.Convey("When the worker is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then shutdown completes cleanly", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		mq := newMockQueue()
		runner := newMockRunner()
		pool := worker.NewPool(3, mq, runner)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When several runs are enqueued", func() {
			for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
				mq.addRun(model.MatchRequest{RunID: id, EventID: "event1", TargetSize: 5})
			}

			convey.Convey("Then every run is executed exactly once", func() {
				ok := waitFor(time.Second, func() bool {
					return len(runner.executedRuns()) == 5
				})
				convey.So(ok, convey.ShouldBeTrue)

				seen := make(map[string]int)
				for _, id := range runner.executedRuns() {
					seen[id]++
				}
				for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
					convey.So(seen[id], convey.ShouldEqual, 1)
				}
			})
		})

		convey.Convey("When the pool is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()

			convey.Convey("Then the queue is closed and workers drain", func() {
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}
