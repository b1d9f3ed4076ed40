package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dinerly/tablematch/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Test empty queue
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	// Test enqueue
	run1 := model.MatchRequest{RunID: "run1", EventID: "event1", TargetSize: 6}
	if !q.Enqueue(ctx, run1) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	// Test dequeue
	runChan := q.Dequeue(ctx)
	run := <-runChan
	if run.RunID != "run1" {
		t.Errorf("expected run1, got %v", run.RunID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Fill the queue
	run1 := model.MatchRequest{RunID: "run1", EventID: "event1", TargetSize: 5}
	run2 := model.MatchRequest{RunID: "run2", EventID: "event2", TargetSize: 6}
	run3 := model.MatchRequest{RunID: "run3", EventID: "event3", TargetSize: 6}

	if !q.Enqueue(ctx, run1) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, run2) {
		t.Error("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(ctx, run3) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2000))
	ctx := context.Background()
	numGoroutines := 10
	numRuns := 100

	// Start producer goroutines
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numRuns; j++ {
				run := model.MatchRequest{
					RunID:      fmt.Sprintf("run-%d-%d", id, j),
					EventID:    fmt.Sprintf("event-%d", id),
					TargetSize: 6,
				}
				if !q.Enqueue(ctx, run) {
					t.Errorf("enqueue failed for run-%d-%d", id, j)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if l := q.Len(ctx); l != numGoroutines*numRuns {
		t.Errorf("expected length %d, got %d", numGoroutines*numRuns, l)
	}

	// Drain everything back out
	runChan := q.Dequeue(ctx)
	received := 0
	for received < numGoroutines*numRuns {
		select {
		case <-runChan:
			received++
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after receiving %d runs", received)
		}
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if q.IsClosed() {
		t.Error("expected queue to be open")
	}

	if err := q.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}

	// Closing twice is a no-op
	if err := q.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}

	// Enqueue after close must fail
	run := model.MatchRequest{RunID: "run1", EventID: "event1", TargetSize: 6}
	if q.Enqueue(ctx, run) {
		t.Error("expected enqueue to fail after close")
	}

	// The dequeue channel drains and closes
	runChan := q.Dequeue(ctx)
	select {
	case _, ok := <-runChan:
		if ok {
			t.Error("expected dequeue channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for dequeue channel to close")
	}
}
