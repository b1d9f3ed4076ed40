// Package queue defines the contract for enqueuing and consuming match
// run requests.
//
// Implementations may use channels or more advanced structures. The
// in-memory bounded queue is the default.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/dinerly/tablematch/internal/domain/model"
	"github.com/dinerly/tablematch/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
	defaultBufferSize    = 1024
)

// Run represents the payload type flowing through the queue. Aliasing
// model.MatchRequest keeps producers and consumers type safe.
type Run = model.MatchRequest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a match run request to the queue.
	// Returns false if the queue is full and the request was not enqueued.
	Enqueue(ctx context.Context, r Run) bool

	// Dequeue returns a channel that will receive requests as they become
	// available. The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Run

	// Len returns the current number of queued requests.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new requests can be enqueued and the dequeue
	// channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	runs       chan Run
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.runs = make(chan Run, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a match run request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Run) bool {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordQueueProcessingLatency(float64(latency))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.runs) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.runs <- r:
		metrics.RecordQueueEnqueue()
		currentSize := len(q.runs)
		metrics.UpdateQueueSize(currentSize)
		metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive requests as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Run {
	// Wrap the channel to track dequeue metrics.
	dequeueChan := make(chan Run)
	go func() {
		defer close(dequeueChan)
		for run := range q.runs {
			select {
			case dequeueChan <- run:
				metrics.RecordQueueDequeue()
				currentSize := len(q.runs)
				metrics.UpdateQueueSize(currentSize)
				metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued requests.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.runs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	// Closing the runs channel signals consumers to stop.
	close(q.runs)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
