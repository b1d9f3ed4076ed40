// Package runguard prevents duplicate in-flight matching runs per event.
package runguard

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard tracks which events currently have a matching run in flight.
type Guard interface {
	// Acquire atomically claims the event for a run. It returns false when
	// a run for the same event is already in flight.
	Acquire(ctx context.Context, eventID string) bool

	// Release frees the event once its run finishes, successfully or not.
	Release(ctx context.Context, eventID string)

	// Active returns the number of events with runs in flight.
	Active() int64
}

// inMemoryGuard implements Guard with a mutex-protected set. Matching runs
// are bounded by the worker pool, so the set stays small; there is no
// eviction.
type inMemoryGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
	count  atomic.Int64
}

// NewInMemoryGuard creates an empty in-memory guard.
func NewInMemoryGuard() Guard {
	return &inMemoryGuard{active: make(map[string]struct{})}
}

func (g *inMemoryGuard) Acquire(_ context.Context, eventID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, inFlight := g.active[eventID]; inFlight {
		return false
	}
	g.active[eventID] = struct{}{}
	g.count.Add(1)
	return true
}

func (g *inMemoryGuard) Release(_ context.Context, eventID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, inFlight := g.active[eventID]; inFlight {
		delete(g.active, eventID)
		g.count.Add(-1)
	}
}

func (g *inMemoryGuard) Active() int64 {
	return g.count.Load()
}
