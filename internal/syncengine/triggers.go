package syncengine

import (
	"context"
	"time"

	"github.com/guardpost/fieldsync/internal/log"
)

// Trigger runs the engine as a background task. Drain cycles fire on a
// periodic ticker, on connectivity-restored events, and on explicit
// user action; the engine's per-entity guards coalesce whatever
// overlaps.
type Trigger struct {
	engine   *Engine
	interval time.Duration

	manual       chan struct{}
	connectivity chan struct{}
}

// NewTrigger creates a trigger loop around an engine.
func NewTrigger(engine *Engine, interval time.Duration) *Trigger {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Trigger{
		engine:       engine,
		interval:     interval,
		manual:       make(chan struct{}, 1),
		connectivity: make(chan struct{}, 1),
	}
}

// SyncNow requests an immediate drain. Non-blocking; a request already
// pending is enough.
func (t *Trigger) SyncNow() {
	select {
	case t.manual <- struct{}{}:
	default:
	}
}

// ConnectivityRestored signals that the network came back.
func (t *Trigger) ConnectivityRestored() {
	select {
	case t.connectivity <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, draining on every trigger. Errors
// from individual cycles are logged, not fatal; the next trigger tries
// again.
func (t *Trigger) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.drain(ctx, "timer")
		case <-t.manual:
			t.drain(ctx, "manual")
		case <-t.connectivity:
			t.drain(ctx, "connectivity")
		}
	}
}

func (t *Trigger) drain(ctx context.Context, source string) {
	result, err := t.engine.Drain(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation mid-cycle: the queue is consistent, items
			// not yet confirmed stay queued for the next run.
			return
		}
		log.Errorf("sync drain (%s): %v", source, err)
		return
	}
	if result.HasFailures() {
		log.Printf("sync drain (%s): %d failed\n", source, result.GetFailureCount())
	}
}
