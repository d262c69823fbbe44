package engine

import (
	"context"
	"time"
)

// TickSource delivers the periodic pulse that drives countdown phases.
// It is injected rather than ambient so tests can pump ticks synchronously.
type TickSource interface {
	// Run invokes onTick repeatedly until ctx is cancelled. Blocking.
	Run(ctx context.Context, onTick func())
}

// WallTicker is the production TickSource backed by time.Ticker.
type WallTicker struct {
	Interval time.Duration
}

// Run ticks every Interval (default 1s) until ctx is cancelled.
func (t WallTicker) Run(ctx context.Context, onTick func()) {
	interval := t.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			onTick()
		}
	}
}
