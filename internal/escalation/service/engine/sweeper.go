package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SweeperDeps wires the periodic trigger surface.
type SweeperDeps struct {
	Engine   *Engine
	Interval time.Duration
}

// StartSweeper runs sweep passes on a ticker until the context is cancelled.
// Each pass is a bounded batch; an interrupted pass simply leaves work for
// the next tick, which the dedup invariant makes safe.
func StartSweeper(ctx context.Context, deps SweeperDeps) {
	if deps.Interval <= 0 {
		deps.Interval = 5 * time.Minute
	}
	t := time.NewTicker(deps.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := deps.Engine.SweepOpenFeedback(ctx); err != nil {
				log.Error().Err(err).Msg("sweep pass failed")
			}
		}
	}
}
