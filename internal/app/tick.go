package app

import (
	"context"
	"fmt"

	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

type deferredFlusher interface {
	FlushDeferredMatching(ctx context.Context) (*tournament.MatchingOutcome, error)
}

type Tick func(ctx context.Context) error

// BuildTick is the scheduler entry point: each tick drains the coalesced
// deferred matching request, if one is pending.
func BuildTick(core deferredFlusher) Tick {
	return func(ctx context.Context) error {
		outcome, err := core.FlushDeferredMatching(ctx)
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		if outcome != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Deferred matching flushed",
				"committed", len(outcome.Committed),
			)
		}
		return nil
	}
}
