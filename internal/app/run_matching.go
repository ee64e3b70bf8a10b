package app

import (
	"context"

	"github.com/opentabletop/gunslinger/internal/tournament"
)

type matchRequester interface {
	RequestMatching(ctx context.Context) (tournament.MatchingOutcome, bool, error)
}

type RequestMatching func(ctx context.Context) (tournament.MatchingOutcome, bool, error)

// BuildRequestMatching exposes the operator-triggered matching run. The bool
// return reports whether the run was deferred to the next scheduler tick.
func BuildRequestMatching(core matchRequester) RequestMatching {
	return func(ctx context.Context) (tournament.MatchingOutcome, bool, error) {
		return core.RequestMatching(ctx)
	}
}
