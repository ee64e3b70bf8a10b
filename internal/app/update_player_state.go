package app

import (
	"context"
	"fmt"

	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/strutils"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

type stateTransitioner interface {
	UpdatePlayerState(ctx context.Context, req tournament.TransitionRequest) (tournament.TransitionResult, error)
	RequestMatching(ctx context.Context) (tournament.MatchingOutcome, bool, error)
}

type UpdatePlayerState func(ctx context.Context, req tournament.TransitionRequest) (tournament.TransitionResult, error)

// BuildUpdatePlayerState applies one status transition and, when the
// transition refills the waiting pool, requests a matching run after the
// transition has committed.
func BuildUpdatePlayerState(core stateTransitioner) UpdatePlayerState {
	return func(ctx context.Context, req tournament.TransitionRequest) (tournament.TransitionResult, error) {
		id, err := strutils.NormalizePlayerID(req.TargetID)
		if err != nil {
			return tournament.TransitionResult{}, fmt.Errorf("updatePlayerState: %w", err)
		}
		req.TargetID = id

		result, err := core.UpdatePlayerState(ctx, req)
		if err != nil {
			return tournament.TransitionResult{}, err
		}

		if result.RematchNeeded {
			if _, _, err := core.RequestMatching(ctx); err != nil {
				logging.FromContext(ctx).ErrorContext(ctx, "Matching after transition failed", "playerId", id, "error", err.Error())
			}
		}

		return result, nil
	}
}
