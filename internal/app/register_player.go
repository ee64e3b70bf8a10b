package app

import (
	"context"
	"fmt"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/strutils"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

type playerRegistrar interface {
	RegisterPlayer(ctx context.Context, id, name string) (domain.Player, error)
	RequestMatching(ctx context.Context) (tournament.MatchingOutcome, bool, error)
}

type RegisterPlayer func(ctx context.Context, rawID, name string) (domain.Player, error)

// BuildRegisterPlayer normalizes the raw player id, registers the player and
// requests a matching run so the newcomer is seated as soon as possible.
func BuildRegisterPlayer(core playerRegistrar) RegisterPlayer {
	return func(ctx context.Context, rawID, name string) (domain.Player, error) {
		id, err := strutils.NormalizePlayerID(rawID)
		if err != nil {
			return domain.Player{}, fmt.Errorf("registerPlayer: %w", err)
		}

		player, err := core.RegisterPlayer(ctx, id, name)
		if err != nil {
			return domain.Player{}, err
		}

		// The registration itself has committed; a matching failure here is
		// logged but does not fail the request.
		if _, _, err := core.RequestMatching(ctx); err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "Matching after registration failed", "playerId", id, "error", err.Error())
		}

		return player, nil
	}
}
