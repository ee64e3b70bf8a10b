package tournament

import (
	"context"
	"fmt"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/reporting"
)

// TransitionRequest describes one player status change. OpponentNewStatus
// defaults to Waiting when the target has a paired opponent and the caller
// leaves it empty.
type TransitionRequest struct {
	TargetID          string
	NewStatus         domain.PlayerStatus
	OpponentNewStatus domain.PlayerStatus
	RecordResult      bool
	TargetWon         bool
}

// TransitionResult reports the effects of an applied transition. RematchNeeded
// signals that the waiting pool can be paired again; the caller executes the
// matching run after this transaction, outside the lock.
type TransitionResult struct {
	OpponentID    string
	Match         *domain.MatchRecord
	RematchNeeded bool
}

// UpdatePlayerState is the single authorized entry point for any player
// status change. All validation happens before any mutation; the in-memory
// commit is all-or-nothing from the caller's perspective.
//
// Lock order: status lock, then result lock when a result is recorded.
func (c *Core) UpdatePlayerState(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	release, err := c.statusLock.Acquire(ctx)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("updatePlayerState: %w", err)
	}
	defer release()

	if req.RecordResult {
		releaseResult, err := c.resultLock.Acquire(ctx)
		if err != nil {
			return TransitionResult{}, fmt.Errorf("updatePlayerState: %w", err)
		}
		defer releaseResult()
	}

	logger := logging.FromContext(ctx)

	target, ok := c.registry.Get(req.TargetID)
	if !ok {
		return TransitionResult{}, fmt.Errorf("updatePlayerState: %w: %s", domain.ErrPlayerNotFound, req.TargetID)
	}
	if target.Status == domain.StatusDropped {
		return TransitionResult{}, fmt.Errorf("updatePlayerState: %w: %s", domain.ErrPlayerDropped, req.TargetID)
	}
	if !req.NewStatus.Valid() {
		return TransitionResult{}, fmt.Errorf("updatePlayerState: %w: unknown status %q", domain.ErrInvalidValue, req.NewStatus)
	}
	if !domain.CanTransition(target.Status, req.NewStatus) {
		return TransitionResult{}, fmt.Errorf("updatePlayerState: %w: %s -> %s for player %s", domain.ErrInvalidTransition, target.Status, req.NewStatus, req.TargetID)
	}

	// Locate the paired opponent when the target is mid-match. A missing
	// opponent is a broken invariant, not a business rejection.
	var (
		opponent    domain.Player
		hasOpponent bool
		slot        domain.TableSlot
	)
	if target.Status == domain.StatusInProgress {
		slot, ok = c.tables.SlotSeating(target.ID)
		if !ok {
			err := fmt.Errorf("updatePlayerState: %w: in-progress player %s has no table", domain.ErrDataConsistency, req.TargetID)
			logger.WarnContext(ctx, "Data consistency violation", "playerId", req.TargetID, "error", err.Error())
			reporting.Report(ctx, err, map[string]string{"playerId": req.TargetID})
			return TransitionResult{}, err
		}
		opponentID := slot.OpponentOf(target.ID)
		opponent, ok = c.registry.Get(opponentID)
		if !ok {
			err := fmt.Errorf("updatePlayerState: %w: opponent %s of player %s not in roster", domain.ErrDataConsistency, opponentID, req.TargetID)
			logger.WarnContext(ctx, "Data consistency violation", "playerId", req.TargetID, "opponentId", opponentID, "error", err.Error())
			reporting.Report(ctx, err, map[string]string{"playerId": req.TargetID, "opponentId": opponentID})
			return TransitionResult{}, err
		}
		hasOpponent = true
	}

	opponentNewStatus := req.OpponentNewStatus
	if hasOpponent && opponentNewStatus == "" {
		opponentNewStatus = domain.StatusWaiting
	}
	if hasOpponent {
		if opponent.Status == domain.StatusDropped {
			// A dropped opponent must be acknowledged explicitly.
			if opponentNewStatus != domain.StatusDropped {
				return TransitionResult{}, fmt.Errorf("updatePlayerState: %w: opponent %s", domain.ErrPlayerDropped, opponent.ID)
			}
		} else if !domain.CanTransition(opponent.Status, opponentNewStatus) {
			return TransitionResult{}, fmt.Errorf("updatePlayerState: %w: %s -> %s for opponent %s", domain.ErrInvalidTransition, opponent.Status, opponentNewStatus, opponent.ID)
		}
	}

	if req.RecordResult && !hasOpponent {
		return TransitionResult{}, fmt.Errorf("updatePlayerState: %w: no match in progress for player %s", domain.ErrInvalidValue, req.TargetID)
	}

	// Validation complete; apply the buffered mutations as a unit.
	now := c.now()
	result := TransitionResult{}

	if req.RecordResult {
		winner, loser := &target, &opponent
		if !req.TargetWon {
			winner, loser = &opponent, &target
		}

		record := c.history.Append(domain.MatchRecord{
			TableNumber: slot.Number,
			WinnerID:    winner.ID,
			WinnerName:  winner.Name,
			LoserID:     loser.ID,
			LoserName:   loser.Name,
			CompletedAt: now,
			Duration:    now.Sub(slot.StartedAt),
		})
		result.Match = &record

		winner.Wins++
		winner.MatchesPlayed++
		loser.Losses++
		loser.MatchesPlayed++
		matchTime := now
		winner.LastMatchAt = &matchTime
		loser.LastMatchAt = &matchTime
	}

	if hasOpponent {
		if err := c.tables.Release(slot.Number); err != nil {
			err := fmt.Errorf("updatePlayerState: %w: release table %d: %v", domain.ErrDataConsistency, slot.Number, err)
			reporting.Report(ctx, err)
			return TransitionResult{}, err
		}
		result.OpponentID = opponent.ID
	}

	target.Status = req.NewStatus
	if err := c.registry.Put(target); err != nil {
		return TransitionResult{}, fmt.Errorf("updatePlayerState: %w", err)
	}
	if hasOpponent {
		if opponent.Status != domain.StatusDropped {
			opponent.Status = opponentNewStatus
		}
		if err := c.registry.Put(opponent); err != nil {
			return TransitionResult{}, fmt.Errorf("updatePlayerState: %w", err)
		}
	}

	c.writeThrough(ctx, "updatePlayerState", func() error {
		return c.store.UpdatePlayer(ctx, target)
	})
	if hasOpponent {
		c.writeThrough(ctx, "updatePlayerState", func() error {
			return c.store.UpdatePlayer(ctx, opponent)
		})
		c.writeThrough(ctx, "updatePlayerState", func() error {
			return c.store.ClearActiveTable(ctx, slot.Number)
		})
	}
	if result.Match != nil {
		c.writeThrough(ctx, "updatePlayerState", func() error {
			return c.store.AppendMatch(ctx, *result.Match)
		})
	}

	logger.InfoContext(ctx, "Player state updated",
		"playerId", target.ID,
		"newStatus", string(target.Status),
		"opponentId", result.OpponentID,
		"resultRecorded", req.RecordResult,
	)

	result.RematchNeeded = c.registry.WaitingCount() >= 2
	return result, nil
}
