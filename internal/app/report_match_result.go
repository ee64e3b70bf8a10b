package app

import (
	"context"
	"fmt"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

type ReportMatchResult func(ctx context.Context, reporterID string, reporterWon bool) (tournament.TransitionResult, error)

// BuildReportMatchResult finishes the reporter's current match: the result is
// recorded and both players return to the waiting pool.
func BuildReportMatchResult(updatePlayerState UpdatePlayerState) ReportMatchResult {
	return func(ctx context.Context, reporterID string, reporterWon bool) (tournament.TransitionResult, error) {
		result, err := updatePlayerState(ctx, tournament.TransitionRequest{
			TargetID:     reporterID,
			NewStatus:    domain.StatusWaiting,
			RecordResult: true,
			TargetWon:    reporterWon,
		})
		if err != nil {
			return tournament.TransitionResult{}, err
		}
		if result.Match == nil {
			return tournament.TransitionResult{}, fmt.Errorf("reportMatchResult: no match recorded for player %s", reporterID)
		}
		return result, nil
	}
}
