package app

import (
	"context"

	"github.com/opentabletop/gunslinger/internal/domain"
)

type matchCorrector interface {
	CorrectMatch(ctx context.Context, matchID int64) (domain.MatchRecord, error)
}

type CorrectMatch func(ctx context.Context, matchID int64) (domain.MatchRecord, error)

func BuildCorrectMatch(core matchCorrector) CorrectMatch {
	return func(ctx context.Context, matchID int64) (domain.MatchRecord, error) {
		return core.CorrectMatch(ctx, matchID)
	}
}
