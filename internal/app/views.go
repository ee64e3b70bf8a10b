package app

import (
	"context"
	"fmt"

	"github.com/opentabletop/gunslinger/internal/adapters/cache"
	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/strutils"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

type viewCore interface {
	ActiveTables(ctx context.Context) ([]tournament.ActiveTable, error)
	Standings(ctx context.Context) ([]domain.Player, error)
	Player(ctx context.Context, id string) (domain.Player, error)
}

type GetActiveTables func(ctx context.Context) ([]tournament.ActiveTable, error)

type GetStandings func(ctx context.Context) ([]domain.Player, error)

type GetPlayer func(ctx context.Context, rawID string) (domain.Player, error)

// BuildGetActiveTables serves the spectator table display through a short-TTL
// cache so polling bursts don't contend on the tournament locks.
func BuildGetActiveTables(core viewCore, tablesCache cache.Cache[[]tournament.ActiveTable]) GetActiveTables {
	return func(ctx context.Context) ([]tournament.ActiveTable, error) {
		tables, err := cache.GetOrCreate(ctx, tablesCache, "active-tables", func() ([]tournament.ActiveTable, error) {
			return core.ActiveTables(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("getActiveTables: %w", err)
		}
		return tables, nil
	}
}

func BuildGetStandings(core viewCore, standingsCache cache.Cache[[]domain.Player]) GetStandings {
	return func(ctx context.Context) ([]domain.Player, error) {
		standings, err := cache.GetOrCreate(ctx, standingsCache, "standings", func() ([]domain.Player, error) {
			return core.Standings(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("getStandings: %w", err)
		}
		return standings, nil
	}
}

// BuildGetPlayer reads a single roster record, uncached.
func BuildGetPlayer(core viewCore) GetPlayer {
	return func(ctx context.Context, rawID string) (domain.Player, error) {
		id, err := strutils.NormalizePlayerID(rawID)
		if err != nil {
			return domain.Player{}, fmt.Errorf("getPlayer: %w", err)
		}
		return core.Player(ctx, id)
	}
}
