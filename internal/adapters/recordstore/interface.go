package recordstore

import (
	"context"
	"time"

	"github.com/opentabletop/gunslinger/internal/domain"
)

// Store persists the tournament record: the roster, the completed match log,
// the occupied tables and the correction audit trail. The List methods feed
// the startup restore; the remaining methods are write-through targets.
type Store interface {
	AppendPlayer(ctx context.Context, player domain.Player) error
	UpdatePlayer(ctx context.Context, player domain.Player) error
	AppendMatch(ctx context.Context, record domain.MatchRecord) error
	UpdateMatch(ctx context.Context, record domain.MatchRecord) error
	AppendCorrection(ctx context.Context, matchID int64, correctedAt time.Time) error
	UpsertActiveTable(ctx context.Context, slot domain.TableSlot) error
	ClearActiveTable(ctx context.Context, tableNumber int) error

	ListPlayers(ctx context.Context) ([]domain.Player, error)
	ListMatches(ctx context.Context) ([]domain.MatchRecord, error)
	ListActiveTables(ctx context.Context) ([]domain.TableSlot, error)
}
