package tournament

import (
	"testing"
	"time"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerWithRecord(id string, wins int, lastMatchAt *time.Time) domain.Player {
	return domain.Player{
		ID:          id,
		Name:        "Player " + id,
		Wins:        wins,
		Status:      domain.StatusWaiting,
		LastMatchAt: lastMatchAt,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func sortedIDs(players []domain.Player) []string {
	ids := make([]string, 0, len(players))
	for _, player := range players {
		ids = append(ids, player.ID)
	}
	return ids
}

func TestSortByPriority(t *testing.T) {
	t.Parallel()

	noon := time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)

	t.Run("wins descending dominates", func(t *testing.T) {
		t.Parallel()

		players := []domain.Player{
			playerWithRecord("0001", 1, nil),
			playerWithRecord("0002", 3, nil),
			playerWithRecord("0003", 2, nil),
		}
		sortByPriority(players, TieBreakLongestIdleFirst)
		assert.Equal(t, []string{"0002", "0003", "0001"}, sortedIDs(players))
	})

	t.Run("longest idle first on equal wins", func(t *testing.T) {
		t.Parallel()

		players := []domain.Player{
			playerWithRecord("0001", 2, timePtr(noon)),
			playerWithRecord("0002", 2, timePtr(noon.Add(-time.Hour))),
			playerWithRecord("0003", 2, nil),
		}
		sortByPriority(players, TieBreakLongestIdleFirst)
		assert.Equal(t, []string{"0003", "0002", "0001"}, sortedIDs(players))
	})

	t.Run("most recent first on equal wins", func(t *testing.T) {
		t.Parallel()

		players := []domain.Player{
			playerWithRecord("0001", 2, timePtr(noon.Add(-time.Hour))),
			playerWithRecord("0002", 2, nil),
			playerWithRecord("0003", 2, timePtr(noon)),
		}
		sortByPriority(players, TieBreakMostRecentFirst)
		assert.Equal(t, []string{"0003", "0001", "0002"}, sortedIDs(players))
	})

	t.Run("full ties keep registration order", func(t *testing.T) {
		t.Parallel()

		players := []domain.Player{
			playerWithRecord("0005", 0, nil),
			playerWithRecord("0002", 0, nil),
			playerWithRecord("0009", 0, nil),
		}
		sortByPriority(players, TieBreakLongestIdleFirst)
		assert.Equal(t, []string{"0005", "0002", "0009"}, sortedIDs(players))
	})
}

func TestPairWaiting(t *testing.T) {
	t.Parallel()

	t.Run("disjoint pairs from clean history", func(t *testing.T) {
		t.Parallel()

		history := NewMatchHistoryLedger()
		waiting := []domain.Player{
			playerWithRecord("0001", 0, nil),
			playerWithRecord("0002", 0, nil),
			playerWithRecord("0003", 0, nil),
			playerWithRecord("0004", 0, nil),
		}

		pairs, skipped := pairWaiting(waiting, history)
		require.Len(t, pairs, 2)
		require.Empty(t, skipped)
		assert.Equal(t, "0001", pairs[0][0].ID)
		assert.Equal(t, "0002", pairs[0][1].ID)
		assert.Equal(t, "0003", pairs[1][0].ID)
		assert.Equal(t, "0004", pairs[1][1].ID)
	})

	t.Run("rematch avoided", func(t *testing.T) {
		t.Parallel()

		history := NewMatchHistoryLedger()
		history.Append(domain.MatchRecord{WinnerID: "0001", LoserID: "0002"})

		waiting := []domain.Player{
			playerWithRecord("0001", 1, nil),
			playerWithRecord("0002", 0, nil),
			playerWithRecord("0003", 0, nil),
		}

		pairs, skipped := pairWaiting(waiting, history)
		require.Len(t, pairs, 1)
		assert.Equal(t, "0001", pairs[0][0].ID)
		assert.Equal(t, "0003", pairs[0][1].ID)
		require.Empty(t, skipped)
	})

	t.Run("no eligible opponent sets player aside", func(t *testing.T) {
		t.Parallel()

		history := NewMatchHistoryLedger()
		history.Append(domain.MatchRecord{WinnerID: "0001", LoserID: "0002"})

		waiting := []domain.Player{
			playerWithRecord("0001", 1, nil),
			playerWithRecord("0002", 0, nil),
		}

		pairs, skipped := pairWaiting(waiting, history)
		require.Empty(t, pairs)
		// 0001 is set aside, leaving fewer than two in the pool.
		assert.Equal(t, []string{"0001"}, skipped)
	})

	t.Run("skipped player is not requeued within the run", func(t *testing.T) {
		t.Parallel()

		history := NewMatchHistoryLedger()
		history.Append(domain.MatchRecord{WinnerID: "0001", LoserID: "0002"})
		history.Append(domain.MatchRecord{WinnerID: "0001", LoserID: "0003"})

		waiting := []domain.Player{
			playerWithRecord("0001", 2, nil),
			playerWithRecord("0002", 0, nil),
			playerWithRecord("0003", 0, nil),
		}

		pairs, skipped := pairWaiting(waiting, history)
		require.Len(t, pairs, 1)
		assert.Equal(t, "0002", pairs[0][0].ID)
		assert.Equal(t, "0003", pairs[0][1].ID)
		assert.Equal(t, []string{"0001"}, skipped)
	})
}

func TestAllocateTable(t *testing.T) {
	t.Parallel()

	p1 := playerWithRecord("0001", 1, nil)
	p2 := playerWithRecord("0002", 0, nil)

	t.Run("prefers priority player's last table", func(t *testing.T) {
		t.Parallel()

		tables := NewTableLedger()
		require.NoError(t, tables.Reserve(slotFor(2, "0001", "0009"), 4))
		require.NoError(t, tables.Release(2))
		require.NoError(t, tables.Reserve(slotFor(3, "0002", "0008"), 4))
		require.NoError(t, tables.Release(3))

		number, ok := allocateTable(tables, p1, p2, 4)
		require.True(t, ok)
		assert.Equal(t, 2, number)
	})

	t.Run("falls back to partner's last table", func(t *testing.T) {
		t.Parallel()

		tables := NewTableLedger()
		require.NoError(t, tables.Reserve(slotFor(2, "0001", "0009"), 4))
		require.NoError(t, tables.Reserve(slotFor(3, "0002", "0008"), 4))
		require.NoError(t, tables.Release(3))

		number, ok := allocateTable(tables, p1, p2, 4)
		require.True(t, ok)
		assert.Equal(t, 3, number)
	})

	t.Run("last table outside capacity is ignored", func(t *testing.T) {
		t.Parallel()

		tables := NewTableLedger()
		require.NoError(t, tables.Reserve(slotFor(4, "0001", "0009"), 4))
		require.NoError(t, tables.Release(4))

		number, ok := allocateTable(tables, p1, p2, 3)
		require.True(t, ok)
		assert.Equal(t, 1, number)
	})

	t.Run("fresh pair gets lowest unused table", func(t *testing.T) {
		t.Parallel()

		tables := NewTableLedger()
		number, ok := allocateTable(tables, p1, p2, 4)
		require.True(t, ok)
		assert.Equal(t, 1, number)
	})

	t.Run("no table available", func(t *testing.T) {
		t.Parallel()

		tables := NewTableLedger()
		require.NoError(t, tables.Reserve(slotFor(1, "0005", "0006"), 1))

		_, ok := allocateTable(tables, p1, p2, 1)
		require.False(t, ok)
	})
}

func slotFor(number int, p1, p2 string) domain.TableSlot {
	return domain.TableSlot{
		Number:    number,
		Player1ID: p1,
		Player2ID: p2,
		StartedAt: time.Date(2025, time.June, 14, 10, 0, 0, 0, time.UTC),
	}
}
