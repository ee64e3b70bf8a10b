package recordstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opentabletop/gunslinger/internal/domain"
)

// Memory is a process-local Store used in development when no database is
// reachable. State does not survive a restart.
type Memory struct {
	mu sync.Mutex

	players      map[string]domain.Player
	playerOrder  []string
	matches      map[int64]domain.MatchRecord
	activeTables map[int]domain.TableSlot
	corrections  []int64
}

func NewMemory() *Memory {
	return &Memory{
		players:      make(map[string]domain.Player),
		matches:      make(map[int64]domain.MatchRecord),
		activeTables: make(map[int]domain.TableSlot),
	}
}

func (m *Memory) AppendPlayer(ctx context.Context, player domain.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[player.ID]; ok {
		return fmt.Errorf("append player: %w: %s", domain.ErrDuplicatePlayer, player.ID)
	}
	m.players[player.ID] = player
	m.playerOrder = append(m.playerOrder, player.ID)
	return nil
}

func (m *Memory) UpdatePlayer(ctx context.Context, player domain.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[player.ID]; !ok {
		return fmt.Errorf("update player: %w: %s", domain.ErrPlayerNotFound, player.ID)
	}
	m.players[player.ID] = player
	return nil
}

func (m *Memory) AppendMatch(ctx context.Context, record domain.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.matches[record.ID] = record
	return nil
}

func (m *Memory) UpdateMatch(ctx context.Context, record domain.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.matches[record.ID]; !ok {
		return fmt.Errorf("update match: %w: %d", domain.ErrMatchNotFound, record.ID)
	}
	m.matches[record.ID] = record
	return nil
}

func (m *Memory) AppendCorrection(ctx context.Context, matchID int64, correctedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.corrections = append(m.corrections, matchID)
	return nil
}

func (m *Memory) UpsertActiveTable(ctx context.Context, slot domain.TableSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activeTables[slot.Number] = slot
	return nil
}

func (m *Memory) ClearActiveTable(ctx context.Context, tableNumber int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.activeTables, tableNumber)
	return nil
}

func (m *Memory) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := make([]domain.Player, 0, len(m.playerOrder))
	for _, id := range m.playerOrder {
		players = append(players, m.players[id])
	}
	return players, nil
}

func (m *Memory) ListMatches(ctx context.Context) ([]domain.MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]domain.MatchRecord, 0, len(m.matches))
	for _, record := range m.matches {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (m *Memory) ListActiveTables(ctx context.Context) ([]domain.TableSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slots := make([]domain.TableSlot, 0, len(m.activeTables))
	for _, slot := range m.activeTables {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Number < slots[j].Number
	})
	return slots, nil
}

var _ Store = &Memory{}
