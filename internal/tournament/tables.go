package tournament

import (
	"fmt"
	"sort"

	"github.com/opentabletop/gunslinger/internal/domain"
)

// TableLedger tracks the bounded pool of numbered tables: current occupancy,
// which table numbers have ever been set up, and the last table each player
// lineage played on. Not safe for concurrent use; the core serializes access.
type TableLedger struct {
	occupied map[int]*domain.TableSlot
	everUsed map[int]bool
	lastUsed map[string]int
}

func NewTableLedger() *TableLedger {
	return &TableLedger{
		occupied: make(map[int]*domain.TableSlot),
		everUsed: make(map[int]bool),
		lastUsed: make(map[string]int),
	}
}

// Reserve seats a pair at the given table. The table must be free and within
// [1, maxTables]; both players' last-used table is updated.
func (l *TableLedger) Reserve(slot domain.TableSlot, maxTables int) error {
	if !l.IsWithinCapacity(slot.Number, maxTables) {
		return fmt.Errorf("%w: table %d outside range [1, %d]", domain.ErrInvalidValue, slot.Number, maxTables)
	}
	if _, taken := l.occupied[slot.Number]; taken {
		return fmt.Errorf("%w: table %d already occupied", domain.ErrInvalidValue, slot.Number)
	}
	stored := slot
	l.occupied[slot.Number] = &stored
	l.everUsed[slot.Number] = true
	l.lastUsed[slot.Player1ID] = slot.Number
	l.lastUsed[slot.Player2ID] = slot.Number
	return nil
}

// Release vacates a table. The table number stays known for future
// reuse-preference lookups.
func (l *TableLedger) Release(tableNumber int) error {
	if _, taken := l.occupied[tableNumber]; !taken {
		return fmt.Errorf("%w: table %d not occupied", domain.ErrInvalidValue, tableNumber)
	}
	delete(l.occupied, tableNumber)
	return nil
}

func (l *TableLedger) IsFree(tableNumber int) bool {
	_, taken := l.occupied[tableNumber]
	return !taken
}

func (l *TableLedger) IsWithinCapacity(tableNumber, maxTables int) bool {
	return tableNumber >= 1 && tableNumber <= maxTables
}

// FindFree returns the best available table number: the lowest-numbered free
// previously-used table first, then the lowest never-used number within
// capacity.
func (l *TableLedger) FindFree(maxTables int) (int, bool) {
	used := make([]int, 0, len(l.everUsed))
	for number := range l.everUsed {
		used = append(used, number)
	}
	sort.Ints(used)
	for _, number := range used {
		if l.IsFree(number) && l.IsWithinCapacity(number, maxTables) {
			return number, true
		}
	}
	for number := 1; number <= maxTables; number++ {
		if !l.everUsed[number] {
			return number, true
		}
	}
	return 0, false
}

func (l *TableLedger) LastUsedTableFor(playerID string) (int, bool) {
	number, ok := l.lastUsed[playerID]
	return number, ok
}

// MaxUsedTableNumber returns the highest currently-occupied table number, or
// 0 when all tables are free. Capacity may never shrink below it.
func (l *TableLedger) MaxUsedTableNumber() int {
	max := 0
	for number := range l.occupied {
		if number > max {
			max = number
		}
	}
	return max
}

func (l *TableLedger) OccupiedCount() int {
	return len(l.occupied)
}

// SlotSeating returns a copy of the occupied slot seating the given player.
func (l *TableLedger) SlotSeating(playerID string) (domain.TableSlot, bool) {
	for _, slot := range l.occupied {
		if slot.Seats(playerID) {
			return *slot, true
		}
	}
	return domain.TableSlot{}, false
}

// OccupiedSlots returns copies of all occupied slots ordered by table number.
func (l *TableLedger) OccupiedSlots() []domain.TableSlot {
	numbers := make([]int, 0, len(l.occupied))
	for number := range l.occupied {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	slots := make([]domain.TableSlot, 0, len(numbers))
	for _, number := range numbers {
		slots = append(slots, *l.occupied[number])
	}
	return slots
}
