package tournament

import (
	"sort"
	"time"

	"github.com/opentabletop/gunslinger/internal/domain"
)

// TieBreak selects how players with equal win counts are ordered when
// building the pairing priority list. The canonical rule is
// TieBreakLongestIdleFirst: the player whose last match is furthest in the
// past (or who has never played) gets priority.
type TieBreak int

const (
	TieBreakLongestIdleFirst TieBreak = iota
	TieBreakMostRecentFirst
)

type CommittedPair struct {
	Player1ID   string
	Player1Name string
	Player2ID   string
	Player2Name string
	TableNumber int
}

type SkippedPair struct {
	Player1ID string
	Player2ID string
}

// MatchingOutcome reports the result of one matching run. Skipped players and
// pairs remain Waiting; neither condition is an error.
type MatchingOutcome struct {
	Committed          []CommittedPair
	SkippedNoOpponent  []string
	SkippedForCapacity []SkippedPair

	InsufficientPool  bool
	MaintenanceActive bool
}

// sortByPriority orders waiting players by win count descending, breaking
// ties on LastMatchAt per the configured rule. Remaining ties keep
// registration order.
func sortByPriority(waiting []domain.Player, tieBreak TieBreak) {
	sort.SliceStable(waiting, func(i, j int) bool {
		a, b := waiting[i], waiting[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		switch tieBreak {
		case TieBreakMostRecentFirst:
			if a.LastMatchAt == nil {
				return false
			}
			if b.LastMatchAt == nil {
				return true
			}
			return a.LastMatchAt.After(*b.LastMatchAt)
		default:
			if a.LastMatchAt == nil {
				return b.LastMatchAt != nil
			}
			if b.LastMatchAt == nil {
				return false
			}
			return a.LastMatchAt.Before(*b.LastMatchAt)
		}
	})
}

// pairWaiting greedily forms pairs from the priority-sorted pool, never
// pairing two players with a prior completed match. Players for whom no
// eligible opponent remains are set aside and not requeued within the run.
func pairWaiting(waiting []domain.Player, history *MatchHistoryLedger) (pairs [][2]domain.Player, skippedNoOpponent []string) {
	pool := make([]domain.Player, len(waiting))
	copy(pool, waiting)

	for len(pool) >= 2 {
		p1 := pool[0]
		pool = pool[1:]

		matched := false
		for i, p2 := range pool {
			if history.HavePlayed(p1.ID, p2.ID) {
				continue
			}
			pairs = append(pairs, [2]domain.Player{p1, p2})
			pool = append(pool[:i], pool[i+1:]...)
			matched = true
			break
		}
		if !matched {
			skippedNoOpponent = append(skippedNoOpponent, p1.ID)
		}
	}

	return pairs, skippedNoOpponent
}

// allocateTable picks the table for a formed pair: the priority player's
// last-used table if free and within capacity, else the partner's, else the
// ledger's best free table.
func allocateTable(tables *TableLedger, p1, p2 domain.Player, maxTables int) (int, bool) {
	for _, id := range []string{p1.ID, p2.ID} {
		number, ok := tables.LastUsedTableFor(id)
		if ok && tables.IsFree(number) && tables.IsWithinCapacity(number, maxTables) {
			return number, true
		}
	}
	return tables.FindFree(maxTables)
}

// runMatching executes one full pairing pass over the waiting pool and
// commits the accepted pairs: statuses move Waiting -> InProgress and table
// slots are reserved with the given start time. Pairs beyond the remaining
// table capacity are reported as skipped, earliest-formed pairs first.
//
// The caller must hold the status lock.
func runMatching(
	registry *PlayerRegistry,
	history *MatchHistoryLedger,
	tables *TableLedger,
	maxTables int,
	tieBreak TieBreak,
	startedAt time.Time,
) (MatchingOutcome, error) {
	outcome := MatchingOutcome{}

	waiting := registry.Waiting()
	if len(waiting) < 2 {
		outcome.InsufficientPool = true
		return outcome, nil
	}

	sortByPriority(waiting, tieBreak)
	pairs, skippedNoOpponent := pairWaiting(waiting, history)
	outcome.SkippedNoOpponent = skippedNoOpponent

	remaining := maxTables - tables.OccupiedCount()
	if remaining < 0 {
		remaining = 0
	}

	for _, pair := range pairs {
		p1, p2 := pair[0], pair[1]

		if remaining == 0 {
			outcome.SkippedForCapacity = append(outcome.SkippedForCapacity, SkippedPair{Player1ID: p1.ID, Player2ID: p2.ID})
			continue
		}

		tableNumber, found := allocateTable(tables, p1, p2, maxTables)
		if !found {
			outcome.SkippedForCapacity = append(outcome.SkippedForCapacity, SkippedPair{Player1ID: p1.ID, Player2ID: p2.ID})
			continue
		}

		slot := domain.TableSlot{
			Number:      tableNumber,
			Player1ID:   p1.ID,
			Player1Name: p1.Name,
			Player2ID:   p2.ID,
			Player2Name: p2.Name,
			StartedAt:   startedAt,
		}
		if err := tables.Reserve(slot, maxTables); err != nil {
			return MatchingOutcome{}, err
		}

		p1.Status = domain.StatusInProgress
		p2.Status = domain.StatusInProgress
		if err := registry.Put(p1); err != nil {
			return MatchingOutcome{}, err
		}
		if err := registry.Put(p2); err != nil {
			return MatchingOutcome{}, err
		}

		outcome.Committed = append(outcome.Committed, CommittedPair{
			Player1ID:   p1.ID,
			Player1Name: p1.Name,
			Player2ID:   p2.ID,
			Player2Name: p2.Name,
			TableNumber: tableNumber,
		})
		remaining--
	}

	return outcome, nil
}
