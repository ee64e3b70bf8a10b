package tournament

import (
	"fmt"

	"github.com/opentabletop/gunslinger/internal/domain"
)

// MatchHistoryLedger is the append-only record of completed matches. The only
// permitted mutation is the correction transaction, which swaps winner and
// loser on an existing record. The ledger also maintains the symmetric
// past-opponents relation used for rematch avoidance. Not safe for concurrent
// use; the core serializes access.
type MatchHistoryLedger struct {
	records   []domain.MatchRecord
	indexByID map[int64]int
	opponents map[string]map[string]struct{}
	nextID    int64
}

func NewMatchHistoryLedger() *MatchHistoryLedger {
	return &MatchHistoryLedger{
		indexByID: make(map[int64]int),
		opponents: make(map[string]map[string]struct{}),
		nextID:    1,
	}
}

// Append assigns the next monotonic match id and records the match.
func (l *MatchHistoryLedger) Append(record domain.MatchRecord) domain.MatchRecord {
	record.ID = l.nextID
	l.nextID++
	l.indexByID[record.ID] = len(l.records)
	l.records = append(l.records, record)
	l.addOpponents(record.WinnerID, record.LoserID)
	return record
}

// Restore re-inserts a previously persisted record, keeping the id counter
// monotonic. Used when loading the ledger from the record store at startup.
func (l *MatchHistoryLedger) Restore(record domain.MatchRecord) error {
	if _, exists := l.indexByID[record.ID]; exists {
		return fmt.Errorf("%w: duplicate match id %d", domain.ErrDataConsistency, record.ID)
	}
	l.indexByID[record.ID] = len(l.records)
	l.records = append(l.records, record)
	l.addOpponents(record.WinnerID, record.LoserID)
	if record.ID >= l.nextID {
		l.nextID = record.ID + 1
	}
	return nil
}

func (l *MatchHistoryLedger) addOpponents(a, b string) {
	if l.opponents[a] == nil {
		l.opponents[a] = make(map[string]struct{})
	}
	if l.opponents[b] == nil {
		l.opponents[b] = make(map[string]struct{})
	}
	l.opponents[a][b] = struct{}{}
	l.opponents[b][a] = struct{}{}
}

// PastOpponents returns the set of players the given player has completed a
// match against. The returned map must not be mutated.
func (l *MatchHistoryLedger) PastOpponents(playerID string) map[string]struct{} {
	return l.opponents[playerID]
}

func (l *MatchHistoryLedger) HavePlayed(a, b string) bool {
	_, played := l.opponents[a][b]
	return played
}

func (l *MatchHistoryLedger) Get(matchID int64) (domain.MatchRecord, bool) {
	index, ok := l.indexByID[matchID]
	if !ok {
		return domain.MatchRecord{}, false
	}
	return l.records[index], true
}

// Correct swaps winner and loser on an existing record and marks it
// corrected. It returns the record before and after the swap so the caller
// can issue the compensating statistic adjustments.
func (l *MatchHistoryLedger) Correct(matchID int64) (before, after domain.MatchRecord, err error) {
	index, ok := l.indexByID[matchID]
	if !ok {
		return domain.MatchRecord{}, domain.MatchRecord{}, fmt.Errorf("%w: match %d", domain.ErrMatchNotFound, matchID)
	}
	record := l.records[index]
	before = record

	record.WinnerID, record.LoserID = record.LoserID, record.WinnerID
	record.WinnerName, record.LoserName = record.LoserName, record.WinnerName
	record.Corrected = true

	l.records[index] = record
	return before, record, nil
}

// Records returns a copy of all records in append order.
func (l *MatchHistoryLedger) Records() []domain.MatchRecord {
	records := make([]domain.MatchRecord, len(l.records))
	copy(records, l.records)
	return records
}

func (l *MatchHistoryLedger) Len() int {
	return len(l.records)
}
