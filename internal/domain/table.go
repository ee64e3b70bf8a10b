package domain

import (
	"time"
)

// TableSlot is one occupied numbered table. Vacated tables are not
// represented as slots; the table ledger remembers their numbers for
// reuse-preference lookups.
type TableSlot struct {
	Number int

	Player1ID   string
	Player1Name string
	Player2ID   string
	Player2Name string

	StartedAt time.Time
}

func (s *TableSlot) Seats(playerID string) bool {
	return s.Player1ID == playerID || s.Player2ID == playerID
}

// OpponentOf returns the id of the other seated player, or "" if playerID is
// not seated at this table.
func (s *TableSlot) OpponentOf(playerID string) string {
	switch playerID {
	case s.Player1ID:
		return s.Player2ID
	case s.Player2ID:
		return s.Player1ID
	}
	return ""
}
