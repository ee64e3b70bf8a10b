package domain

import (
	"time"
)

type MatchRecord struct {
	ID          int64
	TableNumber int

	WinnerID   string
	WinnerName string
	LoserID    string
	LoserName  string

	CompletedAt time.Time
	Duration    time.Duration

	// Set by the correction transaction when winner/loser were swapped after
	// the fact.
	Corrected bool
}
