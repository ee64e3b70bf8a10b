package domain

import (
	"time"
)

type PlayerStatus string

const (
	StatusWaiting    PlayerStatus = "waiting"
	StatusInProgress PlayerStatus = "in_progress"
	StatusResting    PlayerStatus = "resting"
	StatusDropped    PlayerStatus = "dropped"
)

func (s PlayerStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusResting, StatusDropped:
		return true
	}
	return false
}

// CanTransition reports whether moving a player from one status to another is
// legal. Dropped is terminal.
func CanTransition(from, to PlayerStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == StatusDropped {
		return false
	}
	if to == StatusDropped {
		return true
	}
	switch from {
	case StatusWaiting:
		return to == StatusInProgress || to == StatusResting || to == StatusWaiting
	case StatusInProgress:
		return to == StatusWaiting || to == StatusResting
	case StatusResting:
		return to == StatusWaiting
	}
	return false
}

type Player struct {
	ID   string
	Name string

	Wins          int
	Losses        int
	MatchesPlayed int

	Status      PlayerStatus
	LastMatchAt *time.Time
}
