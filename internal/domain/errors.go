package domain

import "errors"

var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrDuplicatePlayer = errors.New("player already registered")
	ErrPlayerDropped   = errors.New("player has dropped out")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidValue      = errors.New("invalid value")

	// ErrLockContention is returned when the exclusion lock could not be
	// acquired within the bounded wait. Callers surface it and let the
	// operator retry; it is never retried internally.
	ErrLockContention = errors.New("operation lock busy")

	// ErrDataConsistency marks a broken invariant, e.g. an in-progress player
	// with no paired opponent in the table ledger.
	ErrDataConsistency = errors.New("inconsistent tournament state")

	// ErrStructural marks a record store whose required columns are missing.
	ErrStructural = errors.New("ledger schema invalid")
)
