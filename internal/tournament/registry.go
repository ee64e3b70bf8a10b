package tournament

import (
	"fmt"

	"github.com/opentabletop/gunslinger/internal/domain"
)

// PlayerRegistry is the mutable roster. It is not safe for concurrent use;
// the core serializes access through the exclusion lock.
type PlayerRegistry struct {
	byID  map[string]*domain.Player
	order []string
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		byID: make(map[string]*domain.Player),
	}
}

func (r *PlayerRegistry) Add(player domain.Player) error {
	if _, exists := r.byID[player.ID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicatePlayer, player.ID)
	}
	stored := player
	r.byID[player.ID] = &stored
	r.order = append(r.order, player.ID)
	return nil
}

// Get returns a copy of the player record. Mutations go through Put.
func (r *PlayerRegistry) Get(id string) (domain.Player, bool) {
	player, ok := r.byID[id]
	if !ok {
		return domain.Player{}, false
	}
	return *player, true
}

// Put replaces an existing player record. The player must already be
// registered; records are never deleted.
func (r *PlayerRegistry) Put(player domain.Player) error {
	existing, ok := r.byID[player.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, player.ID)
	}
	*existing = player
	return nil
}

// Waiting returns copies of all players with status Waiting, in registration
// order.
func (r *PlayerRegistry) Waiting() []domain.Player {
	waiting := make([]domain.Player, 0)
	for _, id := range r.order {
		player := r.byID[id]
		if player.Status == domain.StatusWaiting {
			waiting = append(waiting, *player)
		}
	}
	return waiting
}

func (r *PlayerRegistry) WaitingCount() int {
	count := 0
	for _, player := range r.byID {
		if player.Status == domain.StatusWaiting {
			count++
		}
	}
	return count
}

// All returns copies of every player record in registration order.
func (r *PlayerRegistry) All() []domain.Player {
	players := make([]domain.Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, *r.byID[id])
	}
	return players
}

func (r *PlayerRegistry) Len() int {
	return len(r.byID)
}
