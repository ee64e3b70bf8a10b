package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/reporting"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

// statusCodeForError maps domain sentinels to HTTP status codes. Unknown
// errors are internal.
func statusCodeForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrPlayerNotFound), errors.Is(err, domain.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicatePlayer), errors.Is(err, domain.ErrPlayerDropped):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidValue), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLockContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func causeForError(err error) string {
	switch {
	case errors.Is(err, domain.ErrPlayerNotFound):
		return "player not found"
	case errors.Is(err, domain.ErrMatchNotFound):
		return "match not found"
	case errors.Is(err, domain.ErrDuplicatePlayer):
		return "player already registered"
	case errors.Is(err, domain.ErrPlayerDropped):
		return "player has dropped"
	case errors.Is(err, domain.ErrInvalidValue):
		return "invalid value"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid status transition"
	case errors.Is(err, domain.ErrLockContention):
		return "temporarily unavailable"
	default:
		return "internal server error"
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode := statusCodeForError(err)
	if statusCode == http.StatusInternalServerError {
		reporting.Report(ctx, err)
	}
	writeJSON(ctx, w, statusCode, errorResponse{Success: false, Cause: causeForError(err)})
}

type playerView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	MatchesPlayed int     `json:"matchesPlayed"`
	Status        string  `json:"status"`
	LastMatchAt   *string `json:"lastMatchAt"`
}

func playerToView(player domain.Player) playerView {
	var lastMatchAt *string
	if player.LastMatchAt != nil {
		formatted := player.LastMatchAt.UTC().Format(time.RFC3339)
		lastMatchAt = &formatted
	}
	return playerView{
		ID:            player.ID,
		Name:          player.Name,
		Wins:          player.Wins,
		Losses:        player.Losses,
		MatchesPlayed: player.MatchesPlayed,
		Status:        string(player.Status),
		LastMatchAt:   lastMatchAt,
	}
}

type matchView struct {
	ID              int64  `json:"id"`
	TableNumber     int    `json:"tableNumber"`
	WinnerID        string `json:"winnerId"`
	WinnerName      string `json:"winnerName"`
	LoserID         string `json:"loserId"`
	LoserName       string `json:"loserName"`
	CompletedAt     string `json:"completedAt"`
	DurationSeconds int64  `json:"durationSeconds"`
	Corrected       bool   `json:"corrected"`
}

func matchToView(record domain.MatchRecord) matchView {
	return matchView{
		ID:              record.ID,
		TableNumber:     record.TableNumber,
		WinnerID:        record.WinnerID,
		WinnerName:      record.WinnerName,
		LoserID:         record.LoserID,
		LoserName:       record.LoserName,
		CompletedAt:     record.CompletedAt.UTC().Format(time.RFC3339),
		DurationSeconds: int64(record.Duration.Seconds()),
		Corrected:       record.Corrected,
	}
}

type tableView struct {
	TableNumber    int    `json:"tableNumber"`
	Player1ID      string `json:"player1Id"`
	Player1Name    string `json:"player1Name"`
	Player2ID      string `json:"player2Id"`
	Player2Name    string `json:"player2Name"`
	StartedAt      string `json:"startedAt"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
}

func tableToView(table tournament.ActiveTable) tableView {
	return tableView{
		TableNumber:    table.Number,
		Player1ID:      table.Player1ID,
		Player1Name:    table.Player1Name,
		Player2ID:      table.Player2ID,
		Player2Name:    table.Player2Name,
		StartedAt:      table.StartedAt.UTC().Format(time.RFC3339),
		ElapsedSeconds: int64(table.Elapsed.Seconds()),
	}
}
