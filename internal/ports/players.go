package ports

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opentabletop/gunslinger/internal/app"
	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/ratelimiting"
	"github.com/opentabletop/gunslinger/internal/reporting"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

func newIPRateLimitMiddleware(refillPerSecond ratelimiting.RefillPerSecond, burstSize ratelimiting.BurstSize) func(http.HandlerFunc) http.HandlerFunc {
	limiter, _ := ratelimiting.NewTokenBucketRateLimiter(refillPerSecond, burstSize)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(limiter, ratelimiting.IPKeyFunc)

	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"cause":"rate limit exceeded"}`))
	}

	return NewRateLimitMiddleware(ipRateLimiter, onLimitExceeded)
}

func standardMiddleware(port string, rootLogger *slog.Logger, sentryMiddleware func(http.HandlerFunc) http.HandlerFunc, refillPerSecond ratelimiting.RefillPerSecond, burstSize ratelimiting.BurstSize) func(http.HandlerFunc) http.HandlerFunc {
	return ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(port),
		buildMetricsMiddleware(),
		newIPRateLimitMiddleware(refillPerSecond, burstSize),
	)
}

type registerPlayerRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type registerPlayerResponse struct {
	Success bool       `json:"success"`
	Player  playerView `json:"player"`
}

func MakeRegisterPlayerHandler(
	registerPlayer app.RegisterPlayer,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("registerplayer", rootLogger, sentryMiddleware, 4, 60)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request registerPlayerRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Success: false, Cause: "malformed request body"})
			return
		}

		ctx = logging.AddMetaToContext(ctx, slog.String("playerId", request.ID))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"playerId": request.ID,
		})

		player, err := registerPlayer(ctx, request.ID, request.Name)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusCreated, registerPlayerResponse{
			Success: true,
			Player:  playerToView(player),
		})
	}

	return middleware(handler)
}

type listPlayersResponse struct {
	Success bool         `json:"success"`
	Players []playerView `json:"players"`
}

// MakeListPlayersHandler serves the standings: every player ordered by wins
// descending.
func MakeListPlayersHandler(
	getStandings app.GetStandings,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		BuildCORSMiddleware(allowedOrigins),
		standardMiddleware("listplayers", rootLogger, sentryMiddleware, 8, 480),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		standings, err := getStandings(ctx)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		players := make([]playerView, 0, len(standings))
		for _, player := range standings {
			players = append(players, playerToView(player))
		}

		writeJSON(ctx, w, http.StatusOK, listPlayersResponse{
			Success: true,
			Players: players,
		})
	}

	return middleware(handler)
}

type updatePlayerStatusRequest struct {
	Status         string `json:"status"`
	OpponentStatus string `json:"opponentStatus,omitempty"`
}

type updatePlayerStatusResponse struct {
	Success    bool   `json:"success"`
	PlayerID   string `json:"playerId"`
	Status     string `json:"status"`
	OpponentID string `json:"opponentId,omitempty"`
}

// MakeUpdatePlayerStatusHandler applies a status transition to one player:
// resting, returning to waiting, or dropping out. Dropping a mid-match player
// frees the opponent without recording a result.
func MakeUpdatePlayerStatusHandler(
	updatePlayerState app.UpdatePlayerState,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("updateplayerstatus", rootLogger, sentryMiddleware, 4, 60)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		playerID := r.PathValue("id")

		var request updatePlayerStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Success: false, Cause: "malformed request body"})
			return
		}

		ctx = logging.AddMetaToContext(ctx,
			slog.String("playerId", playerID),
			slog.String("newStatus", request.Status),
		)
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"playerId":  playerID,
			"newStatus": request.Status,
		})

		result, err := updatePlayerState(ctx, tournament.TransitionRequest{
			TargetID:          playerID,
			NewStatus:         domain.PlayerStatus(request.Status),
			OpponentNewStatus: domain.PlayerStatus(request.OpponentStatus),
		})
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, updatePlayerStatusResponse{
			Success:    true,
			PlayerID:   playerID,
			Status:     request.Status,
			OpponentID: result.OpponentID,
		})
	}

	return middleware(handler)
}
