package ports

import (
	"log/slog"
	"net/http"

	"github.com/opentabletop/gunslinger/internal/app"
)

type listTablesResponse struct {
	Success bool        `json:"success"`
	Tables  []tableView `json:"tables"`
}

// MakeListTablesHandler serves the current table assignments for the venue
// display. This is the highest-traffic endpoint, so it gets the widest rate
// limit.
func MakeListTablesHandler(
	getActiveTables app.GetActiveTables,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		BuildCORSMiddleware(allowedOrigins),
		standardMiddleware("listtables", rootLogger, sentryMiddleware, 8, 480),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		activeTables, err := getActiveTables(ctx)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		tables := make([]tableView, 0, len(activeTables))
		for _, table := range activeTables {
			tables = append(tables, tableToView(table))
		}

		writeJSON(ctx, w, http.StatusOK, listTablesResponse{
			Success: true,
			Tables:  tables,
		})
	}

	return middleware(handler)
}

type getPlayerResponse struct {
	Success bool       `json:"success"`
	Player  playerView `json:"player"`
}

func MakeGetPlayerHandler(
	getPlayer app.GetPlayer,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		BuildCORSMiddleware(allowedOrigins),
		standardMiddleware("getplayer", rootLogger, sentryMiddleware, 8, 120),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		player, err := getPlayer(ctx, r.PathValue("id"))
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, getPlayerResponse{
			Success: true,
			Player:  playerToView(player),
		})
	}

	return middleware(handler)
}
