package ports

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/opentabletop/gunslinger/internal/app"
	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/reporting"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

type committedPairView struct {
	Player1ID   string `json:"player1Id"`
	Player1Name string `json:"player1Name"`
	Player2ID   string `json:"player2Id"`
	Player2Name string `json:"player2Name"`
	TableNumber int    `json:"tableNumber"`
}

type skippedPairView struct {
	Player1ID string `json:"player1Id"`
	Player2ID string `json:"player2Id"`
}

type matchingOutcomeView struct {
	Committed          []committedPairView `json:"committed"`
	SkippedNoOpponent  []string            `json:"skippedNoOpponent"`
	SkippedForCapacity []skippedPairView   `json:"skippedForCapacity"`
	InsufficientPool   bool                `json:"insufficientPool"`
	MaintenanceActive  bool                `json:"maintenanceActive"`
}

func matchingOutcomeToView(outcome tournament.MatchingOutcome) matchingOutcomeView {
	committed := make([]committedPairView, 0, len(outcome.Committed))
	for _, pair := range outcome.Committed {
		committed = append(committed, committedPairView{
			Player1ID:   pair.Player1ID,
			Player1Name: pair.Player1Name,
			Player2ID:   pair.Player2ID,
			Player2Name: pair.Player2Name,
			TableNumber: pair.TableNumber,
		})
	}
	skippedForCapacity := make([]skippedPairView, 0, len(outcome.SkippedForCapacity))
	for _, pair := range outcome.SkippedForCapacity {
		skippedForCapacity = append(skippedForCapacity, skippedPairView{
			Player1ID: pair.Player1ID,
			Player2ID: pair.Player2ID,
		})
	}
	skippedNoOpponent := outcome.SkippedNoOpponent
	if skippedNoOpponent == nil {
		skippedNoOpponent = []string{}
	}
	return matchingOutcomeView{
		Committed:          committed,
		SkippedNoOpponent:  skippedNoOpponent,
		SkippedForCapacity: skippedForCapacity,
		InsufficientPool:   outcome.InsufficientPool,
		MaintenanceActive:  outcome.MaintenanceActive,
	}
}

type runMatchingResponse struct {
	Success  bool                `json:"success"`
	Deferred bool                `json:"deferred"`
	Outcome  matchingOutcomeView `json:"outcome"`
}

// MakeRunMatchingHandler triggers a matching run. If the engine is busy the
// run is deferred to the next scheduler tick and the response says so.
func MakeRunMatchingHandler(
	requestMatching app.RequestMatching,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("runmatching", rootLogger, sentryMiddleware, 2, 30)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		outcome, deferred, err := requestMatching(ctx)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, runMatchingResponse{
			Success:  true,
			Deferred: deferred,
			Outcome:  matchingOutcomeToView(outcome),
		})
	}

	return middleware(handler)
}

type setMaxTablesRequest struct {
	MaxTables int `json:"maxTables"`
}

func MakeSetMaxTablesHandler(
	setMaxTables app.SetMaxTables,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("setmaxtables", rootLogger, sentryMiddleware, 2, 30)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request setMaxTablesRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Success: false, Cause: "malformed request body"})
			return
		}

		ctx = logging.AddMetaToContext(ctx, slog.Int("maxTables", request.MaxTables))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"maxTables": strconv.Itoa(request.MaxTables),
		})

		if err := setMaxTables(ctx, request.MaxTables); err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, struct {
			Success bool `json:"success"`
		}{Success: true})
	}

	return middleware(handler)
}

type setMaintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

// MakeSetMaintenanceHandler toggles maintenance mode. While enabled, matching
// runs commit nothing; players and results are still accepted.
func MakeSetMaintenanceHandler(
	setMaintenance app.SetMaintenance,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("setmaintenance", rootLogger, sentryMiddleware, 2, 30)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request setMaintenanceRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Success: false, Cause: "malformed request body"})
			return
		}

		ctx = logging.AddMetaToContext(ctx, slog.Bool("maintenance", request.Enabled))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"maintenance": strconv.FormatBool(request.Enabled),
		})

		if err := setMaintenance(ctx, request.Enabled); err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, struct {
			Success bool `json:"success"`
		}{Success: true})
	}

	return middleware(handler)
}
