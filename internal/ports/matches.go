package ports

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/opentabletop/gunslinger/internal/app"
	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/reporting"
)

type reportMatchResultRequest struct {
	ReporterID string `json:"reporterId"`
	Won        bool   `json:"won"`
}

type reportMatchResultResponse struct {
	Success    bool      `json:"success"`
	Match      matchView `json:"match"`
	OpponentID string    `json:"opponentId"`
}

func MakeReportMatchResultHandler(
	reportMatchResult app.ReportMatchResult,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("reportmatchresult", rootLogger, sentryMiddleware, 4, 60)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request reportMatchResultRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Success: false, Cause: "malformed request body"})
			return
		}

		ctx = logging.AddMetaToContext(ctx,
			slog.String("reporterId", request.ReporterID),
			slog.Bool("won", request.Won),
		)
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"reporterId": request.ReporterID,
			"won":        strconv.FormatBool(request.Won),
		})

		result, err := reportMatchResult(ctx, request.ReporterID, request.Won)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, reportMatchResultResponse{
			Success:    true,
			Match:      matchToView(*result.Match),
			OpponentID: result.OpponentID,
		})
	}

	return middleware(handler)
}

type correctMatchResponse struct {
	Success bool      `json:"success"`
	Match   matchView `json:"match"`
}

// MakeCorrectMatchHandler swaps winner and loser on a completed match.
func MakeCorrectMatchHandler(
	correctMatch app.CorrectMatch,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := standardMiddleware("correctmatch", rootLogger, sentryMiddleware, 2, 30)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rawMatchID := r.PathValue("id")

		matchID, err := strconv.ParseInt(rawMatchID, 10, 64)
		if err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Success: false, Cause: "invalid match id"})
			return
		}

		ctx = logging.AddMetaToContext(ctx, slog.Int64("matchId", matchID))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"matchId": rawMatchID,
		})

		corrected, err := correctMatch(ctx, matchID)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, correctMatchResponse{
			Success: true,
			Match:   matchToView(corrected),
		})
	}

	return middleware(handler)
}
