package ports

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

var noopSentryMiddleware = func(next http.HandlerFunc) http.HandlerFunc {
	return next
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrigins(t *testing.T) *DomainSuffixes {
	t.Helper()
	origins, err := NewDomainSuffixes("example.com")
	require.NoError(t, err)
	return origins
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}

func TestRegisterPlayerHandler(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		handler := MakeRegisterPlayerHandler(
			func(ctx context.Context, rawID, name string) (domain.Player, error) {
				require.Equal(t, "7", rawID)
				require.Equal(t, "Doc Holliday", name)
				return domain.Player{
					ID:     "0007",
					Name:   "Doc Holliday",
					Status: domain.StatusWaiting,
				}, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/players", strings.NewReader(`{"id":"7","name":"Doc Holliday"}`))
		handler(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var response registerPlayerResponse
		decodeBody(t, w, &response)
		require.True(t, response.Success)
		assert.Equal(t, "0007", response.Player.ID)
		assert.Equal(t, "Doc Holliday", response.Player.Name)
		assert.Equal(t, "waiting", response.Player.Status)
		assert.Nil(t, response.Player.LastMatchAt)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		called := false
		handler := MakeRegisterPlayerHandler(
			func(ctx context.Context, rawID, name string) (domain.Player, error) {
				called = true
				return domain.Player{}, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/players", strings.NewReader(`{not json`))
		handler(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.False(t, called)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		t.Parallel()

		handler := MakeRegisterPlayerHandler(
			func(ctx context.Context, rawID, name string) (domain.Player, error) {
				return domain.Player{}, domain.ErrDuplicatePlayer
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/players", strings.NewReader(`{"id":"7","name":"Doc"}`))
		handler(w, req)

		require.Equal(t, http.StatusConflict, w.Code)
		var response errorResponse
		decodeBody(t, w, &response)
		require.False(t, response.Success)
		assert.Equal(t, "player already registered", response.Cause)
	})
}

func TestListPlayersHandler(t *testing.T) {
	t.Parallel()

	lastMatch := time.Date(2025, 6, 14, 11, 30, 0, 0, time.UTC)

	handler := MakeListPlayersHandler(
		func(ctx context.Context) ([]domain.Player, error) {
			return []domain.Player{
				{ID: "0002", Name: "Annie", Wins: 3, Losses: 1, MatchesPlayed: 4, Status: domain.StatusInProgress, LastMatchAt: &lastMatch},
				{ID: "0001", Name: "Wyatt", Wins: 2, Losses: 2, MatchesPlayed: 4, Status: domain.StatusWaiting},
			}, nil
		},
		testOrigins(t),
		testLogger(),
		noopSentryMiddleware,
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/players", nil)
	handler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response listPlayersResponse
	decodeBody(t, w, &response)
	require.True(t, response.Success)
	require.Len(t, response.Players, 2)
	assert.Equal(t, "0002", response.Players[0].ID)
	require.NotNil(t, response.Players[0].LastMatchAt)
	assert.Equal(t, "2025-06-14T11:30:00Z", *response.Players[0].LastMatchAt)
	assert.Equal(t, "0001", response.Players[1].ID)
	assert.Nil(t, response.Players[1].LastMatchAt)
}

func TestUpdatePlayerStatusHandler(t *testing.T) {
	t.Parallel()

	t.Run("rest", func(t *testing.T) {
		t.Parallel()

		handler := MakeUpdatePlayerStatusHandler(
			func(ctx context.Context, req tournament.TransitionRequest) (tournament.TransitionResult, error) {
				require.Equal(t, "0007", req.TargetID)
				require.Equal(t, domain.StatusResting, req.NewStatus)
				require.False(t, req.RecordResult)
				return tournament.TransitionResult{}, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/players/0007/status", strings.NewReader(`{"status":"resting"}`))
		req.SetPathValue("id", "0007")
		handler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response updatePlayerStatusResponse
		decodeBody(t, w, &response)
		require.True(t, response.Success)
		assert.Equal(t, "0007", response.PlayerID)
		assert.Equal(t, "resting", response.Status)
		assert.Empty(t, response.OpponentID)
	})

	t.Run("drop mid-match frees opponent", func(t *testing.T) {
		t.Parallel()

		handler := MakeUpdatePlayerStatusHandler(
			func(ctx context.Context, req tournament.TransitionRequest) (tournament.TransitionResult, error) {
				require.Equal(t, domain.StatusDropped, req.NewStatus)
				return tournament.TransitionResult{OpponentID: "0003", RematchNeeded: true}, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/players/0007/status", strings.NewReader(`{"status":"dropped"}`))
		req.SetPathValue("id", "0007")
		handler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response updatePlayerStatusResponse
		decodeBody(t, w, &response)
		assert.Equal(t, "0003", response.OpponentID)
	})

	t.Run("invalid transition", func(t *testing.T) {
		t.Parallel()

		handler := MakeUpdatePlayerStatusHandler(
			func(ctx context.Context, req tournament.TransitionRequest) (tournament.TransitionResult, error) {
				return tournament.TransitionResult{}, domain.ErrInvalidTransition
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/players/0007/status", strings.NewReader(`{"status":"in_progress"}`))
		req.SetPathValue("id", "0007")
		handler(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var response errorResponse
		decodeBody(t, w, &response)
		assert.Equal(t, "invalid status transition", response.Cause)
	})
}

func TestReportMatchResultHandler(t *testing.T) {
	t.Parallel()

	completedAt := time.Date(2025, 6, 14, 11, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		handler := MakeReportMatchResultHandler(
			func(ctx context.Context, reporterID string, reporterWon bool) (tournament.TransitionResult, error) {
				require.Equal(t, "0007", reporterID)
				require.True(t, reporterWon)
				return tournament.TransitionResult{
					OpponentID: "0003",
					Match: &domain.MatchRecord{
						ID:          12,
						TableNumber: 4,
						WinnerID:    "0007",
						WinnerName:  "Doc",
						LoserID:     "0003",
						LoserName:   "Wyatt",
						CompletedAt: completedAt,
						Duration:    35 * time.Minute,
					},
				}, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/matches/result", strings.NewReader(`{"reporterId":"0007","won":true}`))
		handler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response reportMatchResultResponse
		decodeBody(t, w, &response)
		require.True(t, response.Success)
		assert.Equal(t, "0003", response.OpponentID)
		assert.Equal(t, int64(12), response.Match.ID)
		assert.Equal(t, "0007", response.Match.WinnerID)
		assert.Equal(t, "2025-06-14T11:00:00Z", response.Match.CompletedAt)
		assert.Equal(t, int64(35*60), response.Match.DurationSeconds)
	})

	t.Run("unknown reporter", func(t *testing.T) {
		t.Parallel()

		handler := MakeReportMatchResultHandler(
			func(ctx context.Context, reporterID string, reporterWon bool) (tournament.TransitionResult, error) {
				return tournament.TransitionResult{}, domain.ErrPlayerNotFound
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/matches/result", strings.NewReader(`{"reporterId":"9999","won":false}`))
		handler(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCorrectMatchHandler(t *testing.T) {
	t.Parallel()

	completedAt := time.Date(2025, 6, 14, 11, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		handler := MakeCorrectMatchHandler(
			func(ctx context.Context, matchID int64) (domain.MatchRecord, error) {
				require.Equal(t, int64(12), matchID)
				return domain.MatchRecord{
					ID:          12,
					TableNumber: 4,
					WinnerID:    "0003",
					WinnerName:  "Wyatt",
					LoserID:     "0007",
					LoserName:   "Doc",
					CompletedAt: completedAt,
					Duration:    35 * time.Minute,
					Corrected:   true,
				}, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/matches/12/correct", nil)
		req.SetPathValue("id", "12")
		handler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response correctMatchResponse
		decodeBody(t, w, &response)
		require.True(t, response.Success)
		assert.Equal(t, "0003", response.Match.WinnerID)
		assert.True(t, response.Match.Corrected)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		t.Parallel()

		called := false
		handler := MakeCorrectMatchHandler(
			func(ctx context.Context, matchID int64) (domain.MatchRecord, error) {
				called = true
				return domain.MatchRecord{}, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/matches/abc/correct", nil)
		req.SetPathValue("id", "abc")
		handler(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.False(t, called)
	})

	t.Run("unknown match", func(t *testing.T) {
		t.Parallel()

		handler := MakeCorrectMatchHandler(
			func(ctx context.Context, matchID int64) (domain.MatchRecord, error) {
				return domain.MatchRecord{}, domain.ErrMatchNotFound
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/matches/99/correct", nil)
		req.SetPathValue("id", "99")
		handler(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
		var response errorResponse
		decodeBody(t, w, &response)
		assert.Equal(t, "match not found", response.Cause)
	})
}

func TestListTablesHandler(t *testing.T) {
	t.Parallel()

	startedAt := time.Date(2025, 6, 14, 10, 45, 0, 0, time.UTC)

	handler := MakeListTablesHandler(
		func(ctx context.Context) ([]tournament.ActiveTable, error) {
			return []tournament.ActiveTable{
				{
					TableSlot: domain.TableSlot{
						Number:      1,
						Player1ID:   "0001",
						Player1Name: "Wyatt",
						Player2ID:   "0002",
						Player2Name: "Annie",
						StartedAt:   startedAt,
					},
					Elapsed: 15 * time.Minute,
				},
			}, nil
		},
		testOrigins(t),
		testLogger(),
		noopSentryMiddleware,
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/tables", nil)
	handler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response listTablesResponse
	decodeBody(t, w, &response)
	require.True(t, response.Success)
	require.Len(t, response.Tables, 1)
	assert.Equal(t, 1, response.Tables[0].TableNumber)
	assert.Equal(t, "0001", response.Tables[0].Player1ID)
	assert.Equal(t, "2025-06-14T10:45:00Z", response.Tables[0].StartedAt)
	assert.Equal(t, int64(15*60), response.Tables[0].ElapsedSeconds)
}

func TestGetPlayerHandler(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		handler := MakeGetPlayerHandler(
			func(ctx context.Context, rawID string) (domain.Player, error) {
				require.Equal(t, "0042", rawID)
				return domain.Player{ID: "0042", Name: "Calamity", Status: domain.StatusResting}, nil
			},
			testOrigins(t),
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/v1/players/0042", nil)
		req.SetPathValue("id", "0042")
		handler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response getPlayerResponse
		decodeBody(t, w, &response)
		require.True(t, response.Success)
		assert.Equal(t, "0042", response.Player.ID)
		assert.Equal(t, "resting", response.Player.Status)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		handler := MakeGetPlayerHandler(
			func(ctx context.Context, rawID string) (domain.Player, error) {
				return domain.Player{}, domain.ErrPlayerNotFound
			},
			testOrigins(t),
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/v1/players/9999", nil)
		req.SetPathValue("id", "9999")
		handler(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRunMatchingHandler(t *testing.T) {
	t.Parallel()

	t.Run("committed pairs", func(t *testing.T) {
		t.Parallel()

		handler := MakeRunMatchingHandler(
			func(ctx context.Context) (tournament.MatchingOutcome, bool, error) {
				return tournament.MatchingOutcome{
					Committed: []tournament.CommittedPair{
						{Player1ID: "0001", Player1Name: "Wyatt", Player2ID: "0002", Player2Name: "Annie", TableNumber: 1},
					},
					SkippedNoOpponent: []string{"0003"},
				}, false, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/matching/run", nil)
		handler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response runMatchingResponse
		decodeBody(t, w, &response)
		require.True(t, response.Success)
		require.False(t, response.Deferred)
		require.Len(t, response.Outcome.Committed, 1)
		assert.Equal(t, 1, response.Outcome.Committed[0].TableNumber)
		assert.Equal(t, []string{"0003"}, response.Outcome.SkippedNoOpponent)
	})

	t.Run("deferred", func(t *testing.T) {
		t.Parallel()

		handler := MakeRunMatchingHandler(
			func(ctx context.Context) (tournament.MatchingOutcome, bool, error) {
				return tournament.MatchingOutcome{}, true, nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/matching/run", nil)
		handler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response runMatchingResponse
		decodeBody(t, w, &response)
		require.True(t, response.Deferred)
		assert.Empty(t, response.Outcome.Committed)
	})
}

func TestSetMaxTablesHandler(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var applied int
		handler := MakeSetMaxTablesHandler(
			func(ctx context.Context, maxTables int) error {
				applied = maxTables
				return nil
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("PUT", "/v1/admin/max-tables", strings.NewReader(`{"maxTables":12}`))
		handler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, 12, applied)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		handler := MakeSetMaxTablesHandler(
			func(ctx context.Context, maxTables int) error {
				return domain.ErrInvalidValue
			},
			testLogger(),
			noopSentryMiddleware,
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("PUT", "/v1/admin/max-tables", strings.NewReader(`{"maxTables":0}`))
		handler(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var response errorResponse
		decodeBody(t, w, &response)
		assert.Equal(t, "invalid value", response.Cause)
	})
}

func TestSetMaintenanceHandler(t *testing.T) {
	t.Parallel()

	var enabled bool
	handler := MakeSetMaintenanceHandler(
		func(ctx context.Context, value bool) error {
			enabled = value
			return nil
		},
		testLogger(),
		noopSentryMiddleware,
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/v1/admin/maintenance", strings.NewReader(`{"enabled":true}`))
	handler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, enabled)
}
