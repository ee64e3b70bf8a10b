package app

import (
	"context"
	"testing"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRegistrarCore struct {
	t *testing.T

	registerID          string
	registerName        string
	registerCalled      bool
	registerReturn      domain.Player
	registerReturnError error

	requestMatchingCalled bool
	requestMatchingError  error
}

func (m *mockRegistrarCore) RegisterPlayer(ctx context.Context, id, name string) (domain.Player, error) {
	m.t.Helper()
	require.Equal(m.t, m.registerID, id)
	require.Equal(m.t, m.registerName, name)
	require.False(m.t, m.registerCalled)

	m.registerCalled = true
	return m.registerReturn, m.registerReturnError
}

func (m *mockRegistrarCore) RequestMatching(ctx context.Context) (tournament.MatchingOutcome, bool, error) {
	m.t.Helper()
	m.requestMatchingCalled = true
	return tournament.MatchingOutcome{}, false, m.requestMatchingError
}

func TestBuildRegisterPlayer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("raw id is normalized before registration", func(t *testing.T) {
		t.Parallel()

		expected := domain.Player{ID: "0007", Name: "Ada", Status: domain.StatusWaiting}
		core := &mockRegistrarCore{
			t:              t,
			registerID:     "0007",
			registerName:   "Ada",
			registerReturn: expected,
		}

		registerPlayer := BuildRegisterPlayer(core)

		player, err := registerPlayer(ctx, " 7 ", "Ada")
		require.NoError(t, err)
		require.Equal(t, expected, player)
		require.True(t, core.registerCalled)
		require.True(t, core.requestMatchingCalled, "registration triggers matching")
	})

	t.Run("invalid raw id rejected without touching the core", func(t *testing.T) {
		t.Parallel()

		core := &mockRegistrarCore{t: t}
		registerPlayer := BuildRegisterPlayer(core)

		_, err := registerPlayer(ctx, "abc", "Ada")
		require.ErrorIs(t, err, domain.ErrInvalidValue)
		require.False(t, core.registerCalled)
	})

	t.Run("core error propagated", func(t *testing.T) {
		t.Parallel()

		core := &mockRegistrarCore{
			t:                   t,
			registerID:          "0001",
			registerName:        "Ada",
			registerReturnError: assert.AnError,
		}
		registerPlayer := BuildRegisterPlayer(core)

		_, err := registerPlayer(ctx, "0001", "Ada")
		require.ErrorIs(t, err, assert.AnError)
		require.False(t, core.requestMatchingCalled, "no matching after failed registration")
	})

	t.Run("matching failure does not fail the registration", func(t *testing.T) {
		t.Parallel()

		core := &mockRegistrarCore{
			t:                    t,
			registerID:           "0001",
			registerName:         "Ada",
			registerReturn:       domain.Player{ID: "0001", Name: "Ada", Status: domain.StatusWaiting},
			requestMatchingError: assert.AnError,
		}
		registerPlayer := BuildRegisterPlayer(core)

		player, err := registerPlayer(ctx, "0001", "Ada")
		require.NoError(t, err)
		assert.Equal(t, "0001", player.ID)
	})
}
