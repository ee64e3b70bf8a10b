package settings_test

import (
	"context"
	"testing"

	"github.com/opentabletop/gunslinger/internal/adapters/settings"
	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySettings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := settings.NewMemory(20)
	require.NoError(t, err)

	maxTables, err := store.MaxTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, maxTables)

	require.NoError(t, store.SetMaxTables(ctx, 5))
	maxTables, err = store.MaxTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, maxTables)

	t.Run("bounds enforced", func(t *testing.T) {
		require.ErrorIs(t, store.SetMaxTables(ctx, 0), domain.ErrInvalidValue)
		require.ErrorIs(t, store.SetMaxTables(ctx, 201), domain.ErrInvalidValue)
	})

	t.Run("maintenance defaults off", func(t *testing.T) {
		enabled, err := store.MaintenanceEnabled(ctx)
		require.NoError(t, err)
		assert.False(t, enabled)

		require.NoError(t, store.SetMaintenance(ctx, true))
		enabled, err = store.MaintenanceEnabled(ctx)
		require.NoError(t, err)
		assert.True(t, enabled)
	})
}

func TestNewMemoryValidatesDefault(t *testing.T) {
	t.Parallel()

	_, err := settings.NewMemory(0)
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = settings.NewMemory(500)
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}
