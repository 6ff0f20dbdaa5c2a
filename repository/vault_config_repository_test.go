package repository

import (
	"context"
	"testing"

	"piggyvault/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultConfigRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewVaultConfigRepository(testDB.DB)
	ctx := context.Background()

	t.Run("get returns the seeded neutral multiplier", func(t *testing.T) {
		cfg, err := repo.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, int64(10000), cfg.GlobalMultiplierBasisPoints)
	})

	t.Run("set global multiplier persists", func(t *testing.T) {
		err := repo.SetGlobalMultiplier(ctx, 15000)
		require.NoError(t, err)

		cfg, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(15000), cfg.GlobalMultiplierBasisPoints)
	})

	t.Run("repeated gets return the same row", func(t *testing.T) {
		first, err := repo.Get(ctx)
		require.NoError(t, err)
		second, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.GlobalMultiplierBasisPoints, second.GlobalMultiplierBasisPoints)
	})
}
