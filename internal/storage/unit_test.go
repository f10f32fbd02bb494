package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synth-exchange-stats/internal/storage"
	"synth-exchange-stats/internal/storage/memory"
)

func TestUnit_StagesUntilCommit(t *testing.T) {
	base := memory.NewKeyedStore()
	unit := storage.NewUnit(base)
	ctx := context.Background()

	require.NoError(t, unit.Save(ctx, "totals_daily", "0", []byte("a")))
	require.NoError(t, unit.Insert(ctx, storage.CollectionTrades, "t1", []byte("1")))
	assert.Equal(t, 2, unit.Pending())

	// Visible through the unit, not in the base
	got, err := unit.Load(ctx, "totals_daily", "0")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
	_, err = base.Load(ctx, "totals_daily", "0")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, unit.Commit(ctx))
	assert.Equal(t, 0, unit.Pending())

	got, err = base.Load(ctx, "totals_daily", "0")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

func TestUnit_Discard(t *testing.T) {
	base := memory.NewKeyedStore()
	unit := storage.NewUnit(base)
	ctx := context.Background()

	require.NoError(t, unit.Save(ctx, "totals_daily", "0", []byte("a")))
	unit.Discard()
	require.NoError(t, unit.Commit(ctx))

	_, err := base.Load(ctx, "totals_daily", "0")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUnit_InsertDuplicate(t *testing.T) {
	base := memory.NewKeyedStore()
	ctx := context.Background()
	require.NoError(t, base.Insert(ctx, storage.CollectionTrades, "stored", []byte("x")))

	unit := storage.NewUnit(base)
	assert.ErrorIs(t, unit.Insert(ctx, storage.CollectionTrades, "stored", []byte("y")), storage.ErrDuplicateKey)

	require.NoError(t, unit.Insert(ctx, storage.CollectionTrades, "staged", []byte("y")))
	assert.ErrorIs(t, unit.Insert(ctx, storage.CollectionTrades, "staged", []byte("z")), storage.ErrDuplicateKey)
}

func TestUnit_KeysMergeStagedAndStored(t *testing.T) {
	base := memory.NewKeyedStore()
	ctx := context.Background()
	require.NoError(t, base.Save(ctx, "totals_daily", "86400", []byte("x")))

	unit := storage.NewUnit(base)
	require.NoError(t, unit.Save(ctx, "totals_daily", "0", []byte("y")))
	require.NoError(t, unit.Save(ctx, "totals_daily", "86400", []byte("z")))

	keys, err := unit.Keys(ctx, "totals_daily")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "86400"}, keys)

	collections, err := unit.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storage.Collection{"totals_daily"}, collections)
}

func TestUnit_StagedValueIsCopied(t *testing.T) {
	unit := storage.NewUnit(memory.NewKeyedStore())
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, unit.Save(ctx, "c", "k", value))
	value[0] = 'z'

	got, err := unit.Load(ctx, "c", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
