package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synth-exchange-stats/internal/storage"
)

func TestKeyedStore_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewKeyedStore(db, "test")
	ctx := context.Background()

	mock.ExpectGet("{test}:trades:0xabc-1").SetVal(`{"id":"0xabc-1"}`)
	mock.ExpectGet("{test}:trades:missing").RedisNil()
	mock.ExpectGet("{test}:trades:broken").SetErr(errors.New("connection reset"))

	value, err := store.Load(ctx, storage.CollectionTrades, "0xabc-1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"0xabc-1"}`, string(value))

	_, err = store.Load(ctx, storage.CollectionTrades, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Load(ctx, storage.CollectionTrades, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyedStore_SaveRunsScript(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewKeyedStore(db, "test")
	ctx := context.Background()

	writes := []storage.Write{{Op: storage.OpSave, Collection: storage.CollectionCheckpoints, Key: "cursor", Value: []byte(`{}`)}}
	keys, args, err := store.scriptInput(writes)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"{test}:checkpoints:cursor",
		"{test}:_index:checkpoints",
		"{test}:_collections",
	}, keys)

	mock.ExpectEvalSha(applyScript.Hash(), keys, args...).SetVal(int64(1))

	err = store.Save(ctx, storage.CollectionCheckpoints, "cursor", []byte(`{}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyedStore_InsertDuplicate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewKeyedStore(db, "test")
	ctx := context.Background()

	writes := []storage.Write{{Op: storage.OpInsert, Collection: storage.CollectionTrades, Key: "0xabc-1", Value: []byte(`{}`)}}
	keys, args, err := store.scriptInput(writes)
	require.NoError(t, err)

	mock.ExpectEvalSha(applyScript.Hash(), keys, args...).SetVal(int64(0))

	err = store.Insert(ctx, storage.CollectionTrades, "0xabc-1", []byte(`{}`))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyedStore_ApplyRejectsEmptyKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewKeyedStore(db, "")

	err := store.Apply(context.Background(), []storage.Write{
		{Op: storage.OpSave, Collection: storage.CollectionTrades, Key: "a"},
		{Op: storage.OpSave, Collection: storage.CollectionTrades, Key: ""},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyedStore_ApplyEmptyBatch(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewKeyedStore(db, "")

	require.NoError(t, store.Apply(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyedStore_ScriptInputOrder(t *testing.T) {
	store := NewKeyedStore(nil, "")

	keys, args, err := store.scriptInput([]storage.Write{
		{Op: storage.OpInsert, Collection: storage.CollectionTrades, Key: "t1", Value: []byte("a")},
		{Op: storage.OpSave, Collection: storage.CollectionLatestRates, Key: "sETH", Value: []byte("b")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"{synthstats}:trades:t1", "{synthstats}:_index:trades", "{synthstats}:_collections",
		"{synthstats}:latest_rates:sETH", "{synthstats}:_index:latest_rates", "{synthstats}:_collections",
	}, keys)
	assert.Equal(t, []interface{}{
		"insert", []byte("a"), "t1", "trades",
		"save", []byte("b"), "sETH", "latest_rates",
	}, args)
}

func TestKeyedStore_KeysSorted(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewKeyedStore(db, "test")
	ctx := context.Background()

	mock.ExpectSMembers("{test}:_index:totals_daily").SetVal([]string{"1600041600", "1599955200", "1600128000"})

	keys, err := store.Keys(ctx, storage.AggregateCollection("daily"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1599955200", "1600041600", "1600128000"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyedStore_Collections(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewKeyedStore(db, "test")

	mock.ExpectSMembers("{test}:_collections").SetVal([]string{"trades", "checkpoints"})

	got, err := store.Collections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []storage.Collection{storage.CollectionCheckpoints, storage.CollectionTrades}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
