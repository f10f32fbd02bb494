package storage

import (
	"context"

	"synth-exchange-stats/internal/domain"
)

// Collection names an independent keyed collection of one entity type.
type Collection string

// Entity collections.
const (
	CollectionTrades        Collection = "trades"
	CollectionSettlements   Collection = "settlements"
	CollectionFeeParameters Collection = "fee_parameters"
	CollectionLatestRates   Collection = "latest_rates"
	CollectionCheckpoints   Collection = "checkpoints"
)

// AggregateCollection is the collection of totals for a granularity.
func AggregateCollection(g domain.Granularity) Collection {
	return Collection("totals_" + string(g))
}

// TraderCollection is the collection of trader-seen markers for a granularity.
func TraderCollection(g domain.Granularity) Collection {
	return Collection("traders_" + string(g))
}

// Op is the kind of a staged write.
type Op int

// Write operations.
const (
	// OpSave upserts by key.
	OpSave Op = iota
	// OpInsert writes once; the batch fails with ErrDuplicateKey if the key exists.
	OpInsert
)

// Write is one keyed write in an atomic batch.
type Write struct {
	Op         Op
	Collection Collection
	Key        string
	Value      []byte
}

// KeyedStore persists encoded records by (collection, key).
type KeyedStore interface {
	// Load retrieves the value under key. Returns ErrNotFound if not exists.
	Load(ctx context.Context, c Collection, key string) ([]byte, error)

	// Save upserts value under key.
	Save(ctx context.Context, c Collection, key string, value []byte) error

	// Insert adds value under key. Returns ErrDuplicateKey if key exists.
	Insert(ctx context.Context, c Collection, key string, value []byte) error

	// Apply performs all writes atomically. Fails entire batch on any duplicate insert.
	Apply(ctx context.Context, writes []Write) error

	// Keys retrieves all keys of a collection in ascending byte order.
	Keys(ctx context.Context, c Collection) ([]string, error)

	// Collections retrieves all non-empty collections in ascending order.
	Collections(ctx context.Context) ([]Collection, error)
}

// TradeStore provides access to trade records.
type TradeStore interface {
	// InsertTrade adds a trade. Returns ErrDuplicateKey if the id exists.
	InsertTrade(ctx context.Context, t *domain.TradeRecord) error

	// GetTrade retrieves a trade by id. Returns ErrNotFound if not exists.
	GetTrade(ctx context.Context, id string) (*domain.TradeRecord, error)
}

// SettlementStore provides access to reclaim and rebate records.
type SettlementStore interface {
	// InsertSettlement adds a record. Returns ErrDuplicateKey if the id exists.
	InsertSettlement(ctx context.Context, s *domain.SettlementRecord) error

	// GetSettlement retrieves a record by id. Returns ErrNotFound if not exists.
	GetSettlement(ctx context.Context, id string) (*domain.SettlementRecord, error)
}

// FeeParameterStore provides access to per-currency fee fractions.
type FeeParameterStore interface {
	// SaveFeeParameter overwrites the fee for the currency.
	SaveFeeParameter(ctx context.Context, f *domain.FeeParameter) error

	// GetFeeParameter retrieves the fee for a currency. Returns ErrNotFound if not exists.
	GetFeeParameter(ctx context.Context, currency string) (*domain.FeeParameter, error)
}

// RateStore provides access to the latest rate per currency.
type RateStore interface {
	// SaveLatestRate overwrites the rate for the currency.
	SaveLatestRate(ctx context.Context, r *domain.LatestRate) error

	// GetLatestRate retrieves the rate for a currency. Returns ErrNotFound if not exists.
	GetLatestRate(ctx context.Context, currency string) (*domain.LatestRate, error)
}

// AggregateStore provides access to aggregate totals.
type AggregateStore interface {
	// LoadOrInit retrieves the total for a bucket, or a zeroed total if none was saved yet.
	LoadOrInit(ctx context.Context, g domain.Granularity, key string) (*domain.AggregateTotal, error)

	// SaveAggregate upserts a total under its granularity and key.
	SaveAggregate(ctx context.Context, a *domain.AggregateTotal) error

	// GetAggregate retrieves a saved total. Returns ErrNotFound if not exists.
	GetAggregate(ctx context.Context, g domain.Granularity, key string) (*domain.AggregateTotal, error)

	// ListAggregates retrieves all totals of a granularity, ordered by key.
	ListAggregates(ctx context.Context, g domain.Granularity) ([]*domain.AggregateTotal, error)
}

// TraderSeenStore provides access to per-bucket trader membership.
type TraderSeenStore interface {
	// InsertTraderSeen marks membership. Returns ErrDuplicateKey if already a member.
	InsertTraderSeen(ctx context.Context, ts *domain.TraderSeen) error

	// HasTraderSeen reports whether the account is a member of the bucket.
	HasTraderSeen(ctx context.Context, g domain.Granularity, bucketKey, account string) (bool, error)
}

// CheckpointStore provides access to the replay cursor.
type CheckpointStore interface {
	// SaveCheckpoint overwrites the cursor.
	SaveCheckpoint(ctx context.Context, cp *domain.Checkpoint) error

	// GetCheckpoint retrieves the cursor. Returns ErrNotFound if none was saved.
	GetCheckpoint(ctx context.Context) (*domain.Checkpoint, error)
}
