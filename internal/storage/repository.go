package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/idhash"
)

const checkpointKey = "cursor"

// Repository implements the typed entity stores on top of a KeyedStore.
// Records are JSON-encoded; encoding is deterministic for a given record.
type Repository struct {
	store KeyedStore
}

// NewRepository creates a repository over a keyed store.
func NewRepository(store KeyedStore) *Repository {
	return &Repository{store: store}
}

// Store returns the underlying keyed store.
func (r *Repository) Store() KeyedStore {
	return r.store
}

// Compile-time interface checks.
var (
	_ TradeStore        = (*Repository)(nil)
	_ SettlementStore   = (*Repository)(nil)
	_ FeeParameterStore = (*Repository)(nil)
	_ RateStore         = (*Repository)(nil)
	_ AggregateStore    = (*Repository)(nil)
	_ TraderSeenStore   = (*Repository)(nil)
	_ CheckpointStore   = (*Repository)(nil)
)

func load[T any](ctx context.Context, s KeyedStore, c Collection, key string) (*T, error) {
	data, err := s.Load(ctx, c, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c, key, err)
	}
	return &v, nil
}

func encode(c Collection, key string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", c, key, err)
	}
	return data, nil
}

func (r *Repository) save(ctx context.Context, c Collection, key string, v any) error {
	data, err := encode(c, key, v)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, c, key, data)
}

func (r *Repository) insert(ctx context.Context, c Collection, key string, v any) error {
	data, err := encode(c, key, v)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, c, key, data)
}

// InsertTrade adds a trade. Returns ErrDuplicateKey if the id exists.
func (r *Repository) InsertTrade(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.ID == "" {
		return ErrInvalidInput
	}
	return r.insert(ctx, CollectionTrades, t.ID, t)
}

// GetTrade retrieves a trade by id. Returns ErrNotFound if not exists.
func (r *Repository) GetTrade(ctx context.Context, id string) (*domain.TradeRecord, error) {
	return load[domain.TradeRecord](ctx, r.store, CollectionTrades, id)
}

// InsertSettlement adds a reclaim or rebate. Returns ErrDuplicateKey if the id exists.
func (r *Repository) InsertSettlement(ctx context.Context, s *domain.SettlementRecord) error {
	if s == nil || s.ID == "" {
		return ErrInvalidInput
	}
	return r.insert(ctx, CollectionSettlements, s.ID, s)
}

// GetSettlement retrieves a reclaim or rebate by id. Returns ErrNotFound if not exists.
func (r *Repository) GetSettlement(ctx context.Context, id string) (*domain.SettlementRecord, error) {
	return load[domain.SettlementRecord](ctx, r.store, CollectionSettlements, id)
}

// SaveFeeParameter overwrites the fee for the currency.
func (r *Repository) SaveFeeParameter(ctx context.Context, f *domain.FeeParameter) error {
	if f == nil || f.Currency == "" {
		return ErrInvalidInput
	}
	return r.save(ctx, CollectionFeeParameters, f.Currency, f)
}

// GetFeeParameter retrieves the fee for a currency. Returns ErrNotFound if not exists.
func (r *Repository) GetFeeParameter(ctx context.Context, currency string) (*domain.FeeParameter, error) {
	return load[domain.FeeParameter](ctx, r.store, CollectionFeeParameters, currency)
}

// SaveLatestRate overwrites the rate for the currency.
func (r *Repository) SaveLatestRate(ctx context.Context, lr *domain.LatestRate) error {
	if lr == nil || lr.Currency == "" {
		return ErrInvalidInput
	}
	return r.save(ctx, CollectionLatestRates, lr.Currency, lr)
}

// GetLatestRate retrieves the rate for a currency. Returns ErrNotFound if not exists.
func (r *Repository) GetLatestRate(ctx context.Context, currency string) (*domain.LatestRate, error) {
	return load[domain.LatestRate](ctx, r.store, CollectionLatestRates, currency)
}

// LoadOrInit retrieves the total for a bucket. A bucket never saved before
// comes back zeroed, so callers never handle absence.
func (r *Repository) LoadOrInit(ctx context.Context, g domain.Granularity, key string) (*domain.AggregateTotal, error) {
	agg, err := load[domain.AggregateTotal](ctx, r.store, AggregateCollection(g), key)
	if errors.Is(err, ErrNotFound) {
		return domain.NewAggregateTotal(g, key), nil
	}
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// SaveAggregate upserts a total under its granularity and key.
func (r *Repository) SaveAggregate(ctx context.Context, a *domain.AggregateTotal) error {
	if a == nil || a.Key == "" || a.Granularity == "" {
		return ErrInvalidInput
	}
	return r.save(ctx, AggregateCollection(a.Granularity), a.Key, a)
}

// GetAggregate retrieves a saved total. Returns ErrNotFound if not exists.
func (r *Repository) GetAggregate(ctx context.Context, g domain.Granularity, key string) (*domain.AggregateTotal, error) {
	return load[domain.AggregateTotal](ctx, r.store, AggregateCollection(g), key)
}

// ListAggregates retrieves all totals of a granularity, ordered by key.
func (r *Repository) ListAggregates(ctx context.Context, g domain.Granularity) ([]*domain.AggregateTotal, error) {
	c := AggregateCollection(g)
	keys, err := r.store.Keys(ctx, c)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.AggregateTotal, 0, len(keys))
	for _, key := range keys {
		agg, err := load[domain.AggregateTotal](ctx, r.store, c, key)
		if err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	return result, nil
}

// InsertTraderSeen marks membership. Returns ErrDuplicateKey if already a member.
func (r *Repository) InsertTraderSeen(ctx context.Context, ts *domain.TraderSeen) error {
	if ts == nil || ts.Granularity == "" || ts.BucketKey == "" || ts.Account == "" {
		return ErrInvalidInput
	}
	return r.insert(ctx, TraderCollection(ts.Granularity), idhash.TraderKey(ts.BucketKey, ts.Account), ts)
}

// HasTraderSeen reports whether the account is a member of the bucket.
func (r *Repository) HasTraderSeen(ctx context.Context, g domain.Granularity, bucketKey, account string) (bool, error) {
	_, err := r.store.Load(ctx, TraderCollection(g), idhash.TraderKey(bucketKey, account))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveCheckpoint overwrites the cursor.
func (r *Repository) SaveCheckpoint(ctx context.Context, cp *domain.Checkpoint) error {
	if cp == nil {
		return ErrInvalidInput
	}
	return r.save(ctx, CollectionCheckpoints, checkpointKey, cp)
}

// GetCheckpoint retrieves the cursor. Returns ErrNotFound if none was saved.
func (r *Repository) GetCheckpoint(ctx context.Context) (*domain.Checkpoint, error) {
	return load[domain.Checkpoint](ctx, r.store, CollectionCheckpoints, checkpointKey)
}
