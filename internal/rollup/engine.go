package rollup

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/observability"
	"synth-exchange-stats/internal/storage"
)

// Engine applies observations to aggregate totals.
type Engine struct {
	store storage.AggregateStore
}

// NewEngine creates an engine over an aggregate store.
func NewEngine(store storage.AggregateStore) *Engine {
	return &Engine{store: store}
}

// Apply adds one observation to a total. USD figures are tallied only when both are present.
func Apply(agg *domain.AggregateTotal, firstTime bool, amountUSD, feesUSD *decimal.Decimal) {
	agg.TradeCount++
	if firstTime {
		agg.UniqueTraderCount++
	}
	if amountUSD != nil && feesUSD != nil {
		agg.VolumeUSD = agg.VolumeUSD.Add(*amountUSD)
		agg.FeesUSD = agg.FeesUSD.Add(*feesUSD)
	}
}

// ApplyObservation loads the total for a bucket, applies the observation and saves it back.
func (e *Engine) ApplyObservation(ctx context.Context, target Target, firstTime bool, amountUSD, feesUSD *decimal.Decimal) (*domain.AggregateTotal, error) {
	agg, err := e.store.LoadOrInit(ctx, target.Granularity, target.Key)
	if err != nil {
		return nil, fmt.Errorf("load total %s/%s: %w", target.Granularity, target.Key, err)
	}

	Apply(agg, firstTime, amountUSD, feesUSD)

	if err := e.store.SaveAggregate(ctx, agg); err != nil {
		return nil, fmt.Errorf("save total %s/%s: %w", target.Granularity, target.Key, err)
	}
	observability.RecordAggregateWrite(string(target.Granularity))
	return agg, nil
}
