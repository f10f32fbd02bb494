// Package handler applies decoded synth events to the keyed store.
//
// Each kind is a stateless transformation from one event to a set of writes:
//   - exchange: a TradeRecord plus a fan-out to every target aggregate bucket
//   - reclaim, rebate: a SettlementRecord, USD-valued when a rate is known
//   - fee_change: the FeeParameter of the currency, last value wins
//   - rate_update: the LatestRate of the currency, last value wins
//
// A missing price aborts an exchange but not a reclaim or rebate. In both
// cases the failure is logged and Handle returns nil.
package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/observability"
	"synth-exchange-stats/internal/oracle"
	"synth-exchange-stats/internal/rollup"
	"synth-exchange-stats/internal/storage"
)

// Store is the state handlers read and write.
type Store interface {
	storage.TradeStore
	storage.SettlementStore
	storage.FeeParameterStore
	storage.RateStore
	rollup.Store
}

// Handler dispatches events by kind.
type Handler struct {
	store  Store
	oracle oracle.PriceOracle
	rollup *rollup.Rollup
	logger *zap.Logger
}

// New creates a handler. The policy is fixed for the handler's lifetime.
func New(policy rollup.Policy, store Store, prices oracle.PriceOracle, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  store,
		oracle: prices,
		rollup: rollup.New(policy, store),
		logger: logger.Named("handler"),
	}
}

// Handle applies one event. Errors other than a missing price are hard faults.
func (h *Handler) Handle(ctx context.Context, ev *domain.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	var err error
	switch ev.Kind {
	case domain.EventKindExchange:
		err = h.handleExchange(ctx, ev)
	case domain.EventKindReclaim:
		err = h.handleSettlement(ctx, ev, domain.SettlementReclaim)
	case domain.EventKindRebate:
		err = h.handleSettlement(ctx, ev, domain.SettlementRebate)
	case domain.EventKindFeeChange:
		err = h.handleFeeChange(ctx, ev)
	case domain.EventKindRateUpdate:
		err = h.handleRateUpdate(ctx, ev)
	}
	if err != nil {
		return fmt.Errorf("%s %s-%d: %w", ev.Kind, ev.TxHash, ev.LogIndex, err)
	}

	observability.RecordEventProcessed(string(ev.Kind))
	return nil
}

// rate resolves a price. ok is false when the price is unavailable, which
// has already been reported.
func (h *Handler) rate(ctx context.Context, ev *domain.Event, currency string) (decimal.Decimal, bool, error) {
	r, err := h.oracle.LatestRate(ctx, currency, ev.TxHash)
	if errors.Is(err, oracle.ErrPriceUnavailable) {
		observability.RecordPriceUnavailable(string(ev.Kind))
		h.logger.Error("price unavailable",
			zap.String("event_kind", string(ev.Kind)),
			zap.String("tx_hash", ev.TxHash),
			zap.Int64("log_index", ev.LogIndex),
			zap.Int64("block_number", ev.BlockNumber),
			zap.String("currency", currency),
		)
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return r, true, nil
}
