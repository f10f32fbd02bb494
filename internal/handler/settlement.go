package handler

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/idhash"
	"synth-exchange-stats/internal/observability"
	"synth-exchange-stats/internal/usd"
)

// handleSettlement records a reclaim or rebate. The record is written
// even when the rate is unavailable, with AmountUSD left unset.
// Aggregate totals are never touched.
func (h *Handler) handleSettlement(ctx context.Context, ev *domain.Event, kind domain.SettlementKind) error {
	p := ev.Settlement

	amount, err := usd.ParseUnits(p.Amount)
	if err != nil {
		return err
	}

	rate, ok, err := h.rate(ctx, ev, p.Currency)
	if err != nil {
		return err
	}

	var amountUSD *decimal.Decimal
	if ok {
		v := usd.Amount(amount, rate)
		amountUSD = &v
	}

	rec := &domain.SettlementRecord{
		ID:          idhash.EventKey(ev.TxHash, ev.LogIndex),
		Kind:        kind,
		Account:     p.Account,
		Currency:    p.Currency,
		Amount:      amount,
		AmountUSD:   amountUSD,
		Timestamp:   ev.Timestamp,
		BlockNumber: ev.BlockNumber,
		GasPrice:    ev.GasPrice,
	}
	if err := h.store.InsertSettlement(ctx, rec); err != nil {
		return fmt.Errorf("insert %s %s: %w", kind, rec.ID, err)
	}
	observability.RecordSettlementWritten(string(kind), ok)

	h.logger.Debug("settlement applied",
		zap.String("kind", string(kind)),
		zap.String("tx_hash", ev.TxHash),
		zap.String("currency", p.Currency),
		zap.Bool("priced", ok),
	)
	return nil
}
