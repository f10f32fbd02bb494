package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/idhash"
	"synth-exchange-stats/internal/observability"
	"synth-exchange-stats/internal/rollup"
	"synth-exchange-stats/internal/usd"
)

func (h *Handler) handleExchange(ctx context.Context, ev *domain.Event) error {
	p := ev.Exchange

	fromAmount, err := usd.ParseUnits(p.FromAmount)
	if err != nil {
		return err
	}
	toAmount, err := usd.ParseUnits(p.ToAmount)
	if err != nil {
		return err
	}

	fromRate, ok, err := h.rate(ctx, ev, p.FromCurrency)
	if err != nil || !ok {
		return err
	}
	toRate, ok, err := h.rate(ctx, ev, p.ToCurrency)
	if err != nil || !ok {
		return err
	}

	fromUSD := usd.Amount(fromAmount, fromRate)
	toUSD := usd.Amount(toAmount, toRate)
	feesUSD := usd.Fees(fromUSD, toUSD)

	trade := &domain.TradeRecord{
		ID:                 idhash.EventKey(ev.TxHash, ev.LogIndex),
		Account:            p.Account,
		From:               ev.From,
		FromCurrency:       p.FromCurrency,
		FromAmount:         fromAmount,
		FromAmountUSD:      fromUSD,
		ToCurrency:         p.ToCurrency,
		ToAmount:           toAmount,
		ToAmountUSD:        toUSD,
		DestinationAddress: p.ToAddress,
		FeesUSD:            feesUSD,
		Timestamp:          ev.Timestamp,
		BlockNumber:        ev.BlockNumber,
		GasPrice:           ev.GasPrice,
		Network:            ev.Network,
	}
	if err := h.store.InsertTrade(ctx, trade); err != nil {
		return fmt.Errorf("insert trade %s: %w", trade.ID, err)
	}
	observability.RecordTradeWritten()

	targets, err := h.rollup.Observe(ctx, rollup.Observation{
		Network:     ev.Network,
		Trader:      ev.From,
		BlockNumber: ev.BlockNumber,
		Timestamp:   ev.Timestamp,
		AmountUSD:   &fromUSD,
		FeesUSD:     &feesUSD,
	})
	if err != nil {
		return err
	}

	h.logger.Debug("exchange applied",
		zap.String("tx_hash", ev.TxHash),
		zap.Int64("log_index", ev.LogIndex),
		zap.String("from_currency", p.FromCurrency),
		zap.String("to_currency", p.ToCurrency),
		zap.String("volume_usd", fromUSD.String()),
		zap.String("fees_usd", feesUSD.String()),
		zap.Int("buckets", len(targets)),
	)
	return nil
}
