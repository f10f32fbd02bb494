package handler

import (
	"context"
	"fmt"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/usd"
)

func (h *Handler) handleFeeChange(ctx context.Context, ev *domain.Event) error {
	p := ev.FeeChange

	fee, err := usd.ParseUnits(p.Rate)
	if err != nil {
		return err
	}
	if err := h.store.SaveFeeParameter(ctx, &domain.FeeParameter{Currency: p.Currency, Fee: fee}); err != nil {
		return fmt.Errorf("save fee %s: %w", p.Currency, err)
	}
	return nil
}

func (h *Handler) handleRateUpdate(ctx context.Context, ev *domain.Event) error {
	p := ev.RateUpdate

	rate, err := usd.ParseUnits(p.Rate)
	if err != nil {
		return err
	}
	lr := &domain.LatestRate{
		Currency:    p.Currency,
		Rate:        rate,
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash,
	}
	if err := h.store.SaveLatestRate(ctx, lr); err != nil {
		return fmt.Errorf("save rate %s: %w", p.Currency, err)
	}
	return nil
}
