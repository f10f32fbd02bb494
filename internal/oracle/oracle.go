// Package oracle resolves point-in-time USD rates for currencies.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"synth-exchange-stats/internal/storage"
)

// ErrPriceUnavailable is returned when no rate is known for a currency as of a transaction.
// It is expected for new or illiquid assets and never fatal.
var ErrPriceUnavailable = errors.New("price unavailable")

// DefaultStableCurrencies are pegged to one USD by definition.
var DefaultStableCurrencies = []string{"sUSD"}

// PriceOracle answers historical-price queries.
type PriceOracle interface {
	// LatestRate returns the USD rate of currency as of the given transaction.
	// Returns ErrPriceUnavailable if no rate is known.
	LatestRate(ctx context.Context, currency, txHash string) (decimal.Decimal, error)
}

// RateBook is a PriceOracle backed by the latest rate stored per currency.
// The rate feed is applied in chain order, so the stored rate is the rate as of
// the transaction being processed.
type RateBook struct {
	rates  storage.RateStore
	stable map[string]struct{}
}

// NewRateBook creates a rate book. Stable currencies always resolve to one.
func NewRateBook(rates storage.RateStore, stable []string) *RateBook {
	set := make(map[string]struct{}, len(stable))
	for _, s := range stable {
		set[s] = struct{}{}
	}
	return &RateBook{rates: rates, stable: set}
}

var _ PriceOracle = (*RateBook)(nil)

// LatestRate returns the stored rate for currency.
func (b *RateBook) LatestRate(ctx context.Context, currency, txHash string) (decimal.Decimal, error) {
	if _, ok := b.stable[currency]; ok {
		return decimal.NewFromInt(1), nil
	}

	lr, err := b.rates.GetLatestRate(ctx, currency)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: %s as of tx %s", ErrPriceUnavailable, currency, txHash)
		}
		return decimal.Zero, fmt.Errorf("load rate %s: %w", currency, err)
	}
	return lr.Rate, nil
}
