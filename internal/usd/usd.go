// Package usd converts raw fixed-point asset amounts into USD decimals.
package usd

import (
	"fmt"

	"github.com/shopspring/decimal"

	"synth-exchange-stats/internal/domain"
)

// Decimals is the fixed-point scale of on-chain amounts and rates.
const Decimals = 18

// ParseUnits decodes a raw base-10 integer scaled by 10^18 into an exact decimal.
// Negative or fractional raw values are malformed input.
func ParseUnits(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", domain.ErrMalformedInput, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative amount %q", domain.ErrMalformedInput, raw)
	}
	if !d.Equal(d.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("%w: fractional raw amount %q", domain.ErrMalformedInput, raw)
	}
	return d.Shift(-Decimals), nil
}

// Amount values an asset amount at price.
func Amount(amount, price decimal.Decimal) decimal.Decimal {
	return amount.Mul(price)
}

// FromRaw decodes a raw amount and values it at price.
func FromRaw(raw string, price decimal.Decimal) (decimal.Decimal, error) {
	amount, err := ParseUnits(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return Amount(amount, price), nil
}

// Fees is the USD spread consumed by an exchange.
func Fees(fromUSD, toUSD decimal.Decimal) decimal.Decimal {
	return fromUSD.Sub(toUSD)
}
