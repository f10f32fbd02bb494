package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInput is returned for events the decoding layer should never have emitted.
// It is a hard fault: the event must not be applied.
var ErrMalformedInput = errors.New("malformed input")

// Validate checks the event envelope and that exactly the payload matching Kind is present.
// Raw amounts are checked separately when they are decoded.
func (e *Event) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrMalformedInput)
	}
	if e.TxHash == "" {
		return fmt.Errorf("%w: empty tx hash", ErrMalformedInput)
	}
	if e.LogIndex < 0 || e.BlockNumber < 0 || e.Timestamp < 0 {
		return fmt.Errorf("%w: negative position in tx %s", ErrMalformedInput, e.TxHash)
	}
	if e.Network == "" {
		return fmt.Errorf("%w: empty network in tx %s", ErrMalformedInput, e.TxHash)
	}

	present := 0
	for _, set := range []bool{e.Exchange != nil, e.Settlement != nil, e.FeeChange != nil, e.RateUpdate != nil} {
		if set {
			present++
		}
	}
	if present != 1 {
		return fmt.Errorf("%w: %d payloads in tx %s", ErrMalformedInput, present, e.TxHash)
	}

	switch e.Kind {
	case EventKindExchange:
		if e.Exchange == nil {
			return e.missing()
		}
		if strings.TrimSpace(e.Exchange.FromCurrency) == "" || strings.TrimSpace(e.Exchange.ToCurrency) == "" {
			return fmt.Errorf("%w: exchange without currency in tx %s", ErrMalformedInput, e.TxHash)
		}
		if e.From == "" {
			return fmt.Errorf("%w: exchange without sender in tx %s", ErrMalformedInput, e.TxHash)
		}
	case EventKindReclaim, EventKindRebate:
		if e.Settlement == nil {
			return e.missing()
		}
		if strings.TrimSpace(e.Settlement.Currency) == "" {
			return fmt.Errorf("%w: %s without currency in tx %s", ErrMalformedInput, e.Kind, e.TxHash)
		}
	case EventKindFeeChange:
		if e.FeeChange == nil {
			return e.missing()
		}
		if strings.TrimSpace(e.FeeChange.Currency) == "" {
			return fmt.Errorf("%w: fee change without currency in tx %s", ErrMalformedInput, e.TxHash)
		}
	case EventKindRateUpdate:
		if e.RateUpdate == nil {
			return e.missing()
		}
		if strings.TrimSpace(e.RateUpdate.Currency) == "" {
			return fmt.Errorf("%w: rate update without currency in tx %s", ErrMalformedInput, e.TxHash)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q in tx %s", ErrMalformedInput, e.Kind, e.TxHash)
	}
	return nil
}

func (e *Event) missing() error {
	return fmt.Errorf("%w: %s event without %s payload in tx %s", ErrMalformedInput, e.Kind, e.Kind, e.TxHash)
}
