package domain

// EventKind identifies which decoded contract event an Event carries.
type EventKind string

// Event kinds.
const (
	EventKindExchange   EventKind = "exchange"
	EventKindReclaim    EventKind = "reclaim"
	EventKindRebate     EventKind = "rebate"
	EventKindFeeChange  EventKind = "fee_change"
	EventKindRateUpdate EventKind = "rate_update"
)

// Event is one decoded on-chain event together with its block and transaction metadata.
// Exactly one payload pointer is set, matching Kind.
type Event struct {
	Kind        EventKind `json:"kind"`
	TxHash      string    `json:"tx_hash"`
	LogIndex    int64     `json:"log_index"`
	BlockNumber int64     `json:"block_number"`
	Timestamp   int64     `json:"timestamp"` // block timestamp, Unix seconds
	From        string    `json:"from"`      // transaction sender
	GasPrice    string    `json:"gas_price"` // raw wei, base-10
	Network     string    `json:"network"`

	Exchange   *ExchangeParams   `json:"exchange,omitempty"`
	Settlement *SettlementParams `json:"settlement,omitempty"`
	FeeChange  *FeeChangeParams  `json:"fee_change,omitempty"`
	RateUpdate *RateUpdateParams `json:"rate_update,omitempty"`
}

// ExchangeParams are the decoded parameters of a synth exchange.
// Amounts are raw 18-decimal fixed-point integers.
type ExchangeParams struct {
	Account      string `json:"account"`
	FromCurrency string `json:"from_currency"`
	FromAmount   string `json:"from_amount"`
	ToCurrency   string `json:"to_currency"`
	ToAmount     string `json:"to_amount"`
	ToAddress    string `json:"to_address"`
}

// SettlementParams are shared by reclaim and rebate events.
type SettlementParams struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// FeeChangeParams carry a new exchange fee rate for one currency.
type FeeChangeParams struct {
	Currency string `json:"currency"`
	Rate     string `json:"rate"`
}

// RateUpdateParams carry a new USD rate for one currency.
type RateUpdateParams struct {
	Currency string `json:"currency"`
	Rate     string `json:"rate"`
}
