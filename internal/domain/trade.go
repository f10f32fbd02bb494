package domain

import "github.com/shopspring/decimal"

// TradeRecord is one synth exchange with its USD valuation.
// Keyed by {txHash}-{logIndex}; written once and never updated.
type TradeRecord struct {
	ID                 string          `json:"id"`
	Account            string          `json:"account"`
	From               string          `json:"from"` // transaction sender
	FromCurrency       string          `json:"from_currency"`
	FromAmount         decimal.Decimal `json:"from_amount"`
	FromAmountUSD      decimal.Decimal `json:"from_amount_usd"`
	ToCurrency         string          `json:"to_currency"`
	ToAmount           decimal.Decimal `json:"to_amount"`
	ToAmountUSD        decimal.Decimal `json:"to_amount_usd"`
	DestinationAddress string          `json:"destination_address"`
	FeesUSD            decimal.Decimal `json:"fees_usd"`
	Timestamp          int64           `json:"timestamp"`
	BlockNumber        int64           `json:"block_number"`
	GasPrice           string          `json:"gas_price"`
	Network            string          `json:"network"`
}

// SettlementKind distinguishes reclaims from rebates.
type SettlementKind string

// Settlement kinds.
const (
	SettlementReclaim SettlementKind = "reclaim"
	SettlementRebate  SettlementKind = "rebate"
)

// SettlementRecord is a reclaim or rebate. AmountUSD is nil when the rate
// could not be resolved at the time of the event.
type SettlementRecord struct {
	ID          string           `json:"id"`
	Kind        SettlementKind   `json:"kind"`
	Account     string           `json:"account"`
	Currency    string           `json:"currency"`
	Amount      decimal.Decimal  `json:"amount"`
	AmountUSD   *decimal.Decimal `json:"amount_usd,omitempty"`
	Timestamp   int64            `json:"timestamp"`
	BlockNumber int64            `json:"block_number"`
	GasPrice    string           `json:"gas_price"`
}

// FeeParameter holds the current exchange fee fraction for a currency. Last write wins.
type FeeParameter struct {
	Currency string          `json:"currency"`
	Fee      decimal.Decimal `json:"fee"`
}

// LatestRate is the most recent USD rate seen for a currency.
type LatestRate struct {
	Currency    string          `json:"currency"`
	Rate        decimal.Decimal `json:"rate"`
	BlockNumber int64           `json:"block_number"`
	TxHash      string          `json:"tx_hash"`
}

// Checkpoint is the position of the last fully applied event.
type Checkpoint struct {
	BlockNumber   int64  `json:"block_number"`
	LogIndex      int64  `json:"log_index"`
	TxHash        string `json:"tx_hash"`
	EventsApplied int64  `json:"events_applied"`
}

// After reports whether an event position lies strictly after the checkpoint.
func (c *Checkpoint) After(blockNumber, logIndex int64) bool {
	if c == nil {
		return true
	}
	if blockNumber != c.BlockNumber {
		return blockNumber > c.BlockNumber
	}
	return logIndex > c.LogIndex
}
