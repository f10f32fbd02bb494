package domain

import "github.com/shopspring/decimal"

// Granularity is a bucketing scheme for aggregate totals.
type Granularity string

// Granularities. Each one is an independent keyed collection.
const (
	GranularityAllTime       Granularity = "all_time"
	GranularityEraAllTime    Granularity = "era_all_time"
	GranularityDaily         Granularity = "daily"
	GranularityFifteenMinute Granularity = "fifteen_minute"
)

// AllGranularities lists every granularity in fan-out order.
var AllGranularities = []Granularity{
	GranularityAllTime,
	GranularityEraAllTime,
	GranularityDaily,
	GranularityFifteenMinute,
}

// AggregateTotal is the rolled-up trading activity of one bucket.
type AggregateTotal struct {
	Granularity       Granularity     `json:"granularity"`
	Key               string          `json:"key"`
	TradeCount        int64           `json:"trade_count"`
	UniqueTraderCount int64           `json:"unique_trader_count"`
	VolumeUSD         decimal.Decimal `json:"volume_usd"`
	FeesUSD           decimal.Decimal `json:"fees_usd"`
}

// NewAggregateTotal returns a zeroed total for a bucket.
func NewAggregateTotal(g Granularity, key string) *AggregateTotal {
	return &AggregateTotal{
		Granularity: g,
		Key:         key,
		VolumeUSD:   decimal.Zero,
		FeesUSD:     decimal.Zero,
	}
}

// TraderSeen marks that an account has traded in a bucket. Existence is the membership.
type TraderSeen struct {
	Granularity Granularity `json:"granularity"`
	BucketKey   string      `json:"bucket_key"`
	Account     string      `json:"account"`
}
