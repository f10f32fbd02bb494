// Package rollup maintains per-bucket trading totals: which buckets an
// observation lands in, whether its trader is new to each bucket, and the
// counter arithmetic.
package rollup

import (
	"synth-exchange-stats/internal/bucket"
	"synth-exchange-stats/internal/domain"
)

// Default policy values.
const (
	DefaultPrimaryNetwork = "mainnet"
	DefaultEraStartBlock  = 9518914
)

// Policy decides which granularities receive an observation. Immutable after construction.
type Policy struct {
	PrimaryNetwork string
	EraStartBlock  int64
}

// DefaultPolicy returns the mainnet policy.
func DefaultPolicy() Policy {
	return Policy{
		PrimaryNetwork: DefaultPrimaryNetwork,
		EraStartBlock:  DefaultEraStartBlock,
	}
}

// InEra reports whether an event belongs to the era-gated all-time total.
func (p Policy) InEra(network string, blockNumber int64) bool {
	return network == p.PrimaryNetwork && blockNumber > p.EraStartBlock
}

// Target is one aggregate bucket an observation is applied to.
type Target struct {
	Granularity domain.Granularity
	Key         string
}

// Targets returns the buckets for an event in fan-out order:
// all-time, era all-time (when in era), daily, fifteen-minute.
func (p Policy) Targets(network string, blockNumber, timestamp int64) []Target {
	targets := make([]Target, 0, len(domain.AllGranularities))
	for _, g := range domain.AllGranularities {
		if g == domain.GranularityEraAllTime && !p.InEra(network, blockNumber) {
			continue
		}
		targets = append(targets, Target{
			Granularity: g,
			Key:         bucket.Key(g, network, timestamp),
		})
	}
	return targets
}
