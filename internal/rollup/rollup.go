package rollup

import (
	"context"

	"github.com/shopspring/decimal"

	"synth-exchange-stats/internal/storage"
)

// Store is the state a Rollup reads and writes.
type Store interface {
	storage.AggregateStore
	storage.TraderSeenStore
}

// Observation is one trade as seen by the rollup.
type Observation struct {
	Network     string
	Trader      string
	BlockNumber int64
	Timestamp   int64
	AmountUSD   *decimal.Decimal
	FeesUSD     *decimal.Decimal
}

// Rollup fans an observation out to every target bucket.
type Rollup struct {
	policy  Policy
	tracker *Tracker
	engine  *Engine
}

// New creates a rollup.
func New(policy Policy, store Store) *Rollup {
	return &Rollup{
		policy:  policy,
		tracker: NewTracker(store),
		engine:  NewEngine(store),
	}
}

// Policy returns the fan-out policy.
func (r *Rollup) Policy() Policy {
	return r.policy
}

// Observe applies obs to all its target buckets. Membership is checked
// per bucket immediately before that bucket's total is updated.
func (r *Rollup) Observe(ctx context.Context, obs Observation) ([]Target, error) {
	targets := r.policy.Targets(obs.Network, obs.BlockNumber, obs.Timestamp)
	for _, target := range targets {
		first, err := r.tracker.ObserveAndCheckFirst(ctx, target.Granularity, target.Key, obs.Trader)
		if err != nil {
			return nil, err
		}
		if _, err := r.engine.ApplyObservation(ctx, target, first, obs.AmountUSD, obs.FeesUSD); err != nil {
			return nil, err
		}
	}
	return targets, nil
}
