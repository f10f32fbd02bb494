package verification

import (
	"context"
	"errors"
	"fmt"

	"synth-exchange-stats/internal/storage"
)

// ErrNoReplay is returned when a ReplayVerifier has no replay function.
var ErrNoReplay = errors.New("replay function not configured")

// ReplayFunc applies the full event log to store.
// It must open its own event source on every call.
type ReplayFunc func(ctx context.Context, store storage.KeyedStore) error

// ReplayVerifier replays an event log into fresh stores and compares states.
type ReplayVerifier struct {
	replay   ReplayFunc
	newStore func() storage.KeyedStore
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	Replay   ReplayFunc
	NewStore func() storage.KeyedStore // fresh, empty store per replay
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		replay:   opts.Replay,
		newStore: opts.NewStore,
	}
}

// replayFresh replays into a new store and snapshots it.
func (v *ReplayVerifier) replayFresh(ctx context.Context) (*Snapshot, error) {
	if v.replay == nil || v.newStore == nil {
		return nil, ErrNoReplay
	}
	store := v.newStore()
	if err := v.replay(ctx, store); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return TakeSnapshot(ctx, store)
}

// VerifyDeterminism replays the log twice and compares the two final states.
func (v *ReplayVerifier) VerifyDeterminism(ctx context.Context) (*Report, error) {
	first, err := v.replayFresh(ctx)
	if err != nil {
		return nil, err
	}
	second, err := v.replayFresh(ctx)
	if err != nil {
		return nil, err
	}
	return Compare(first, second), nil
}

// VerifyStore replays the log into a fresh store and compares it with stored,
// a store that was built from the same log.
func (v *ReplayVerifier) VerifyStore(ctx context.Context, stored storage.KeyedStore) (*Report, error) {
	expected, err := TakeSnapshot(ctx, stored)
	if err != nil {
		return nil, err
	}
	actual, err := v.replayFresh(ctx)
	if err != nil {
		return nil, err
	}
	return Compare(expected, actual), nil
}
