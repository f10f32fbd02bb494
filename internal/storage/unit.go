package storage

import (
	"context"
	"errors"
	"sort"
)

// Unit stages writes over a base store until Commit applies them as one atomic batch.
// Reads observe staged writes first. A Unit is used by a single goroutine.
type Unit struct {
	base   KeyedStore
	staged map[Collection]map[string]Write
	order  []Write
}

// NewUnit creates a unit of work over base.
func NewUnit(base KeyedStore) *Unit {
	return &Unit{
		base:   base,
		staged: make(map[Collection]map[string]Write),
	}
}

// Compile-time interface check.
var _ KeyedStore = (*Unit)(nil)

// Pending returns the number of staged writes.
func (u *Unit) Pending() int {
	return len(u.order)
}

// Commit applies all staged writes atomically and clears the stage.
// On failure nothing is applied and the stage is cleared.
func (u *Unit) Commit(ctx context.Context) error {
	if len(u.order) == 0 {
		return nil
	}
	writes := u.order
	u.Discard()
	return u.base.Apply(ctx, writes)
}

// Discard drops all staged writes.
func (u *Unit) Discard() {
	u.staged = make(map[Collection]map[string]Write)
	u.order = nil
}

func (u *Unit) lookup(c Collection, key string) (Write, bool) {
	w, ok := u.staged[c][key]
	return w, ok
}

func (u *Unit) stage(w Write) {
	value := make([]byte, len(w.Value))
	copy(value, w.Value)
	w.Value = value

	byKey, ok := u.staged[w.Collection]
	if !ok {
		byKey = make(map[string]Write)
		u.staged[w.Collection] = byKey
	}
	byKey[w.Key] = w
	u.order = append(u.order, w)
}

// Load retrieves the staged value, falling back to the base store.
func (u *Unit) Load(ctx context.Context, c Collection, key string) ([]byte, error) {
	if w, ok := u.lookup(c, key); ok {
		value := make([]byte, len(w.Value))
		copy(value, w.Value)
		return value, nil
	}
	return u.base.Load(ctx, c, key)
}

// Save stages an upsert.
func (u *Unit) Save(_ context.Context, c Collection, key string, value []byte) error {
	if key == "" {
		return ErrInvalidInput
	}
	u.stage(Write{Op: OpSave, Collection: c, Key: key, Value: value})
	return nil
}

// Insert stages an append-once write. Returns ErrDuplicateKey if the key is staged or stored.
func (u *Unit) Insert(ctx context.Context, c Collection, key string, value []byte) error {
	if key == "" {
		return ErrInvalidInput
	}
	if _, ok := u.lookup(c, key); ok {
		return ErrDuplicateKey
	}
	_, err := u.base.Load(ctx, c, key)
	if err == nil {
		return ErrDuplicateKey
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	u.stage(Write{Op: OpInsert, Collection: c, Key: key, Value: value})
	return nil
}

// Apply stages every write of the batch.
func (u *Unit) Apply(ctx context.Context, writes []Write) error {
	for _, w := range writes {
		var err error
		if w.Op == OpInsert {
			err = u.Insert(ctx, w.Collection, w.Key, w.Value)
		} else {
			err = u.Save(ctx, w.Collection, w.Key, w.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Keys merges staged and stored keys of a collection in ascending order.
func (u *Unit) Keys(ctx context.Context, c Collection) ([]string, error) {
	stored, err := u.base.Keys(ctx, c)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(stored))
	for _, k := range stored {
		seen[k] = struct{}{}
	}
	for k := range u.staged[c] {
		if _, ok := seen[k]; !ok {
			stored = append(stored, k)
		}
	}
	sort.Strings(stored)
	return stored, nil
}

// Collections merges staged and stored collections in ascending order.
func (u *Unit) Collections(ctx context.Context) ([]Collection, error) {
	stored, err := u.base.Collections(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[Collection]struct{}, len(stored))
	for _, c := range stored {
		seen[c] = struct{}{}
	}
	for c := range u.staged {
		if _, ok := seen[c]; !ok {
			stored = append(stored, c)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i] < stored[j] })
	return stored, nil
}
