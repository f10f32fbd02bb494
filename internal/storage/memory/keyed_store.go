package memory

import (
	"context"
	"sort"
	"sync"

	"synth-exchange-stats/internal/storage"
)

// KeyedStore is an in-memory implementation of storage.KeyedStore.
type KeyedStore struct {
	mu   sync.RWMutex
	data map[storage.Collection]map[string][]byte
}

// NewKeyedStore creates a new in-memory keyed store.
func NewKeyedStore() *KeyedStore {
	return &KeyedStore{
		data: make(map[storage.Collection]map[string][]byte),
	}
}

var _ storage.KeyedStore = (*KeyedStore)(nil)

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func (s *KeyedStore) exists(c storage.Collection, key string) bool {
	_, ok := s.data[c][key]
	return ok
}

func (s *KeyedStore) put(c storage.Collection, key string, value []byte) {
	byKey, ok := s.data[c]
	if !ok {
		byKey = make(map[string][]byte)
		s.data[c] = byKey
	}
	byKey[key] = clone(value)
}

// Load retrieves the value under key. Returns ErrNotFound if not exists.
func (s *KeyedStore) Load(_ context.Context, c storage.Collection, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[c][key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(v), nil
}

// Save upserts value under key.
func (s *KeyedStore) Save(_ context.Context, c storage.Collection, key string, value []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(c, key, value)
	return nil
}

// Insert adds value under key. Returns ErrDuplicateKey if key exists.
func (s *KeyedStore) Insert(_ context.Context, c storage.Collection, key string, value []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists(c, key) {
		return storage.ErrDuplicateKey
	}
	s.put(c, key, value)
	return nil
}

// Apply performs all writes atomically. Fails entire batch on any duplicate insert.
func (s *KeyedStore) Apply(_ context.Context, writes []storage.Write) error {
	if len(writes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys written earlier in this batch
	type ref struct {
		c   storage.Collection
		key string
	}
	batchKeys := make(map[ref]struct{}, len(writes))

	// First pass: validate (existing + intra-batch)
	for _, w := range writes {
		if w.Key == "" {
			return storage.ErrInvalidInput
		}
		r := ref{w.Collection, w.Key}
		if w.Op == storage.OpInsert {
			if s.exists(w.Collection, w.Key) {
				return storage.ErrDuplicateKey
			}
			if _, dup := batchKeys[r]; dup {
				return storage.ErrDuplicateKey
			}
		}
		batchKeys[r] = struct{}{}
	}

	// Second pass: apply in order
	for _, w := range writes {
		s.put(w.Collection, w.Key, w.Value)
	}
	return nil
}

// Keys retrieves all keys of a collection in ascending byte order.
func (s *KeyedStore) Keys(_ context.Context, c storage.Collection) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data[c]))
	for k := range s.data[c] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Collections retrieves all non-empty collections in ascending order.
func (s *KeyedStore) Collections(_ context.Context) ([]storage.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.Collection, 0, len(s.data))
	for c, byKey := range s.data {
		if len(byKey) > 0 {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}
