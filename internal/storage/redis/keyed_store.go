// Package redis provides a Redis-backed storage.KeyedStore.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"synth-exchange-stats/internal/observability"
	"synth-exchange-stats/internal/storage"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "synthstats"

// applyScript checks every insert against the store and the batch, then writes
// all values and index entries. Returns 0 on a duplicate insert, 1 otherwise.
//
// Per write i: KEYS[3i-2] value, KEYS[3i-1] index set, KEYS[3i] collection set;
// ARGV[4i-3] op, ARGV[4i-2] value, ARGV[4i-1] key, ARGV[4i] collection.
var applyScript = redis.NewScript(`
local n = #ARGV / 4
local seen = {}
for i = 1, n do
  local k = KEYS[3*i-2]
  if ARGV[4*i-3] == 'insert' then
    if seen[k] or redis.call('EXISTS', k) == 1 then
      return 0
    end
  end
  seen[k] = true
end
for i = 1, n do
  redis.call('SET', KEYS[3*i-2], ARGV[4*i-2])
  redis.call('SADD', KEYS[3*i-1], ARGV[4*i-1])
  redis.call('SADD', KEYS[3*i], ARGV[4*i])
end
return 1
`)

// KeyedStore implements storage.KeyedStore on Redis strings and sets.
// All keys share the {prefix} hash tag so a batch stays in one cluster slot.
type KeyedStore struct {
	client redis.UniversalClient
	prefix string
}

// NewKeyedStore creates a store over client. Empty prefix means DefaultPrefix.
func NewKeyedStore(client redis.UniversalClient, prefix string) *KeyedStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &KeyedStore{client: client, prefix: prefix}
}

var _ storage.KeyedStore = (*KeyedStore)(nil)

func (s *KeyedStore) valueKey(c storage.Collection, key string) string {
	return fmt.Sprintf("{%s}:%s:%s", s.prefix, c, key)
}

func (s *KeyedStore) indexKey(c storage.Collection) string {
	return fmt.Sprintf("{%s}:_index:%s", s.prefix, c)
}

func (s *KeyedStore) collectionsKey() string {
	return fmt.Sprintf("{%s}:_collections", s.prefix)
}

func record(op string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicateKey) {
		err = nil
	}
	observability.RecordDBQuery("redis", op, time.Since(start).Seconds(), err)
}

// Load retrieves the value under key. Returns ErrNotFound if not exists.
func (s *KeyedStore) Load(ctx context.Context, c storage.Collection, key string) (value []byte, err error) {
	start := time.Now()
	defer func() { record("load", start, err) }()

	value, err = s.client.Get(ctx, s.valueKey(c, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", c, key, err)
	}
	return value, nil
}

// Save upserts value under key.
func (s *KeyedStore) Save(ctx context.Context, c storage.Collection, key string, value []byte) error {
	return s.Apply(ctx, []storage.Write{{Op: storage.OpSave, Collection: c, Key: key, Value: value}})
}

// Insert adds value under key. Returns ErrDuplicateKey if key exists.
func (s *KeyedStore) Insert(ctx context.Context, c storage.Collection, key string, value []byte) error {
	return s.Apply(ctx, []storage.Write{{Op: storage.OpInsert, Collection: c, Key: key, Value: value}})
}

// Apply performs all writes atomically. Fails entire batch on any duplicate insert.
func (s *KeyedStore) Apply(ctx context.Context, writes []storage.Write) (err error) {
	if len(writes) == 0 {
		return nil
	}
	keys, args, err := s.scriptInput(writes)
	if err != nil {
		return err
	}

	start := time.Now()
	defer func() { record("apply", start, err) }()

	ok, err := applyScript.Run(ctx, s.client, keys, args...).Int64()
	if err != nil {
		return fmt.Errorf("apply %d writes: %w", len(writes), err)
	}
	if ok == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

func (s *KeyedStore) scriptInput(writes []storage.Write) ([]string, []interface{}, error) {
	keys := make([]string, 0, 3*len(writes))
	args := make([]interface{}, 0, 4*len(writes))
	for _, w := range writes {
		if w.Key == "" {
			return nil, nil, storage.ErrInvalidInput
		}
		op := "save"
		if w.Op == storage.OpInsert {
			op = "insert"
		}
		keys = append(keys, s.valueKey(w.Collection, w.Key), s.indexKey(w.Collection), s.collectionsKey())
		args = append(args, op, w.Value, w.Key, string(w.Collection))
	}
	return keys, args, nil
}

// Keys retrieves all keys of a collection in ascending byte order.
func (s *KeyedStore) Keys(ctx context.Context, c storage.Collection) (keys []string, err error) {
	start := time.Now()
	defer func() { record("keys", start, err) }()

	keys, err = s.client.SMembers(ctx, s.indexKey(c)).Result()
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", c, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Collections retrieves all non-empty collections in ascending order.
func (s *KeyedStore) Collections(ctx context.Context) (out []storage.Collection, err error) {
	start := time.Now()
	defer func() { record("collections", start, err) }()

	names, err := s.client.SMembers(ctx, s.collectionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}
	sort.Strings(names)
	out = make([]storage.Collection, 0, len(names))
	for _, n := range names {
		out = append(out, storage.Collection(n))
	}
	return out, nil
}
