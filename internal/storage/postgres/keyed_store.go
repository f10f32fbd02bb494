package postgres

import (
	"context"
	"fmt"
	"time"

	"synth-exchange-stats/internal/observability"
	"synth-exchange-stats/internal/storage"
)

// KeyedStore implements storage.KeyedStore over the entities table.
type KeyedStore struct {
	pool *Pool
}

// NewKeyedStore creates a new KeyedStore.
func NewKeyedStore(pool *Pool) *KeyedStore {
	return &KeyedStore{pool: pool}
}

// Compile-time interface check.
var _ storage.KeyedStore = (*KeyedStore)(nil)

const (
	loadQuery   = `SELECT value FROM entities WHERE collection = $1 AND key = $2`
	insertQuery = `INSERT INTO entities (collection, key, value) VALUES ($1, $2, $3)`
	saveQuery   = `
		INSERT INTO entities (collection, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value
	`
)

func record(operation string, start time.Time, err error) {
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}

// Load retrieves the value under key. Returns ErrNotFound if not exists.
func (s *KeyedStore) Load(ctx context.Context, c storage.Collection, key string) (value []byte, err error) {
	start := time.Now()
	defer func() { record("load", start, err) }()

	err = s.pool.QueryRow(ctx, loadQuery, string(c), key).Scan(&value)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load %s/%s: %w", c, key, err)
	}
	return value, nil
}

// Save upserts value under key.
func (s *KeyedStore) Save(ctx context.Context, c storage.Collection, key string, value []byte) (err error) {
	start := time.Now()
	defer func() { record("save", start, err) }()

	if _, err = s.pool.Exec(ctx, saveQuery, string(c), key, value); err != nil {
		return fmt.Errorf("save %s/%s: %w", c, key, err)
	}
	return nil
}

// Insert adds value under key. Returns ErrDuplicateKey if key exists.
func (s *KeyedStore) Insert(ctx context.Context, c storage.Collection, key string, value []byte) (err error) {
	start := time.Now()
	defer func() { record("insert", start, err) }()

	if _, err = s.pool.Exec(ctx, insertQuery, string(c), key, value); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert %s/%s: %w", c, key, err)
	}
	return nil
}

// Apply performs all writes in one transaction. Fails entire batch on any duplicate insert.
func (s *KeyedStore) Apply(ctx context.Context, writes []storage.Write) (err error) {
	if len(writes) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { record("apply", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		query := saveQuery
		if w.Op == storage.OpInsert {
			query = insertQuery
		}
		if _, err := tx.Exec(ctx, query, string(w.Collection), w.Key, w.Value); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("apply %s/%s: %w", w.Collection, w.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Keys retrieves all keys of a collection in ascending byte order.
func (s *KeyedStore) Keys(ctx context.Context, c storage.Collection) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM entities WHERE collection = $1 ORDER BY key COLLATE "C" ASC`, string(c))
	if err != nil {
		return nil, fmt.Errorf("query keys of %s: %w", c, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

// Collections retrieves all non-empty collections in ascending order.
func (s *KeyedStore) Collections(ctx context.Context) ([]storage.Collection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT collection COLLATE "C" AS c FROM entities ORDER BY c ASC`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	collections := make([]storage.Collection, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, storage.Collection(c))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return collections, nil
}
