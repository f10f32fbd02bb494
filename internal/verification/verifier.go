// Package verification checks that replaying an event log is deterministic.
// It compares keyed-store states byte for byte.
package verification

import (
	"bytes"
	"context"
	"fmt"

	"synth-exchange-stats/internal/idhash"
	"synth-exchange-stats/internal/storage"
)

// Entry is one stored value.
type Entry struct {
	Collection storage.Collection
	Key        string
	Value      []byte
}

// Snapshot is the complete state of a keyed store, ordered by (collection, key).
type Snapshot struct {
	Entries []Entry
	Digest  string // SHA256 over all entries, hex
}

// TakeSnapshot reads every collection of store.
func TakeSnapshot(ctx context.Context, store storage.KeyedStore) (*Snapshot, error) {
	collections, err := store.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	var entries []Entry
	parts := make([][]byte, 0)
	for _, c := range collections {
		keys, err := store.Keys(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("list keys of %s: %w", c, err)
		}
		for _, key := range keys {
			value, err := store.Load(ctx, c, key)
			if err != nil {
				return nil, fmt.Errorf("load %s/%s: %w", c, key, err)
			}
			entries = append(entries, Entry{Collection: c, Key: key, Value: value})
			parts = append(parts, []byte(c), []byte(key), value)
		}
	}

	return &Snapshot{Entries: entries, Digest: idhash.Digest(parts...)}, nil
}

// Divergence is a (collection, key) whose value differs between two states.
// A nil side means the key is absent there.
type Divergence struct {
	Collection storage.Collection
	Key        string
	Expected   []byte
	Actual     []byte
}

// Report is the result of comparing two states.
type Report struct {
	Match          bool
	ExpectedDigest string
	ActualDigest   string
	Entries        int // entries in the expected state
	Divergences    []Divergence
}

// Compare walks both snapshots in order and lists every divergent entry.
func Compare(expected, actual *Snapshot) *Report {
	report := &Report{
		ExpectedDigest: expected.Digest,
		ActualDigest:   actual.Digest,
		Entries:        len(expected.Entries),
	}

	i, j := 0, 0
	for i < len(expected.Entries) || j < len(actual.Entries) {
		switch {
		case j >= len(actual.Entries):
			e := expected.Entries[i]
			report.Divergences = append(report.Divergences, Divergence{Collection: e.Collection, Key: e.Key, Expected: e.Value})
			i++
		case i >= len(expected.Entries):
			a := actual.Entries[j]
			report.Divergences = append(report.Divergences, Divergence{Collection: a.Collection, Key: a.Key, Actual: a.Value})
			j++
		default:
			e, a := expected.Entries[i], actual.Entries[j]
			switch cmp := compareEntries(e, a); {
			case cmp < 0:
				report.Divergences = append(report.Divergences, Divergence{Collection: e.Collection, Key: e.Key, Expected: e.Value})
				i++
			case cmp > 0:
				report.Divergences = append(report.Divergences, Divergence{Collection: a.Collection, Key: a.Key, Actual: a.Value})
				j++
			default:
				if !bytes.Equal(e.Value, a.Value) {
					report.Divergences = append(report.Divergences, Divergence{
						Collection: e.Collection,
						Key:        e.Key,
						Expected:   e.Value,
						Actual:     a.Value,
					})
				}
				i++
				j++
			}
		}
	}

	report.Match = len(report.Divergences) == 0
	return report
}

func compareEntries(a, b Entry) int {
	if a.Collection != b.Collection {
		if a.Collection < b.Collection {
			return -1
		}
		return 1
	}
	if a.Key != b.Key {
		if a.Key < b.Key {
			return -1
		}
		return 1
	}
	return 0
}
