package verification

import (
	"context"
	"errors"
	"testing"

	"synth-exchange-stats/internal/storage"
	"synth-exchange-stats/internal/storage/memory"
)

func seed(t *testing.T, store storage.KeyedStore, values map[string]string) {
	t.Helper()
	for key, value := range values {
		if err := store.Save(context.Background(), storage.CollectionFeeParameters, key, []byte(value)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
}

func snapshot(t *testing.T, store storage.KeyedStore) *Snapshot {
	t.Helper()
	snap, err := TakeSnapshot(context.Background(), store)
	if err != nil {
		t.Fatalf("TakeSnapshot failed: %v", err)
	}
	return snap
}

func TestCompare_ExactMatch(t *testing.T) {
	a, b := memory.NewKeyedStore(), memory.NewKeyedStore()
	seed(t, a, map[string]string{"sETH": "1", "sBTC": "2"})
	seed(t, b, map[string]string{"sBTC": "2", "sETH": "1"})

	report := Compare(snapshot(t, a), snapshot(t, b))
	if !report.Match {
		t.Fatalf("expected match, got divergences: %+v", report.Divergences)
	}
	if report.ExpectedDigest != report.ActualDigest {
		t.Errorf("digests differ: %s vs %s", report.ExpectedDigest, report.ActualDigest)
	}
	if report.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", report.Entries)
	}
}

func TestCompare_Divergences(t *testing.T) {
	a, b := memory.NewKeyedStore(), memory.NewKeyedStore()
	seed(t, a, map[string]string{"sETH": "1", "sBTC": "2"})
	seed(t, b, map[string]string{"sETH": "9", "sLINK": "3"})

	report := Compare(snapshot(t, a), snapshot(t, b))
	if report.Match {
		t.Fatal("expected divergence")
	}
	if len(report.Divergences) != 3 {
		t.Fatalf("expected 3 divergences, got %d: %+v", len(report.Divergences), report.Divergences)
	}

	// Keys in ascending order: sBTC (missing in actual), sETH (changed), sLINK (extra).
	if d := report.Divergences[0]; d.Key != "sBTC" || d.Actual != nil {
		t.Errorf("divergence 0: %+v", d)
	}
	if d := report.Divergences[1]; d.Key != "sETH" || string(d.Expected) != "1" || string(d.Actual) != "9" {
		t.Errorf("divergence 1: %+v", d)
	}
	if d := report.Divergences[2]; d.Key != "sLINK" || d.Expected != nil {
		t.Errorf("divergence 2: %+v", d)
	}
	if report.ExpectedDigest == report.ActualDigest {
		t.Error("digests should differ")
	}
}

func TestReplayVerifier_VerifyDeterminism(t *testing.T) {
	replay := func(ctx context.Context, store storage.KeyedStore) error {
		return store.Save(ctx, storage.CollectionLatestRates, "sETH", []byte(`{"rate":"2"}`))
	}
	v := NewReplayVerifier(ReplayVerifierOptions{
		Replay:   replay,
		NewStore: func() storage.KeyedStore { return memory.NewKeyedStore() },
	})

	report, err := v.VerifyDeterminism(context.Background())
	if err != nil {
		t.Fatalf("VerifyDeterminism failed: %v", err)
	}
	if !report.Match {
		t.Errorf("expected match: %+v", report.Divergences)
	}
}

func TestReplayVerifier_DetectsNondeterminism(t *testing.T) {
	run := 0
	replay := func(ctx context.Context, store storage.KeyedStore) error {
		run++
		return store.Save(ctx, storage.CollectionCheckpoints, "cursor", []byte{byte(run)})
	}
	v := NewReplayVerifier(ReplayVerifierOptions{
		Replay:   replay,
		NewStore: func() storage.KeyedStore { return memory.NewKeyedStore() },
	})

	report, err := v.VerifyDeterminism(context.Background())
	if err != nil {
		t.Fatalf("VerifyDeterminism failed: %v", err)
	}
	if report.Match {
		t.Error("expected divergence between runs")
	}
}

func TestReplayVerifier_VerifyStore(t *testing.T) {
	stored := memory.NewKeyedStore()
	seed(t, stored, map[string]string{"sETH": "1"})

	v := NewReplayVerifier(ReplayVerifierOptions{
		Replay: func(ctx context.Context, store storage.KeyedStore) error {
			seed(t, store, map[string]string{"sETH": "1"})
			return nil
		},
		NewStore: func() storage.KeyedStore { return memory.NewKeyedStore() },
	})

	report, err := v.VerifyStore(context.Background(), stored)
	if err != nil {
		t.Fatalf("VerifyStore failed: %v", err)
	}
	if !report.Match {
		t.Errorf("expected match: %+v", report.Divergences)
	}
}

func TestReplayVerifier_NotConfigured(t *testing.T) {
	v := NewReplayVerifier(ReplayVerifierOptions{})
	_, err := v.VerifyDeterminism(context.Background())
	if !errors.Is(err, ErrNoReplay) {
		t.Errorf("expected ErrNoReplay, got %v", err)
	}
}
