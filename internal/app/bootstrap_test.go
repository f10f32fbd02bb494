package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"synth-exchange-stats/internal/config"
	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/source"
	"synth-exchange-stats/internal/storage"
)

func writeLog(t *testing.T, events []*domain.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, source.WriteJSONL(f, events))
	require.NoError(t, f.Close())
	return path
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, config.StoreConfig{Backend: config.BackendMemory}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(ctx, storage.CollectionCheckpoints, "cursor", []byte(`{}`)))

	_, err = OpenStore(ctx, config.StoreConfig{Backend: "sqlite"}, zap.NewNop())
	assert.ErrorContains(t, err, `unknown store backend "sqlite"`)
}

func TestOpenSource_Errors(t *testing.T) {
	_, err := OpenSource(config.SourceConfig{Kind: config.SourceFile}, zap.NewNop())
	assert.ErrorContains(t, err, "source.path is required")

	_, err = OpenSource(config.SourceConfig{Kind: "stdin"}, zap.NewNop())
	assert.ErrorContains(t, err, `unknown source kind "stdin"`)

	_, err = OpenSource(config.SourceConfig{Kind: config.SourceFile, Path: filepath.Join(t.TempDir(), "missing.jsonl")}, zap.NewNop())
	assert.Error(t, err)
}

func TestReplay_FileSource(t *testing.T) {
	ctx := context.Background()
	path := writeLog(t, []*domain.Event{
		{Kind: domain.EventKindFeeChange, TxHash: "0x1", BlockNumber: 1, Network: "mainnet",
			FeeChange: &domain.FeeChangeParams{Currency: "sETH", Rate: "3000000000000000"}},
		{Kind: domain.EventKindRateUpdate, TxHash: "0x2", BlockNumber: 2, Network: "mainnet",
			RateUpdate: &domain.RateUpdateParams{Currency: "sETH", Rate: "2000000000000000000"}},
	})

	cfg := config.Default()
	cfg.Source.Path = path

	store, err := OpenStore(ctx, cfg.Store, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	result, err := Replay(ctx, cfg, store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Applied)
	assert.Equal(t, int64(2), result.Checkpoint.BlockNumber)

	// Replaying the same log resumes past the checkpoint.
	again, err := Replay(ctx, cfg, store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Applied)
	assert.Equal(t, int64(2), again.Skipped)

	rate, err := storage.NewRepository(store).GetLatestRate(ctx, "sETH")
	require.NoError(t, err)
	assert.Equal(t, "2", rate.Rate.String())
}

func TestRunnerConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Network.Primary = "optimism"
	cfg.Network.EraStartBlock = 10

	rc := RunnerConfig(cfg)
	assert.Equal(t, "optimism", rc.Policy.PrimaryNetwork)
	assert.Equal(t, int64(10), rc.Policy.EraStartBlock)
	assert.Equal(t, []string{"sUSD"}, rc.StableCurrencies)
}

func TestMetricsServer(t *testing.T) {
	srv := NewMetricsServer(":0")

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
