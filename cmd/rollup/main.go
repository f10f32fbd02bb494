package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"synth-exchange-stats/internal/app"
	"synth-exchange-stats/internal/config"
	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/logging"
	"synth-exchange-stats/internal/replay"
	"synth-exchange-stats/internal/storage"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	sourcePath := flag.String("source", "", "JSONL event log (overrides source.path)")
	backend := flag.String("store", "", "Store backend: memory, postgres, redis (overrides store.backend)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	redisAddr := flag.String("redis-addr", "", "Redis address")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	summary := flag.Bool("summary", false, "Print aggregate totals as JSON after the replay")

	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *sourcePath != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = *sourcePath
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if *postgresDSN != "" {
		cfg.Store.PostgresDSN = *postgresDSN
	}
	if *redisAddr != "" {
		cfg.Store.RedisAddr = *redisAddr
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, ServiceName: "rollup"})
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	stopMetrics := app.ServeMetrics(cfg.Metrics.Addr, logger)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		stopMetrics(shutdownCtx)
	}()

	store, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	start := time.Now()
	result, err := app.Replay(ctx, cfg, store, logger)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("replay interrupted", zap.Int64("applied", appliedOf(result)))
			return
		}
		logger.Error("replay failed", zap.Int64("applied", appliedOf(result)), zap.Error(err))
		store.Close()
		os.Exit(1)
	}

	logger.Info("rollup complete",
		zap.Int64("applied", result.Applied),
		zap.Int64("skipped", result.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)

	if *summary {
		if err := printSummary(ctx, store); err != nil {
			logger.Error("print summary", zap.Error(err))
			store.Close()
			os.Exit(1)
		}
	}
}

func appliedOf(result *replay.Result) int64 {
	if result == nil {
		return 0
	}
	return result.Applied
}

// printSummary writes every aggregate total, grouped by granularity, to stdout.
func printSummary(ctx context.Context, store storage.KeyedStore) error {
	repo := storage.NewRepository(store)
	out := make(map[domain.Granularity][]*domain.AggregateTotal, len(domain.AllGranularities))
	for _, g := range domain.AllGranularities {
		totals, err := repo.ListAggregates(ctx, g)
		if err != nil {
			return fmt.Errorf("list %s totals: %w", g, err)
		}
		out[g] = totals
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
