package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"synth-exchange-stats/internal/app"
	"synth-exchange-stats/internal/config"
	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/logging"
	"synth-exchange-stats/internal/storage"
	chstore "synth-exchange-stats/internal/storage/clickhouse"
	"synth-exchange-stats/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN (overrides clickhouse.dsn)")
	backend := flag.String("store", "", "Store backend: memory, postgres, redis (overrides store.backend)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	redisAddr := flag.String("redis-addr", "", "Redis address")
	sourcePath := flag.String("source", "", "Replay this JSONL log into the store before exporting")

	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *clickhouseDSN != "" {
		cfg.ClickHouse.DSN = *clickhouseDSN
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
	if *sourcePath != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = *sourcePath
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, ServiceName: "export"})
	defer func() { _ = logger.Sync() }()

	replayFirst := *sourcePath != "" || cfg.Store.Backend == config.BackendMemory
	validate := cfg.ValidateStore
	if replayFirst {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	if cfg.ClickHouse.DSN == "" {
		logger.Fatal("clickhouse.dsn or --clickhouse-dsn is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, replayFirst, logger); err != nil {
		logger.Error("export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, replayFirst bool, logger *zap.Logger) error {
	store, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Memory stores start empty.
	if replayFirst {
		if _, err := app.Replay(ctx, cfg, store, logger); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
	}

	totals, err := listTotals(ctx, storage.NewRepository(store))
	if err != nil {
		return err
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	defer conn.Close()

	if err := chstore.NewAggregateExporter(conn).Export(ctx, totals); err != nil {
		return fmt.Errorf("export totals: %w", err)
	}
	logger.Info("export complete", zap.Int("totals", len(totals)))
	return nil
}

// listTotals returns totals of every granularity in fan-out order.
func listTotals(ctx context.Context, repo *storage.Repository) ([]*domain.AggregateTotal, error) {
	var all []*domain.AggregateTotal
	for _, g := range domain.AllGranularities {
		totals, err := repo.ListAggregates(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("list %s totals: %w", g, err)
		}
		all = append(all, totals...)
	}
	return all, nil
}
