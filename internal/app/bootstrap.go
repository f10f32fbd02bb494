// Package app wires configuration into stores, sources and listeners for the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"synth-exchange-stats/internal/config"
	"synth-exchange-stats/internal/observability"
	"synth-exchange-stats/internal/replay"
	"synth-exchange-stats/internal/source"
	"synth-exchange-stats/internal/storage"
	"synth-exchange-stats/internal/storage/memory"
	"synth-exchange-stats/internal/storage/migrations"
	"synth-exchange-stats/internal/storage/postgres"
	redisstore "synth-exchange-stats/internal/storage/redis"
)

// Store is an opened keyed store and the function that releases it.
type Store struct {
	storage.KeyedStore
	closeFn func()
}

// Close releases the connection behind the store.
func (s *Store) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// OpenStore connects the configured backend. Postgres migrations are applied on open.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		logger.Info("using in-memory store")
		return &Store{KeyedStore: memory.NewKeyedStore()}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		logger.Info("postgres connected")
		return &Store{KeyedStore: postgres.NewKeyedStore(pool), closeFn: pool.Close}, nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("redis connected", zap.String("addr", cfg.RedisAddr), zap.String("prefix", cfg.RedisPrefix))
		return &Store{
			KeyedStore: redisstore.NewKeyedStore(client, cfg.RedisPrefix),
			closeFn:    func() { _ = client.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// OpenSource opens the configured event source.
func OpenSource(cfg config.SourceConfig, logger *zap.Logger) (source.Source, error) {
	switch cfg.Kind {
	case config.SourceFile, "":
		if cfg.Path == "" {
			return nil, errors.New("source.path is required for the file source")
		}
		f, err := source.OpenFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		return f, nil

	case config.SourceKafka:
		k, err := source.NewKafka(source.KafkaConfig{
			Brokers:   cfg.Kafka.Brokers,
			Topic:     cfg.Kafka.Topic,
			Partition: cfg.Kafka.Partition,
			Offset:    cfg.Kafka.Offset,
			EndOffset: cfg.Kafka.EndOffset,
			ClientID:  cfg.Kafka.ClientID,
		}, logger)
		if err != nil {
			return nil, err
		}
		return k, nil

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// RunnerConfig derives the runner settings from the network section.
func RunnerConfig(cfg *config.Config) replay.Config {
	return replay.Config{
		Policy:           cfg.Policy(),
		StableCurrencies: cfg.Network.StableCurrencies,
	}
}

// Replay opens a fresh source and applies it to store.
func Replay(ctx context.Context, cfg *config.Config, store storage.KeyedStore, logger *zap.Logger) (*replay.Result, error) {
	src, err := OpenSource(cfg.Source, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("close source", zap.Error(err))
		}
	}()
	return replay.NewRunner(store, RunnerConfig(cfg), logger).Run(ctx, src)
}

// NewMetricsServer returns a server for /metrics and /health on addr.
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ServeMetrics starts the metrics server in the background when addr is set.
// The returned function shuts it down.
func ServeMetrics(addr string, logger *zap.Logger) func(context.Context) {
	if addr == "" {
		return func(context.Context) {}
	}
	srv := NewMetricsServer(addr)
	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("shutdown metrics server", zap.Error(err))
		}
	}
}
