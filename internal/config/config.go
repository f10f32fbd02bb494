// Package config holds the YAML configuration shared by all commands.
package config

import (
	"errors"
	"fmt"

	"synth-exchange-stats/internal/oracle"
	"synth-exchange-stats/internal/rollup"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Source kinds.
const (
	SourceFile  = "file"
	SourceKafka = "kafka"
)

// Config is the root configuration.
type Config struct {
	Network    NetworkConfig    `yaml:"network"`
	Store      StoreConfig      `yaml:"store"`
	Source     SourceConfig     `yaml:"source"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// NetworkConfig selects the chain and the era-gated total.
type NetworkConfig struct {
	Primary          string   `yaml:"primary"`
	EraStartBlock    int64    `yaml:"era_start_block"`
	StableCurrencies []string `yaml:"stable_currencies"` // priced at one USD
}

// StoreConfig selects the keyed store backend.
type StoreConfig struct {
	Backend     string `yaml:"backend"` // memory, postgres, redis
	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// SourceConfig selects the event source.
type SourceConfig struct {
	Kind  string      `yaml:"kind"` // file, kafka
	Path  string      `yaml:"path"`
	Kafka KafkaConfig `yaml:"kafka"`
}

// KafkaConfig selects one topic partition.
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	Partition int32    `yaml:"partition"`
	Offset    int64    `yaml:"offset"`
	EndOffset int64    `yaml:"end_offset"`
	ClientID  string   `yaml:"client_id"`
}

// ClickHouseConfig holds the export sink connection.
type ClickHouseConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// MetricsConfig holds the Prometheus listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables /metrics
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Network.Primary == "" {
		c.Network.Primary = rollup.DefaultPrimaryNetwork
	}
	if c.Network.EraStartBlock == 0 {
		c.Network.EraStartBlock = rollup.DefaultEraStartBlock
	}
	if len(c.Network.StableCurrencies) == 0 {
		c.Network.StableCurrencies = append([]string(nil), oracle.DefaultStableCurrencies...)
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendMemory
	}
	if c.Store.RedisPrefix == "" {
		c.Store.RedisPrefix = "synthstats"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceFile
	}
	if c.Source.Kafka.ClientID == "" {
		c.Source.Kafka.ClientID = "synth-exchange-stats"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks that the selected store and source are fully configured.
func (c *Config) Validate() error {
	return errors.Join(c.ValidateStore(), c.validateSource())
}

// ValidateStore checks everything except the event source, for commands that
// only read an existing store.
func (c *Config) ValidateStore() error {
	var errs []error

	if c.Network.EraStartBlock < 0 {
		errs = append(errs, errors.New("network.era_start_block must be non-negative"))
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres backend"))
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c *Config) validateSource() error {
	var errs []error

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path is required for the file source"))
		}
	case SourceKafka:
		if len(c.Source.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("source.kafka.brokers is required for the kafka source"))
		}
		if c.Source.Kafka.Topic == "" {
			errs = append(errs, errors.New("source.kafka.topic is required for the kafka source"))
		}
		if c.Source.Kafka.Partition < 0 {
			errs = append(errs, errors.New("source.kafka.partition must be non-negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind))
	}

	return errors.Join(errs...)
}

// Policy returns the rollup policy for the configured network.
func (c *Config) Policy() rollup.Policy {
	return rollup.Policy{
		PrimaryNetwork: c.Network.Primary,
		EraStartBlock:  c.Network.EraStartBlock,
	}
}
