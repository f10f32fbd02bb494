package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithDefaults_EmptyPath(t *testing.T) {
	cfg, err := LoadWithDefaults("")
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Network.Primary)
	assert.Equal(t, int64(9518914), cfg.Network.EraStartBlock)
	assert.Equal(t, []string{"sUSD"}, cfg.Network.StableCurrencies)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, SourceFile, cfg.Source.Kind)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadAndValidate_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_PG_DSN", "postgres://u:p@db:5432/stats")
	path := writeConfig(t, `
network:
  primary: mainnet
  era_start_block: 100
store:
  backend: postgres
  postgres_dsn: ${TEST_PG_DSN}
source:
  kind: kafka
  kafka:
    brokers: ["k1:9092", "k2:9092"]
    topic: synth-events
    partition: 0
log:
  level: debug
  format: console
`)

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/stats", cfg.Store.PostgresDSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Source.Kafka.Brokers)
	assert.Equal(t, "synth-events", cfg.Source.Kafka.Topic)

	policy := cfg.Policy()
	assert.Equal(t, "mainnet", policy.PrimaryNetwork)
	assert.Equal(t, int64(100), policy.EraStartBlock)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid file source", func(c *Config) { c.Source.Path = "events.jsonl" }, ""},
		{"missing path", func(c *Config) {}, "source.path"},
		{"unknown backend", func(c *Config) { c.Source.Path = "x"; c.Store.Backend = "sqlite" }, "store.backend"},
		{"postgres without dsn", func(c *Config) { c.Source.Path = "x"; c.Store.Backend = BackendPostgres }, "store.postgres_dsn"},
		{"redis without addr", func(c *Config) { c.Source.Path = "x"; c.Store.Backend = BackendRedis }, "store.redis_addr"},
		{"kafka without topic", func(c *Config) {
			c.Source.Kind = SourceKafka
			c.Source.Kafka.Brokers = []string{"k:9092"}
		}, "source.kafka.topic"},
		{"bad log format", func(c *Config) { c.Source.Path = "x"; c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateStore_IgnoresSource(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendPostgres
	cfg.Store.PostgresDSN = "postgres://localhost/stats"

	assert.NoError(t, cfg.ValidateStore())
	assert.ErrorContains(t, cfg.Validate(), "source.path")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "network: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}
