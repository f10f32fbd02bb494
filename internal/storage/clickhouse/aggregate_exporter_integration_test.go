package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/storage/clickhouse"
	"synth-exchange-stats/internal/storage/migrations"
)

// setupTestDB starts a ClickHouse container and applies the embedded migrations.
func setupTestDB(t *testing.T) (*clickhouse.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://default@%s:%s/stats", host, port.Port())
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}
}

func TestAggregateExporter_ReexportKeepsLatest(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	exporter := clickhouse.NewAggregateExporter(conn)

	first := domain.NewAggregateTotal(domain.GranularityDaily, "0")
	first.TradeCount = 1
	first.UniqueTraderCount = 1
	first.VolumeUSD = decimal.RequireFromString("200")
	first.FeesUSD = decimal.RequireFromString("2")
	require.NoError(t, exporter.Export(ctx, []*domain.AggregateTotal{first}))

	second := *first
	second.TradeCount = 2
	second.VolumeUSD = decimal.RequireFromString("220")
	second.FeesUSD = decimal.RequireFromString("2.2")
	require.NoError(t, exporter.Export(ctx, []*domain.AggregateTotal{&second}))

	rows, err := clickhouse.ListExported(ctx, conn, domain.GranularityDaily)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(2), rows[0].TradeCount)
	assert.True(t, rows[0].VolumeUSD.Equal(decimal.RequireFromString("220")))
	assert.True(t, rows[0].FeesUSD.Equal(decimal.RequireFromString("2.2")))
}
