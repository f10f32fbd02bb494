package clickhouse

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"synth-exchange-stats/internal/domain"
)

// Batch is the subset of driver.Batch the exporter needs.
type Batch interface {
	Append(v ...any) error
	Send() error
}

// BatchPreparer opens insert batches.
type BatchPreparer interface {
	PrepareBatch(ctx context.Context, query string) (Batch, error)
}

// connPreparer adapts a Conn to BatchPreparer.
type connPreparer struct {
	conn *Conn
}

func (p connPreparer) PrepareBatch(ctx context.Context, query string) (Batch, error) {
	return p.conn.PrepareBatch(ctx, query)
}

// AggregateExporter writes aggregate totals to the aggregate_totals table.
// Re-exporting is safe: ReplacingMergeTree keeps the row with the highest trade count.
type AggregateExporter struct {
	preparer BatchPreparer
}

// NewAggregateExporter creates an exporter over a ClickHouse connection.
func NewAggregateExporter(conn *Conn) *AggregateExporter {
	return &AggregateExporter{preparer: connPreparer{conn: conn}}
}

// NewAggregateExporterWithPreparer creates an exporter over any batch preparer.
func NewAggregateExporterWithPreparer(p BatchPreparer) *AggregateExporter {
	return &AggregateExporter{preparer: p}
}

const insertAggregates = `
	INSERT INTO aggregate_totals (
		granularity, bucket_key, bucket_start,
		trade_count, unique_trader_count, volume_usd, fees_usd
	)
`

// Export inserts all totals in one batch.
func (e *AggregateExporter) Export(ctx context.Context, totals []*domain.AggregateTotal) error {
	if len(totals) == 0 {
		return nil
	}

	batch, err := e.preparer.PrepareBatch(ctx, insertAggregates)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range totals {
		err = batch.Append(
			string(a.Granularity),
			a.Key,
			bucketStart(a),
			uint64(a.TradeCount),
			uint64(a.UniqueTraderCount),
			a.VolumeUSD,
			a.FeesUSD,
		)
		if err != nil {
			return fmt.Errorf("append %s/%s to batch: %w", a.Granularity, a.Key, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// bucketStart is the window start of time-bucketed totals, nil for all-time totals.
func bucketStart(a *domain.AggregateTotal) *time.Time {
	switch a.Granularity {
	case domain.GranularityDaily, domain.GranularityFifteenMinute:
		sec, err := strconv.ParseInt(a.Key, 10, 64)
		if err != nil {
			return nil
		}
		t := time.Unix(sec, 0).UTC()
		return &t
	default:
		return nil
	}
}

// ExportedTotal is one row read back from aggregate_totals.
type ExportedTotal struct {
	Granularity       string          `ch:"granularity"`
	BucketKey         string          `ch:"bucket_key"`
	TradeCount        uint64          `ch:"trade_count"`
	UniqueTraderCount uint64          `ch:"unique_trader_count"`
	VolumeUSD         decimal.Decimal `ch:"volume_usd"`
	FeesUSD           decimal.Decimal `ch:"fees_usd"`
}

// ListExported reads the deduplicated rows of a granularity ordered by bucket key.
func ListExported(ctx context.Context, conn *Conn, g domain.Granularity) ([]ExportedTotal, error) {
	var rows []ExportedTotal
	err := conn.Select(ctx, &rows, `
		SELECT granularity, bucket_key, trade_count, unique_trader_count, volume_usd, fees_usd
		FROM aggregate_totals FINAL
		WHERE granularity = ?
		ORDER BY bucket_key
	`, string(g))
	if err != nil {
		return nil, fmt.Errorf("select exported totals: %w", err)
	}
	return rows, nil
}
