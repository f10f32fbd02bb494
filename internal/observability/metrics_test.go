package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.EventsProcessed.WithLabelValues("exchange").Inc()
	m.EventsProcessed.WithLabelValues("exchange").Inc()
	m.AggregateWrites.WithLabelValues("daily").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsProcessed.WithLabelValues("exchange")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AggregateWrites.WithLabelValues("daily")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TradesWritten))
}

func TestRecordSettlementWritten_PricedLabel(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.SettlementsWritten.WithLabelValues("reclaim", "false"))

	RecordSettlementWritten("reclaim", false)

	after := testutil.ToFloat64(DefaultMetrics.SettlementsWritten.WithLabelValues("reclaim", "false"))
	assert.Equal(t, before+1, after)
}
