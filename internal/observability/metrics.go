// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Handler metrics
	EventsProcessed    *prometheus.CounterVec
	PriceUnavailable   *prometheus.CounterVec
	TradesWritten      prometheus.Counter
	SettlementsWritten *prometheus.CounterVec
	AggregateWrites    *prometheus.CounterVec

	// Replay metrics
	EventsSkipped     prometheus.Counter
	LastAppliedBlock  prometheus.Gauge
	EventApplyLatency *prometheus.HistogramVec
	ReplayFailures    *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "synth_exchange_stats"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Handler metrics
		EventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "events_processed_total",
			Help:      "Total number of events handled by kind",
		}, []string{"kind"}),
		PriceUnavailable: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "price_unavailable_total",
			Help:      "Total number of rate lookups that found no price, by event kind",
		}, []string{"kind"}),
		TradesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "trades_written_total",
			Help:      "Total number of trade records written",
		}),
		SettlementsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "settlements_written_total",
			Help:      "Total number of reclaim and rebate records written",
		}, []string{"kind", "priced"}),
		AggregateWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rollup",
			Name:      "aggregate_writes_total",
			Help:      "Total number of aggregate total writes by granularity",
		}, []string{"granularity"}),

		// Replay metrics
		EventsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "events_skipped_total",
			Help:      "Total number of events skipped at or before the checkpoint",
		}),
		LastAppliedBlock: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "last_applied_block",
			Help:      "Block number of the last fully applied event",
		}),
		EventApplyLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "event_apply_latency_seconds",
			Help:      "Time to apply and commit one event in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		ReplayFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "failures_total",
			Help:      "Total number of replay runs stopped by a hard fault",
		}, []string{"reason"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordEventProcessed increments the events processed counter.
func RecordEventProcessed(kind string) {
	DefaultMetrics.EventsProcessed.WithLabelValues(kind).Inc()
}

// RecordPriceUnavailable increments the price unavailable counter.
func RecordPriceUnavailable(kind string) {
	DefaultMetrics.PriceUnavailable.WithLabelValues(kind).Inc()
}

// RecordTradeWritten increments the trades written counter.
func RecordTradeWritten() {
	DefaultMetrics.TradesWritten.Inc()
}

// RecordSettlementWritten increments the settlements written counter.
func RecordSettlementWritten(kind string, priced bool) {
	label := "false"
	if priced {
		label = "true"
	}
	DefaultMetrics.SettlementsWritten.WithLabelValues(kind, label).Inc()
}

// RecordAggregateWrite increments the aggregate writes counter.
func RecordAggregateWrite(granularity string) {
	DefaultMetrics.AggregateWrites.WithLabelValues(granularity).Inc()
}

// RecordEventSkipped increments the events skipped counter.
func RecordEventSkipped() {
	DefaultMetrics.EventsSkipped.Inc()
}

// RecordEventApplied records a committed event.
func RecordEventApplied(kind string, blockNumber int64, seconds float64) {
	DefaultMetrics.LastAppliedBlock.Set(float64(blockNumber))
	DefaultMetrics.EventApplyLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordReplayFailure increments the replay failures counter.
func RecordReplayFailure(reason string) {
	DefaultMetrics.ReplayFailures.WithLabelValues(reason).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
