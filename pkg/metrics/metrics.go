// Package metrics defines the Prometheus collectors for the word index and
// its report sinks, and exposes an HTTP handler for scraping.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. Each instance owns its registry so
// several can coexist in one process.
type Metrics struct {
	registry         *prometheus.Registry
	WordsInserted    prometheus.Counter
	EntriesCreated   prometheus.Counter
	InsertsRejected  *prometheus.CounterVec
	DistinctWords    prometheus.Gauge
	TreeHeight       prometheus.Gauge
	InsertDepth      prometheus.Histogram
	LinesIngested    prometheus.Counter
	ReportsPublished *prometheus.CounterVec
	PublishLatency   *prometheus.HistogramVec
	SinkCircuitState *prometheus.GaugeVec
	OpsRequests      *prometheus.CounterVec
	OpsLatency       *prometheus.HistogramVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WordsInserted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordindex_words_inserted_total",
				Help: "Total number of successful word insertions.",
			},
		),
		EntriesCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordindex_entries_created_total",
				Help: "Total number of distinct words added to the index.",
			},
		),
		InsertsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordindex_inserts_rejected_total",
				Help: "Insertions rejected by reason (invalid_input, capacity, other).",
			},
			[]string{"reason"},
		),
		DistinctWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordindex_distinct_words",
				Help: "Number of distinct words currently in the index.",
			},
		),
		TreeHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordindex_tree_height",
				Help: "Nodes on the longest root-to-leaf path of the index.",
			},
		),
		InsertDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wordindex_insert_depth",
				Help:    "Depth of the node touched by each insertion.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
		LinesIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordindex_lines_ingested_total",
				Help: "Total input lines read from all sources.",
			},
		),
		ReportsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordindex_reports_published_total",
				Help: "Report publications by sink and status.",
			},
			[]string{"sink", "status"},
		),
		PublishLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordindex_publish_latency_seconds",
				Help:    "Report publication latency per sink in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"sink"},
		),
		SinkCircuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wordindex_sink_circuit_state",
				Help: "Sink circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"sink"},
		),
		OpsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordindex_ops_requests_total",
				Help: "Requests served by the ops HTTP server.",
			},
			[]string{"method", "route", "status"},
		),
		OpsLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordindex_ops_request_duration_seconds",
				Help:    "Ops HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.WordsInserted,
		m.EntriesCreated,
		m.InsertsRejected,
		m.DistinctWords,
		m.TreeHeight,
		m.InsertDepth,
		m.LinesIngested,
		m.ReportsPublished,
		m.PublishLatency,
		m.SinkCircuitState,
		m.OpsRequests,
		m.OpsLatency,
	)

	return m
}

// Inserted records a successful insertion at the given depth.
func (m *Metrics) Inserted(created bool, depth int) {
	m.WordsInserted.Inc()
	m.InsertDepth.Observe(float64(depth))
	if created {
		m.EntriesCreated.Inc()
	}
}

// Rejected records a failed insertion.
func (m *Metrics) Rejected(err error) {
	m.InsertsRejected.WithLabelValues(rejectReason(err)).Inc()
}

// ObserveIndex refreshes the gauges describing the index shape.
func (m *Metrics) ObserveIndex(distinct, height int) {
	m.DistinctWords.Set(float64(distinct))
	m.TreeHeight.Set(float64(height))
}

// ObservePublish records one sink publication.
func (m *Metrics) ObservePublish(sink string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ReportsPublished.WithLabelValues(sink, status).Inc()
	m.PublishLatency.WithLabelValues(sink).Observe(elapsed.Seconds())
}

// ObserveRequest records one request served by the ops server.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.OpsRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.OpsLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, apperrors.ErrAllocation):
		return "capacity"
	default:
		return "other"
	}
}
