// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "token_cache"

// Metrics holds all Prometheus metrics for the token cache.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Cache metrics
	CacheLookups *prometheus.CounterVec
	Evictions    prometheus.Counter

	// Fetch metrics
	Fetches       *prometheus.CounterVec
	FetchDuration prometheus.Histogram

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCErrors      *prometheus.CounterVec
}

// NewMetrics registers all metrics with reg. A nil reg uses the default
// Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "lookups_total",
			Help:      "Store lookups by identifier kind and result",
		}, []string{"kind", "result"}),
		Evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "evictions_total",
			Help:      "Tokens evicted from a bounded store",
		}),

		Fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "total",
			Help:      "Token metadata fetches by result",
		}, []string{"result"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Time to fetch token metadata from the node",
			Buckets:   prometheus.DefBuckets,
		}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "JSON-RPC call latency by method",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		RPCErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "errors_total",
			Help:      "Failed JSON-RPC calls by method",
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordLookup counts a store lookup for an identifier of the given kind.
func (m *Metrics) RecordLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordFetch records one metadata fetch.
func (m *Metrics) RecordFetch(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Fetches.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(elapsed.Seconds())
}

// RecordEviction counts one evicted token.
func (m *Metrics) RecordEviction() {
	if m == nil {
		return
	}
	m.Evictions.Inc()
}

// ObserveRPC records RPC latency. Its signature matches rpc.Observer.
func (m *Metrics) ObserveRPC(method string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.RPCCallLatency.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		m.RPCErrors.WithLabelValues(method).Inc()
	}
}
