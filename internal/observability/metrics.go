package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_broker"

// Metrics holds the Prometheus counters, histograms, and gauges for the adapter.
type Metrics struct {
	AdapterReady prometheus.Gauge

	// Fetch cycle metrics.
	Fetches       *prometheus.CounterVec // labels: outcome={hit,success,empty,error,not_ready}
	FetchDuration prometheus.Histogram

	// Cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,expired}

	// Gateway metrics.
	GatewayRequests *prometheus.CounterVec // labels: outcome={success,empty,error,circuit_open}
	GatewayDuration prometheus.Histogram

	// Host-side metrics.
	Publishes *prometheus.CounterVec // labels: outcome={success,error}
	Polls     *prometheus.CounterVec // labels: outcome={ok,no_data}
}

// NewMetrics creates and registers all adapter metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AdapterReady,
		m.Fetches,
		m.FetchDuration,
		m.CacheLookups,
		m.GatewayRequests,
		m.GatewayDuration,
		m.Publishes,
		m.Polls,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AdapterReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "adapter_ready",
			Help:      "1 when the adapter configuration is valid, 0 otherwise.",
		}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Fetch cycles by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of fetch cycles that reached the provider.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Snapshot cache lookups by result.",
		}, []string{"result"}),
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Weather gateway requests by outcome.",
		}, []string{"outcome"}),
		GatewayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Weather gateway round-trip duration in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publishes_total",
			Help:      "Snapshots published to Kafka by outcome.",
		}, []string{"outcome"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Scheduled polls by outcome.",
		}, []string{"outcome"}),
	}
}
