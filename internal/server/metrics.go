package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "wasmlet").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// metrics holds the Prometheus metrics for the dev server.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reloadsSignaled prometheus.Counter
	observedClients prometheus.Gauge
}

// globalMetrics is the singleton metrics instance.
var (
	globalMetrics     *metrics
	globalMetricsOnce sync.Once
)

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "wasmlet",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "requests_total",
			Help:        "Total number of HTTP requests by route kind and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "request_duration_seconds",
			Help:        "Request handling duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		reloadsSignaled: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "reloads_signaled_total",
			Help:        "Total number of reload signals delivered to polling browsers",
			ConstLabels: config.ConstLabels,
		}),

		observedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "observed_clients",
			Help:        "Number of distinct clients that have requested the entry page",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// serverMetrics returns the singleton metrics, initializing with the
// default config on first use.
func serverMetrics() *metrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = initMetrics(defaultMetricsConfig())
	})
	return globalMetrics
}

// recordRequest records one resolved request.
func (m *metrics) recordRequest(result RouteResult, seconds float64, clients int) {
	route := result.Kind.String()
	m.requestsTotal.WithLabelValues(route, statusLabel(result.Status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(seconds)
	if result.ReloadNeeded {
		m.reloadsSignaled.Inc()
	}
	m.observedClients.Set(float64(clients))
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
