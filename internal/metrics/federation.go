package metrics

import "github.com/prometheus/client_golang/prometheus"

// Orchestration results.
const (
	ResultSuccess   = "success"
	ResultTimeout   = "timeout"
	ResultInvalid   = "invalid"
	ResultCancelled = "cancelled"
)

// Store call statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Federated search Prometheus metrics.
var (
	StoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fedsearch",
			Name:      "store_requests_total",
			Help:      "Total number of backend store calls by outcome",
		},
		[]string{"store", "status"},
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fedsearch",
			Name:      "store_request_duration_seconds",
			Help:      "Backend store call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"store"},
	)

	StoreRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fedsearch",
			Name:      "store_rows_total",
			Help:      "Total rows returned by backend stores",
		},
		[]string{"store"},
	)

	OrchestrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fedsearch",
			Name:      "orchestrations_total",
			Help:      "Total number of federated searches by result",
		},
		[]string{"result"},
	)

	OrchestrationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fedsearch",
			Name:      "orchestration_duration_seconds",
			Help:      "Federated search duration in seconds, including timeouts",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

var fedMetricsRegistered bool

// RegisterFederationMetrics registers federated search metrics. Must be called once from main.
func RegisterFederationMetrics() {
	if fedMetricsRegistered {
		return
	}
	prometheus.MustRegister(StoreRequestsTotal)
	prometheus.MustRegister(StoreRequestDuration)
	prometheus.MustRegister(StoreRowsTotal)
	prometheus.MustRegister(OrchestrationsTotal)
	prometheus.MustRegister(OrchestrationDuration)
	fedMetricsRegistered = true
}
