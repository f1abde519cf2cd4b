// Package prometheus defines the service's metric surface: request counters
// and latencies for the HTTP layer, signal health for the recommendation
// ensemble, and run statistics for duplicate detection.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sceniq"

// Metrics holds every collector the service registers.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RecommendationsTotal    *prometheus.CounterVec
	RecommendationDuration  prometheus.Histogram
	RecommendationCandidates prometheus.Histogram
	SignalUnavailableTotal  *prometheus.CounterVec

	DedupRunsTotal    *prometheus.CounterVec
	DedupRunDuration  prometheus.Histogram
	DedupGroupsFound  prometheus.Gauge

	EventsConsumedTotal *prometheus.CounterVec

	GRPCRequestsTotal   *prometheus.CounterVec
	GRPCRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		RecommendationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation requests by outcome.",
		}, []string{"status"}),
		RecommendationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "End-to-end recommendation latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		RecommendationCandidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_candidates",
			Help:      "Candidate set size per recommendation request.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		SignalUnavailableTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_unavailable_total",
			Help:      "Requests where an ensemble signal degraded to zero.",
		}, []string{"signal"}),

		DedupRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_runs_total",
			Help:      "Duplicate-detection runs by outcome.",
		}, []string{"status"}),
		DedupRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dedup_run_duration_seconds",
			Help:      "Duplicate-detection sweep latency.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		DedupGroupsFound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dedup_groups_found",
			Help:      "Duplicate groups found by the most recent sweep.",
		}),

		EventsConsumedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Scenario events consumed by the worker, by result.",
		}, []string{"result"}),

		GRPCRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by service, method, and status code.",
		}, []string{"service", "method", "code"}),
		GRPCRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request latency by service and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method"}),
	}
}

// ObserveGRPC records one completed gRPC request.
func (m *Metrics) ObserveGRPC(service, method, code string, seconds float64) {
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(seconds)
}
