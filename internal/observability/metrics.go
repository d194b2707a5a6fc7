package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	assignmentsCreated prometheus.Counter
	gradeBatchesTotal  *prometheus.CounterVec
	resultsAggregated  prometheus.Counter
	statusTransitions  *prometheus.CounterVec
	gradingFeedClients prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the grading service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergrade_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peergrade_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergrade_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		assignmentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peergrade_assignments_created_total",
			Help: "Peer review assignments created by the assignment engine.",
		})

		gradeBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergrade_grade_batches_total",
			Help: "Grade batches submitted by graders, by outcome.",
		}, []string{"outcome"})

		resultsAggregated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peergrade_results_aggregated_total",
			Help: "Grading results written by the aggregator.",
		})

		statusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergrade_grading_transitions_total",
			Help: "Grading lifecycle transitions, by target status.",
		}, []string{"status"})

		gradingFeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "peergrade_grading_feed_clients",
			Help: "Websocket clients subscribed to grading status feeds.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			assignmentsCreated,
			gradeBatchesTotal,
			resultsAggregated,
			statusTransitions,
			gradingFeedClients,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AssignmentsCreated counts peer review rows created.
func AssignmentsCreated() prometheus.Counter {
	RegisterMetrics()
	return assignmentsCreated
}

// GradeBatches counts grade batches by outcome (accepted, rejected).
func GradeBatches() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeBatchesTotal
}

// ResultsAggregated counts grading results written.
func ResultsAggregated() prometheus.Counter {
	RegisterMetrics()
	return resultsAggregated
}

// StatusTransitions counts lifecycle transitions by target status.
func StatusTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return statusTransitions
}

// GradingFeedClients tracks open websocket status feeds.
func GradingFeedClients() prometheus.Gauge {
	RegisterMetrics()
	return gradingFeedClients
}
