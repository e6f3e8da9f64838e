package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	authzDecisionsTotal  *prometheus.CounterVec
	auditWritesTotal     *prometheus.CounterVec
	auditWriteFailCount  prometheus.Counter
	libraryApprovalTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		authzDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Permission evaluator outcomes by entity type and action.",
		}, []string{"entity", "action", "outcome"})

		auditWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_writes_total",
			Help: "Audit entries persisted, by action tag.",
		}, []string{"action"})

		auditWriteFailCount = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Audit entries lost to storage errors; the primary mutation is unaffected.",
		})

		libraryApprovalTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_approval_events_total",
			Help: "Library approval workflow events by resulting state.",
		}, []string{"state"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			authzDecisionsTotal,
			auditWritesTotal,
			auditWriteFailCount,
			libraryApprovalTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AuthzDecisions exposes the permission decision counter.
func AuthzDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return authzDecisionsTotal
}

// AuditWrites exposes the audit entry counter.
func AuditWrites() *prometheus.CounterVec {
	RegisterMetrics()
	return auditWritesTotal
}

// AuditWriteFailures exposes the lost-audit-entry counter.
func AuditWriteFailures() prometheus.Counter {
	RegisterMetrics()
	return auditWriteFailCount
}

// LibraryApprovalEvents exposes the approval workflow counter.
func LibraryApprovalEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return libraryApprovalTotal
}
