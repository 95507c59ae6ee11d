// Package metrics holds the Prometheus collectors of the service. Collectors
// are registered once on a dedicated registry exposed at /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of HTTP requests processed",
	}, []string{"method", "path", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	AuthAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Login and token verification attempts by method and result",
	}, []string{"method", "result"})

	AccountOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_operations_total",
		Help: "Account lifecycle operations by operation and result",
	}, []string{"op", "result"})

	AuditJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_audit_jobs_total",
		Help: "Audit jobs handled by the worker pool by result",
	}, []string{"result"}) // recorded|error|dead_lettered|invalid
)

// Register adds all collectors (plus Go/process collectors) to the registry.
// Calling it more than once is a no-op.
func Register() {
	once.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			HTTPRequests, HTTPDuration, AuthAttempts, AccountOperations, AuditJobs,
		)
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Result labels an operation outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
