// Package metrics holds the Prometheus collectors exposed by this service.
package metrics

import (
	"net/http"

	"github.com/avbraun/durasched/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatcher loop

	DispatchCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "dispatch_cycle_duration_seconds",
		Help:      "Wall-clock time of one dispatcher poll-sleep-select iteration.",
		Buckets:   []float64{.001, .01, .1, 1, 5, 30, 60, 300, 3600},
	})

	PendingTasks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "pending_tasks",
		Help:      "1 if GetNextPending returned a live task on the last poll, else 0.",
	})

	NextTriggerSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "next_trigger_seconds",
		Help:      "Seconds until the next pending task's trigger_at, as of the last poll. Negative if already due.",
	})

	// Task processing outcomes

	TasksProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "tasks_processed_total",
		Help:      "Total tasks processed, by execution outcome.",
	}, []string{"status"})

	TasksCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "tasks_created_total",
		Help:      "Total tasks created, by kind.",
	}, []string{"kind"})

	DispatcherErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "dispatcher_errors_total",
		Help:      "Total GetNextPending/ProcessTask errors swallowed by the dispatcher loop.",
	})

	// HTTP

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Register registers every collector above with the default registry.
func Register() {
	prometheus.MustRegister(
		DispatchCycleDuration,
		PendingTasks,
		NextTriggerSeconds,
		TasksProcessedTotal,
		TasksCreatedTotal,
		DispatcherErrorsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer returns the metrics HTTP server: /metrics plus the health
// endpoints, served on their own listener separate from the main API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", checker.LivenessHandler)
	mux.HandleFunc("/readyz", checker.ReadinessHandler)
	return &http.Server{Addr: addr, Handler: mux}
}
