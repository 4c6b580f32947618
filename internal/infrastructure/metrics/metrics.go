// Package metrics exposes sync, Silvasoft request, event delivery and
// scheduler metrics to Prometheus.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boodo/silvasync/internal/application/integration"
	domain "github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/infrastructure/event"
	"github.com/boodo/silvasync/internal/infrastructure/scheduler"
	"github.com/boodo/silvasync/internal/infrastructure/silvasoft"
)

// Namespace prefixes every metric
const Namespace = "silvasync"

// Metrics owns a private registry and the collectors registered on it
type Metrics struct {
	registry *prometheus.Registry

	syncItems       *prometheus.CounterVec
	syncRuns        *prometheus.CounterVec
	syncRunDuration *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	deliveries      *prometheus.CounterVec
	taskRuns        *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
}

var (
	_ integration.SyncRecorder  = (*Metrics)(nil)
	_ silvasoft.RequestObserver = (*Metrics)(nil)
	_ event.DeliveryRecorder    = (*Metrics)(nil)
	_ scheduler.TaskObserver    = (*Metrics)(nil)
)

// New creates the collectors and registers them with the Go and process
// collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_items_total",
			Help:      "Items handled by a sync flow, by outcome.",
		}, []string{"flow", "outcome"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_runs_total",
			Help:      "Completed sync runs, by status.",
		}, []string{"flow", "status"}),
		syncRunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "sync_run_duration_seconds",
			Help:      "Duration of sync runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"flow"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "silvasoft",
			Name:      "requests_total",
			Help:      "Silvasoft API requests, by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "silvasoft",
			Name:      "request_duration_seconds",
			Help:      "Latency of Silvasoft API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "deliveries_total",
			Help:      "Event deliveries, by type and outcome.",
		}, []string{"event_type", "outcome"}),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "task_runs_total",
			Help:      "Scheduled task ticks, by outcome.",
		}, []string{"task", "outcome"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Duration of scheduled task runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"task"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.syncItems,
		m.syncRuns,
		m.syncRunDuration,
		m.requests,
		m.requestDuration,
		m.deliveries,
		m.taskRuns,
		m.taskDuration,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDB exports connection pool stats for db
func (m *Metrics) RegisterDB(db *sql.DB, dbName string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordItem implements integration.SyncRecorder
func (m *Metrics) RecordItem(flow string, outcome integration.Outcome) {
	m.syncItems.WithLabelValues(flow, string(outcome)).Inc()
}

// RecordRun implements integration.SyncRecorder
func (m *Metrics) RecordRun(flow string, status domain.SyncStatus, elapsed time.Duration) {
	m.syncRuns.WithLabelValues(flow, status.String()).Inc()
	m.syncRunDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

// ObserveRequest implements silvasoft.RequestObserver. A request without a
// response is counted under code "error".
func (m *Metrics) ObserveRequest(endpoint string, statusCode int, elapsed time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.requests.WithLabelValues(endpoint, code).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordDelivery implements event.DeliveryRecorder
func (m *Metrics) RecordDelivery(eventType, outcome string) {
	m.deliveries.WithLabelValues(eventType, outcome).Inc()
}

// ObserveTask implements scheduler.TaskObserver. Skipped ticks are counted
// but not timed.
func (m *Metrics) ObserveTask(task, outcome string, elapsed time.Duration) {
	m.taskRuns.WithLabelValues(task, outcome).Inc()
	if outcome != scheduler.TaskSkipped {
		m.taskDuration.WithLabelValues(task).Observe(elapsed.Seconds())
	}
}
