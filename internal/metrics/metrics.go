package metrics

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	grpcProm "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
)

const divisor = 100

// Metrics defines all Prometheus metrics for the preferences service.
type Metrics struct {
	registry *prometheus.Registry

	// RED (Rate, Errors, Duration) for HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec

	// Business metrics
	PreferenceChanges *prometheus.CounterVec // by operation
	Reconciliations   *prometheus.CounterVec // by digest type
	SupersededIntents *prometheus.CounterVec // by preference key
	ActiveSessions    prometheus.Gauge
	PushOutcomes      *prometheus.CounterVec // by outcome

	// Cron job metrics
	CronRuns         *prometheus.CounterVec // by job
	CronRunDuration  *prometheus.HistogramVec
	DueNotifications *prometheus.CounterVec // by digest type

	// RabbitMQ publish metrics
	RabbitPublishTotal *prometheus.CounterVec // by routing_key, result

	// Flag store metrics
	FlagStoreLatency *prometheus.HistogramVec
	FlagStoreResults *prometheus.CounterVec

	ServiceUptime prometheus.Gauge

	BusinessErrors  *prometheus.CounterVec
	TechnicalErrors *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics under the given namespace.
// db may be nil, in which case no database stats are collected.
func NewMetrics(namespace string, db *sql.DB, dbName string) *Metrics {
	registry := prometheus.NewRegistry()
	errorLabels := []string{"error_type", "severity"}
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests total",
			},
			[]string{"method", "endpoint", "status_class"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "In-flight HTTP requests",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		PreferenceChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "preference_changes_total",
				Help:      "User initiated preference changes",
			},
			[]string{"operation"},
		),
		Reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hour_reconciliations_total",
				Help:      "Local hour indexes overwritten by the server value",
			},
			[]string{"type"},
		),
		SupersededIntents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "superseded_intents_total",
				Help:      "Remote calls dropped or ignored because a newer call arrived",
			},
			[]string{"key"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Preference sessions held in memory",
			},
		),
		PushOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "push_permission_outcomes_total",
				Help:      "Push permission request outcomes",
			},
			[]string{"outcome"},
		),

		CronRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cron_runs_total",
				Help:      "Cron job executions",
			},
			[]string{"job"},
		),
		CronRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cron_run_duration_seconds",
				Help:      "Duration of cron jobs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		DueNotifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "due_notifications_total",
				Help:      "Digests and reading reminders handed to delivery",
			},
			[]string{"type"},
		),

		RabbitPublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rabbitmq_publish_total",
				Help:      "RabbitMQ messages published",
			},
			[]string{"routing_key", "result"},
		),

		FlagStoreLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "flag_store_duration_seconds",
				Help:      "Duration of flag store operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		FlagStoreResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flag_store_results_total",
				Help:      "Flag store operation results",
			},
			[]string{"metric"},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_uptime_seconds",
				Help:      "Service start time in seconds",
			},
		),

		BusinessErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "business_errors_total",
				Help:      "Total business errors",
			},
			errorLabels,
		),
		TechnicalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "technical_errors_total",
				Help:      "Total technical errors",
			},
			errorLabels,
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
		m.PreferenceChanges,
		m.Reconciliations,
		m.SupersededIntents,
		m.ActiveSessions,
		m.PushOutcomes,
		m.CronRuns,
		m.CronRunDuration,
		m.DueNotifications,
		m.RabbitPublishTotal,
		m.FlagStoreLatency,
		m.FlagStoreResults,
		m.ServiceUptime,
		m.BusinessErrors,
		m.TechnicalErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if db != nil {
		registry.MustRegister(collectors.NewDBStatsCollector(db, dbName))
	}

	grpcProm.EnableHandlingTimeHistogram()
	registry.MustRegister(grpcProm.DefaultServerMetrics)

	m.ServiceUptime.SetToCurrentTime()

	return m
}

// Handler exposes this registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTPMiddleware instruments Gin HTTP handlers for RED metrics.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		c.Next()
		m.HTTPRequestsInFlight.Dec()

		dur := time.Since(start).Seconds()
		status := c.Writer.Status()
		statusClass := fmt.Sprintf("%dxx", status/divisor)

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), statusClass).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, c.FullPath()).Observe(dur)
	}
}

// UnaryServerInterceptor returns a gRPC interceptor for server-side metrics.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return grpcProm.UnaryServerInterceptor
}

// StreamServerInterceptor returns a gRPC interceptor for server-side streaming metrics.
func (m *Metrics) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return grpcProm.StreamServerInterceptor
}

// InitializeGRPC pre-populates the gRPC metrics for every registered service.
func (m *Metrics) InitializeGRPC(s *grpc.Server) {
	grpcProm.DefaultServerMetrics.InitializeMetrics(s)
}

// CronJob wraps a function with cron metrics (runs + duration).
func (m *Metrics) CronJob(job string, fn func()) {
	start := time.Now()
	m.CronRuns.WithLabelValues(job).Inc()
	fn()
	m.CronRunDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}

// RecordRabbitPublish counts a publish attempt (routing key) result ("ok" or "error").
func (m *Metrics) RecordRabbitPublish(routingKey string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RabbitPublishTotal.WithLabelValues(routingKey, result).Inc()
}

// ObserveLatency and IncrementCounter make Metrics usable as a flag store collector.
func (m *Metrics) ObserveLatency(operation string, duration time.Duration) {
	m.FlagStoreLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) IncrementCounter(metric string, _ ...string) {
	m.FlagStoreResults.WithLabelValues(metric).Inc()
}
