// Package telemetry provides application-level observability for the M&E platform.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<MIS_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Audit trail write failure counter (primary mutations never fail on audit errors,
//     so this counter is the only place systemic audit breakage becomes visible)
//   - Plan-limit rejection and report decision counters
//   - Subscription expiry notification counters
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/projects/:id/status)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as entity IDs.
//
// # Usage
//
// Import the package for side effects so metrics are registered before the HTTP server
// starts listening, or use an exported var directly:
//
//	telemetry.ReportDecisionsTotal.WithLabelValues("approved").Inc()
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /api/v1/reports/:id/approve),
// NOT the raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
//
// Example PromQL queries:
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
//   - Average latency:                   rate(http_request_duration_seconds_sum[5m]) / rate(http_request_duration_seconds_count[5m])
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Audit trail metrics.
//
// AuditWriteFailuresTotal is a CounterVec with label {reason} incremented whenever an
// audit entry cannot be persisted or shipped.  Audit writes are deliberately best-effort
// and never fail the originating request, so this counter (plus the accompanying warn
// log) is the sole signal that the trail has gaps.  Alert on any sustained increase.
//
// Example PromQL queries:
//   - Failure rate:      rate(audit_write_failures_total[15m])
//   - Alert expression:  increase(audit_write_failures_total[30m]) > 0
var AuditWriteFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Total number of audit log entries that could not be persisted or shipped, by reason.",
	},
	[]string{"reason"},
)

// Domain decision metrics.
//
// PlanLimitRejectionsTotal is a plain Counter incremented each time a project
// activation is rejected because the organization is at its plan's active-project
// limit (or has no active subscription).  A sudden spike usually means a tenant
// outgrew its plan.
//
// ReportDecisionsTotal is a CounterVec with label {decision} ("approved" /
// "rejected") incremented once per successful report state transition.
//
// Example PromQL queries:
//   - Rejection ratio:  sum(rate(report_decisions_total{decision="rejected"}[1d])) / sum(rate(report_decisions_total[1d]))
//   - Plan pressure:    increase(plan_limit_rejections_total[1d])
var (
	PlanLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plan_limit_rejections_total",
			Help: "Total number of project activations rejected by subscription plan gating.",
		},
	)

	ReportDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_decisions_total",
			Help: "Total number of report approval decisions, by decision outcome.",
		},
		[]string{"decision"},
	)
)

// SubscriptionExpiryNotificationsSentTotal is a plain Counter (no labels) incremented
// once per email successfully delivered by the subscription expiry background job.
// A stalled counter combined with subscriptions approaching expiry is a useful alert
// signal for SMTP delivery failures.
//
// Example PromQL queries:
//   - Rate of notifications sent:  rate(subscription_expiry_notifications_sent_total[24h])
var SubscriptionExpiryNotificationsSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "subscription_expiry_notifications_sent_total",
		Help: "Total number of subscription expiry warning emails successfully sent.",
	},
)

// AttachmentUploadsTotal is a CounterVec with label {backend} incremented once per
// report attachment stored.  Useful for verifying that the configured storage backend
// is actually being exercised after a migration between backends.
var AttachmentUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "attachment_uploads_total",
		Help: "Total number of report attachments uploaded, by storage backend.",
	},
	[]string{"backend"},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <MIS_DATABASE_MAX_CONNECTIONS> * 100
//   - Alert on near-exhaustion: db_open_connections > 20  (for max_connections=25)
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
