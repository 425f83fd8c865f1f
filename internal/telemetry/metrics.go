// Package telemetry регистрирует метрики Prometheus сервиса.
//
// Метрики регистрируются в реестре по умолчанию и отдаются отдельным
// HTTP-листенером (telemetry.metrics_addr), а не основным роутером.
// HTTP-метрики размечаются шаблоном маршрута chi (/api/tasks/{id}),
// а не сырым URL, чтобы не плодить метки.
package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

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
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

// AuditEntriesTotal - исходы записи аудита: recorded, failed, skipped.
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_entries_total",
		Help: "Total number of audit interceptor outcomes.",
	},
	[]string{"outcome"},
)

// WelcomeEmailsTotal - статусы приветственных писем: sent, failed, not-configured.
var WelcomeEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "welcome_emails_total",
		Help: "Total number of welcome emails by delivery status.",
	},
	[]string{"status"},
)

var OverdueTransitionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "task_overdue_transitions_total",
		Help: "Total number of tasks moved from pending to overdue.",
	},
)

var DBAcquiredConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_acquired_connections",
		Help: "Current number of connections acquired from the database pool.",
	},
)

// StartPoolStatsCollector раз в interval снимает значение acquired и пишет его в gauge.
// Останавливается с отменой ctx.
func StartPoolStatsCollector(ctx context.Context, acquired func() int32, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			DBAcquiredConnections.Set(float64(acquired()))
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
