// Package metrics exposes the service's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	PointsAwarded     *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	RealtimeEvents    *prometheus.CounterVec
	RealtimeClients   prometheus.Gauge
	RolloverRuns      *prometheus.CounterVec
	ExternalFailures  *prometheus.CounterVec
	OptimisticRetries *prometheus.CounterVec
	registry          prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alumnet_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alumnet_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		PointsAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alumnet_points_awarded_total",
				Help: "Total points granted by ledger category",
			},
			[]string{"category"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alumnet_notifications_created_total",
				Help: "Total notifications persisted by type",
			},
			[]string{"type"},
		),
		RealtimeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alumnet_realtime_events_total",
				Help: "Total realtime events pushed by event name",
			},
			[]string{"event"},
		),
		RealtimeClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "alumnet_realtime_clients",
				Help: "Number of connected realtime clients",
			},
		),
		RolloverRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alumnet_rollover_runs_total",
				Help: "Total yearly rollover executions by trigger and outcome",
			},
			[]string{"trigger", "outcome"},
		),
		ExternalFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alumnet_external_failures_total",
				Help: "Swallowed failures of best-effort side effects",
			},
			[]string{"dependency"},
		),
		OptimisticRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alumnet_optimistic_retries_total",
				Help: "Read-modify-write retries caused by version conflicts",
			},
			[]string{"entity"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.PointsAwarded,
		m.Notifications,
		m.RealtimeEvents,
		m.RealtimeClients,
		m.RolloverRuns,
		m.ExternalFailures,
		m.OptimisticRetries,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// PointsGranted records points added to a category.
func (m *Metrics) PointsGranted(category string, amount int) {
	if m == nil || amount <= 0 {
		return
	}
	m.PointsAwarded.WithLabelValues(category).Add(float64(amount))
}

// NotificationCreated counts a persisted notification.
func (m *Metrics) NotificationCreated(kind string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind).Inc()
}

// EventPushed counts a realtime event.
func (m *Metrics) EventPushed(event string) {
	if m == nil {
		return
	}
	m.RealtimeEvents.WithLabelValues(event).Inc()
}

// ClientConnected adjusts the connected client gauge.
func (m *Metrics) ClientConnected(delta int) {
	if m == nil {
		return
	}
	m.RealtimeClients.Add(float64(delta))
}

// Rollover records a rollover attempt.
func (m *Metrics) Rollover(trigger, outcome string) {
	if m == nil {
		return
	}
	m.RolloverRuns.WithLabelValues(trigger, outcome).Inc()
}

// ExternalFailure counts a swallowed email or storage failure.
func (m *Metrics) ExternalFailure(dependency string) {
	if m == nil {
		return
	}
	m.ExternalFailures.WithLabelValues(dependency).Inc()
}

// Retry counts an optimistic concurrency retry.
func (m *Metrics) Retry(entity string) {
	if m == nil {
		return
	}
	m.OptimisticRetries.WithLabelValues(entity).Inc()
}
