package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	authOutcomes    *prometheus.CounterVec
	missionMoves    *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

// NewMetrics builds a private registry with process and Go collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_service_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mission_service_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_service_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_service_auth_outcomes_total",
			Help: "Authentication attempts by operation and outcome.",
		}, []string{"operation", "outcome"}),
		missionMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_service_mission_transitions_total",
			Help: "Mission status transitions by source, target and result.",
		}, []string{"from", "to", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_service_notifications_total",
			Help: "Notifications dispatched by event type and result.",
		}, []string{"event", "result"}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.errors, m.authOutcomes, m.missionMoves, m.notifications)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordAuth counts a signup, login, refresh or token resolution outcome.
func (m *Metrics) RecordAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(operation, outcome).Inc()
}

// RecordTransition counts an attempted mission status change.
func (m *Metrics) RecordTransition(from, to string, ok bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !ok {
		result = "rejected"
	}
	m.missionMoves.WithLabelValues(from, to, result).Inc()
}

// RecordNotification counts a dispatched notification.
func (m *Metrics) RecordNotification(event string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(event, result).Inc()
}
