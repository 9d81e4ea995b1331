// Package metrics holds every Prometheus collector the detection
// pipeline and admin API publish, plus the narrow recorder functions
// that touch them. It sits below checks, engine, analytics, and api in
// the import graph — mirroring the way logging sits below everything
// else — so the hot path can record a metric without either package
// depending on the other.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality — check name and decision action are
// both closed, small sets, so they're safe label values; player id never
// appears as a label.
var (
	checkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentinel_check_duration_seconds",
		Help:    "Time spent analyzing one event in a single check",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
	}, []string{"check"})

	checkInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_check_invocations_total",
		Help: "Total times a check ran against an event",
	}, []string{"check"})

	checkOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_check_outcomes_total",
		Help: "Check results by outcome, clean or significant",
	}, []string{"check", "outcome"}) // outcome: "clean", "significant"

	violationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_violations_total",
		Help: "Total violations fused by the aggregator, by category",
	}, []string{"category"})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_decisions_total",
		Help: "Total mitigation decisions, by action",
	}, []string{"action"})

	trackedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_tracked_players",
		Help: "Current number of players with live context",
	})

	analyticsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_analytics_dropped_total",
		Help: "Analytics records dropped because the uplink queue was full",
	})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_websocket_connections_active",
		Help: "Currently active admin WebSocket connections",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // bounded: "rate_limit", "origin", "ws_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentinel_http_request_duration_seconds",
		Help:    "Admin HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_http_requests_total",
		Help: "Total admin HTTP requests",
	}, []string{"method", "endpoint", "status"})
)

// RecordCheckDuration records one check's analyze latency.
func RecordCheckDuration(check string, d time.Duration) {
	checkDuration.WithLabelValues(check).Observe(d.Seconds())
}

// RecordCheckInvocation increments the invocation counter for a check.
func RecordCheckInvocation(check string) {
	checkInvocationsTotal.WithLabelValues(check).Inc()
}

// RecordCheckOutcome increments the outcome counter for a check.
// significant distinguishes a result that cleared the aggregator's
// significance threshold from one that didn't.
func RecordCheckOutcome(check string, significant bool) {
	outcome := "clean"
	if significant {
		outcome = "significant"
	}
	checkOutcomesTotal.WithLabelValues(check, outcome).Inc()
}

// RecordViolation increments the violation counter for a category.
func RecordViolation(category string) {
	violationsTotal.WithLabelValues(category).Inc()
}

// RecordDecision increments the decision counter for an action.
func RecordDecision(action string) {
	decisionsTotal.WithLabelValues(action).Inc()
}

// UpdateTrackedPlayers updates the tracked-player gauge.
func UpdateTrackedPlayers(count int) {
	trackedPlayers.Set(float64(count))
}

// RecordAnalyticsDropped increments the analytics-drop counter.
func RecordAnalyticsDropped() {
	analyticsDropped.Inc()
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_limit".
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics.
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates the admin WebSocket connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}
