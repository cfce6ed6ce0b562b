// Package metrics defines and registers all custom Prometheus metrics for the
// sign-in portal. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// through promauto; the /metrics route serves them next to echoprometheus'
// HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signin"

// ── Submit metrics ────────────────────────────────────────────────────────────

// SubmissionsTotal counts finished sign-in submits.
// Label:
//   - outcome: "success", "failure" or "cancelled"
var SubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of sign-in submits, by outcome.",
	},
	[]string{"outcome"},
)

// SubmissionsInFlight is the number of submits waiting on the auth backend.
// Submits for the same session are not serialised, so this may exceed the
// number of open sessions.
var SubmissionsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "submissions_in_flight",
		Help:      "Number of sign-in submits currently in progress.",
	},
)

// ValidationFailuresTotal counts schema rule failures that blocked a submit.
// Label:
//   - field: "email" or "password"
var ValidationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Total number of field validation failures on the sign-in form.",
	},
	[]string{"field"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendCallDuration measures calls to the auth backend.
// Labels:
//   - op: "login", "get_user" or "logout"
//   - result: "ok" or "error"
var BackendCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_call_duration_seconds",
		Help:      "Duration of auth backend calls.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"op", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of attempts waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of sign-in attempts pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts attempts dropped because a worker channel was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of sign-in attempts dropped from the audit trail.",
	},
)

// AuditErrorsTotal counts attempts that could not be persisted.
var AuditErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of sign-in attempts that failed to persist.",
	},
)

// ObserveBackend records one auth backend call.
func ObserveBackend(op string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	BackendCallDuration.WithLabelValues(op, result).Observe(seconds)
}
