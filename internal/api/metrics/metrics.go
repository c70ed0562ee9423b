// Package metrics defines and registers the custom Prometheus metrics of the
// XPLR session gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// All vectors are registered with the default registry at package init via
// promauto; request-level HTTP metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "xplr_gateway"

// ── Navigation ───────────────────────────────────────────────────────────────

// NavigationDecisionsTotal counts guard evaluations of requested screens.
// Labels:
//   - guard:   guard kind of the requested route (e.g. "requires_owner")
//   - outcome: "allow" or the redirect target (e.g. "/auth", "/forbidden")
var NavigationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "navigation_decisions_total",
		Help:      "Total number of guard decisions, by guard kind and outcome.",
	},
	[]string{"guard", "outcome"},
)

// ── Session ──────────────────────────────────────────────────────────────────

// SessionMutationsTotal counts session mutations.
// Labels:
//   - op:     "login", "register", "onboarding", "set_mode", "toggle_mode", "logout"
//   - result: "ok" or "error"
var SessionMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_mutations_total",
		Help:      "Total number of session mutations, by operation and result.",
	},
	[]string{"op", "result"},
)

// DevicesIssuedTotal counts device cookies minted for new or tampered clients.
var DevicesIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "devices_issued_total",
		Help:      "Total number of device identities issued.",
	},
)

// ── Backend ──────────────────────────────────────────────────────────────────

// BackendUnauthorizedTotal counts 401 responses that cleared a stored token.
var BackendUnauthorizedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_unauthorized_total",
		Help:      "Total number of backend 401 responses that cleared the device token.",
	},
)

// ── Audit ────────────────────────────────────────────────────────────────────

// AuditEventsTotal counts session events by what happened to them.
// Label:
//   - result: "stored", "failed", "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of session audit events, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks pending events per audit worker.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of session events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// ObserveNavigation records one guard decision.
func ObserveNavigation(guard string, allowed bool, redirectTo string) {
	outcome := "allow"
	if !allowed {
		outcome = redirectTo
	}
	NavigationDecisionsTotal.WithLabelValues(guard, outcome).Inc()
}

// ObserveMutation records the result of a session mutation.
func ObserveMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SessionMutationsTotal.WithLabelValues(op, result).Inc()
}
