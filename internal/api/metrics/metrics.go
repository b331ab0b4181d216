// Package metrics defines and registers all custom Prometheus metrics of the
// admin console. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Remote API metrics ────────────────────────────────────────────────────────

// RemoteRequestsTotal counts calls made to the remote REST API.
// Labels:
//   - endpoint: logical endpoint name (e.g. "login", "list_users", "list_invoices")
//   - outcome: "ok", "remote_error" (non-2xx) or "transport_error"
var RemoteRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_requests_total",
		Help:      "Total number of remote API calls, by endpoint and outcome.",
	},
	[]string{"endpoint", "outcome"},
)

// RemoteRequestDuration measures remote API round trips.
var RemoteRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_request_duration_seconds",
		Help:      "Duration of remote API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)

// ── List view metrics ─────────────────────────────────────────────────────────

// ListFetchesTotal counts list view fetches.
// Labels:
//   - view: "users" or "invoices"
//   - outcome: "applied", "failed" or "stale"
var ListFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "list_fetches_total",
		Help:      "Total number of list view fetches, by view and outcome.",
	},
	[]string{"view", "outcome"},
)

// DebounceSettledTotal counts settled filter changes per view.
var DebounceSettledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "debounce_settled_total",
		Help:      "Total number of debounced filter values that settled.",
	},
	[]string{"view"},
)

// MutationsTotal counts user mutations.
// Labels:
//   - kind: "create", "update_role" or "delete"
//   - outcome: "success", "failure", "rejected" (caught before any call) or "declined"
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of user mutations, by kind and outcome.",
	},
	[]string{"kind", "outcome"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome ("success", "failure" or
// "rejected" when a field is missing).
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ActiveWorkspaces tracks the number of open per-session workspaces.
var ActiveWorkspaces = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_workspaces",
		Help:      "Current number of open session workspaces.",
	},
)

// AuditQueueDepth tracks audit events waiting in each dispatcher worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
