// Package metrics defines and registers all custom Prometheus metrics for the
// clinic user service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on import through promauto,
// so the /metrics handler exposes them next to the HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic_users"

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersCreatedTotal counts newly created accounts.
// Label:
//   - role: the role assigned to the new account
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by role.",
	},
	[]string{"role"},
)

// UsersDeletedTotal counts permanently removed accounts.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of user accounts deleted.",
	},
)

// PolicyDenialsTotal counts requests rejected by the authorization policy.
// Label:
//   - operation: list, get, create, update or delete
var PolicyDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_denials_total",
		Help:      "Total number of user-management requests denied by role policy.",
	},
	[]string{"operation"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ProfileImagesUploadedTotal counts stored profile images.
var ProfileImagesUploadedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_images_uploaded_total",
		Help:      "Total number of profile images uploaded.",
	},
)

// ── Background metrics ────────────────────────────────────────────────────────

// KeepAlivePingsTotal counts database keep-alive pings.
// Label:
//   - result: "ok" or "error"
var KeepAlivePingsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "keepalive_pings_total",
		Help:      "Total number of database keep-alive pings, by result.",
	},
	[]string{"result"},
)

// CleanupQueueDepth tracks pending orphaned-object removals per worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var CleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cleanup_queue_depth",
		Help:      "Current number of object removals pending in each cleanup worker channel.",
	},
	[]string{"worker_id"},
)

// CleanupErrorsTotal counts object removals that failed.
var CleanupErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_errors_total",
		Help:      "Total number of orphaned-object removals that failed.",
	},
)
