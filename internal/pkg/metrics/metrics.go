// Package metrics defines and registers all custom Prometheus metrics for the
// site. It is the single source of truth for metric names, labels, and help
// strings.
//
// Metrics register with the default Prometheus registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "haphazard"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthOperationsTotal counts credential operations.
// Labels:
//   - operation: "sign_in", "sign_up" or "sign_out"
//   - result: "ok", "duplicate", "network" or "rejected"
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of credential operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// SessionStoresActive tracks the number of live per-session stores.
var SessionStoresActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_stores_active",
		Help:      "Current number of session stores held by the registry.",
	},
)

// TokenRefreshTotal counts background token refreshes.
// Label:
//   - result: "ok" or "rejected" (session ended) or "error"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of access token refresh attempts, by result.",
	},
	[]string{"result"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts protected-route decisions.
// Label:
//   - decision: "wait", "redirect" or "render"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions served, by decision.",
	},
	[]string{"decision"},
)

// ── Waiting list metrics ──────────────────────────────────────────────────────

// WaitlistSignupsTotal counts waiting-list submissions.
// Label:
//   - result: "joined", "duplicate" or "error"
var WaitlistSignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "waitlist_signups_total",
		Help:      "Total number of waiting-list submissions, by result.",
	},
	[]string{"result"},
)

// WaitlistSyncTotal counts newsletter forwarding attempts.
// Label:
//   - result: "ok" or "error"
var WaitlistSyncTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "waitlist_sync_total",
		Help:      "Total number of waiting-list entries forwarded to the newsletter provider.",
	},
	[]string{"result"},
)

// WaitlistQueueDepth tracks entries waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var WaitlistQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "waitlist_queue_depth",
		Help:      "Current number of entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// WaitlistSyncDuration measures one newsletter forwarding round trip.
var WaitlistSyncDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "waitlist_sync_duration_seconds",
		Help:      "Duration of forwarding one waiting-list entry to the newsletter provider.",
		Buckets:   prometheus.DefBuckets,
	},
)
