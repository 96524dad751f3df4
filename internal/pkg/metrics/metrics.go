// Package metrics defines and registers the custom Prometheus metrics of the
// miniblog API. It is the single source of truth for metric names, labels and
// help strings.
//
// Metrics register with the default Prometheus registry at package init via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "miniblog"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts credential operations.
// Labels:
//   - op: "register", "login", "refresh" or "logout"
//   - result: "success", "failure" or "conflict"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of credential operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ── Relationship metrics ─────────────────────────────────────────────────────

// FollowTogglesTotal counts follow toggles by resulting state ("followed"/"unfollowed").
var FollowTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "follow_toggles_total",
		Help:      "Total number of follow toggles, by resulting state.",
	},
	[]string{"state"},
)

// LikeTogglesTotal counts like toggles by resulting state ("liked"/"unliked").
var LikeTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "like_toggles_total",
		Help:      "Total number of like toggles, by resulting state.",
	},
	[]string{"state"},
)

// PostOperationsTotal counts post writes ("create", "update", "delete").
var PostOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "post_operations_total",
		Help:      "Total number of post writes, by operation.",
	},
	[]string{"op"},
)

// ── Activity metrics ─────────────────────────────────────────────────────────

// ActivitiesRecordedTotal counts activity entries by outcome.
// Labels:
//   - kind: the activity kind (e.g. "follow")
//   - result: "stored", "failed" or "dropped" (queue full)
var ActivitiesRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activities_recorded_total",
		Help:      "Total number of activity entries handled by the dispatcher.",
	},
	[]string{"kind", "result"},
)

// ActivityQueueDepth tracks pending activities in each dispatcher worker channel.
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of activities pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Maintenance metrics ──────────────────────────────────────────────────────

// ReconcileRepairsTotal counts repairs made by the relationship reconciler.
var ReconcileRepairsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_repairs_total",
		Help:      "Total number of relationship repairs, by kind.",
	},
	[]string{"kind"},
)

// ReconcileDuration measures one full reconciliation pass.
var ReconcileDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of a relationship reconciliation pass.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	},
)
