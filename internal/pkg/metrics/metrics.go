// Package metrics defines and registers all custom Prometheus metrics for the
// notification sync agent. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default Prometheus registry on import
// via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notifysync"

// ── Notification load ─────────────────────────────────────────────────────────

// NotificationsLoadedTotal counts successful feed loads.
// Label:
//   - role: the backend route used ("parent", "nurse", "manager")
var NotificationsLoadedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_loaded_total",
		Help:      "Total number of successful notification feed loads.",
	},
	[]string{"role"},
)

// NotificationErrorsTotal counts failed notification API operations.
// Labels:
//   - op: "load", "unread_count", "mark_read"
//   - kind: the NotificationError kind (e.g. "transport", "status", "unauthorized")
var NotificationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_errors_total",
		Help:      "Total number of failed notification API operations.",
	},
	[]string{"op", "kind"},
)

// ── Read state ────────────────────────────────────────────────────────────────

// MarkReadTotal counts individual mark-as-read calls.
// Labels:
//   - mode: "single" (item click) or "bulk" (dropdown open)
//   - result: "ok" or "error"
var MarkReadTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mark_read_total",
		Help:      "Total number of mark-as-read calls, by mode and result.",
	},
	[]string{"mode", "result"},
)

// UnreadCount tracks the unread badge count of each mounted view.
// Label:
//   - view: the view name (e.g. "navbar-notifications")
var UnreadCount = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unread_count",
		Help:      "Current unread notification count shown by each view.",
	},
	[]string{"view"},
)

// ── Realtime ──────────────────────────────────────────────────────────────────

// PushReceivedTotal counts notifications received over the WebSocket channel.
var PushReceivedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_received_total",
		Help:      "Total number of notifications pushed over the realtime channel.",
	},
)

// RealtimeConnected is 1 while the realtime channel is connected.
var RealtimeConnected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connected",
		Help:      "Whether the realtime notification channel is connected (1) or not (0).",
	},
)

// RefreshBroadcastsTotal counts cross-view refresh broadcasts.
var RefreshBroadcastsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_broadcasts_total",
		Help:      "Total number of cross-view refresh broadcasts triggered.",
	},
)

// ── Backend API ───────────────────────────────────────────────────────────────

// APIRequestDuration measures backend REST calls end-to-end.
// Labels:
//   - op: the client operation (e.g. "notifications.list")
//   - status: HTTP status code, or "error" when no response was received
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of backend REST API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op", "status"},
)
