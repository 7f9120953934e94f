// Package metrics exposes Prometheus instrumentation for the alert pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leaderboard"

// EventsReceived counts change stream events by operation.
var EventsReceived = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "events_received_total",
		Help:      "Sale events received from the change stream",
	},
	[]string{"op"},
)

// EventsRejected counts events that never reached the queue.
var EventsRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "events_rejected_total",
		Help:      "Sale events dropped before queueing, by reason",
	},
	[]string{"reason"},
)

// QueueDepth tracks pending alerts, the active one included.
var QueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "queue_depth",
		Help:      "Alerts waiting for presentation",
	},
)

// Presentations counts presentation outcomes.
var Presentations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "presentations_total",
		Help:      "Alert presentations by outcome",
	},
	[]string{"outcome"},
)

// LookupFailures counts seller profile lookups that fell back to placeholders.
var LookupFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "seller_lookup_failures_total",
		Help:      "Seller lookups that degraded to placeholder data",
	},
)

// ConfigurationGaps counts entry values no audio tier covered.
var ConfigurationGaps = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audio",
		Name:      "rule_gaps_total",
		Help:      "Entry values outside every configured audio tier",
	},
)

// PlaybackFailures counts audio cues that could not start.
var PlaybackFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audio",
		Name:      "playback_failures_total",
		Help:      "Audio cues that failed to start",
	},
	[]string{"cue"},
)

// ConnectedScreens tracks live TV screen connections.
var ConnectedScreens = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "screens",
		Name:      "connected",
		Help:      "Connected TV screens",
	},
)

// RefreshDuration records leaderboard refresh latency in seconds.
var RefreshDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "refresh",
		Name:      "duration_seconds",
		Help:      "Time to reload profiles and ranking",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	},
)

// RefreshFailures counts failed leaderboard refreshes.
var RefreshFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "refresh",
		Name:      "failures_total",
		Help:      "Failed leaderboard refreshes",
	},
)
