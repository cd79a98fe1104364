// Package metrics exposes the Prometheus collectors the executor core
// instruments itself with. The collector set mirrors the teacher's
// promauto-based package-level var block, just renamed to the concerns this
// core actually has: lattice insertion, deadline arming/firing, and
// watermark emission.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsInserted counts OperatorEvents handed to the lattice, broken
	// down by whether the event was a data or watermark callback.
	EventsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflow_executor_events_inserted_total",
			Help: "Total number of operator events inserted into the lattice",
		},
		[]string{"operator", "kind"}, // kind: data, watermark
	)

	DeadlinesArmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflow_executor_deadlines_armed_total",
			Help: "Total number of deadlines armed by the executor helper",
		},
		[]string{"operator"},
	)

	DeadlinesFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflow_executor_deadlines_fired_total",
			Help: "Total number of deadline handlers invoked on miss",
		},
		[]string{"operator"},
	)

	DeadlinesDisarmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflow_executor_deadlines_disarmed_total",
			Help: "Total number of deadlines that fired but were satisfied (handler skipped)",
		},
		[]string{"operator"},
	)

	DeadlineUnknownKey = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflow_executor_deadline_unknown_key_total",
			Help: "Total number of deadline firings with no matching active-deadline entry",
		},
		[]string{"operator"},
	)

	MergedWatermarkAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflow_executor_merged_watermark_advances_total",
			Help: "Total number of merged watermark advances emitted by two-input executors",
		},
		[]string{"operator"},
	)

	TerminalWatermarksEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflow_executor_terminal_watermarks_total",
			Help: "Total number of terminal Top watermarks emitted on output streams",
		},
		[]string{"operator", "stream"},
	)

	NotifierSendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflow_executor_notifier_send_failures_total",
			Help: "Total number of fatal failures sending to the event-runner notifier channel",
		},
		[]string{"operator"},
	)

	ExecutorLifecycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataflow_executor_lifecycle_phase_duration_seconds",
			Help:    "Duration of each executor lifecycle phase",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operator", "phase"},
	)
)
