// Package metrics instruments the sync engine with Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics bundles the collectors the engine updates during cycles.
type SyncMetrics struct {
	CyclesStarted   prometheus.Counter
	CyclesCompleted prometheus.Counter
	CyclesFailed    prometheus.Counter
	CyclesDropped   prometheus.Counter

	RecordsPushed *prometheus.CounterVec
	PushFailures  *prometheus.CounterVec
	RecordsPulled *prometheus.CounterVec

	Syncing  prometheus.Gauge
	LastSync prometheus.Gauge
}

// New registers the sync collectors with reg and returns them. Pass a
// fresh prometheus.NewRegistry() in tests to keep registrations isolated.
func New(reg prometheus.Registerer) *SyncMetrics {
	f := promauto.With(reg)
	return &SyncMetrics{
		CyclesStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "tripsync_cycles_started_total",
			Help: "Sync cycles that entered the Syncing state.",
		}),
		CyclesCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "tripsync_cycles_completed_total",
			Help: "Sync cycles that finished every entity type.",
		}),
		CyclesFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "tripsync_cycles_failed_total",
			Help: "Sync cycles aborted by a cycle-level failure.",
		}),
		CyclesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "tripsync_cycles_dropped_total",
			Help: "Sync triggers dropped because a cycle was already running.",
		}),
		RecordsPushed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_records_pushed_total",
			Help: "Local records accepted by the server during push phases.",
		}, []string{"entity"}),
		PushFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_push_failures_total",
			Help: "Per-record push rejections (record stays pending).",
		}, []string{"entity"}),
		RecordsPulled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tripsync_records_pulled_total",
			Help: "Remote records inserted locally during pull phases.",
		}, []string{"entity"}),
		Syncing: f.NewGauge(prometheus.GaugeOpts{
			Name: "tripsync_syncing",
			Help: "1 while a sync cycle is active.",
		}),
		LastSync: f.NewGauge(prometheus.GaugeOpts{
			Name: "tripsync_last_sync_timestamp_seconds",
			Help: "Unix time of the last completed sync cycle.",
		}),
	}
}
