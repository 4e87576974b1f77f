// Package metrics exposes Prometheus metrics for sync runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/slipstream/netcollections/internal/collections"
)

// Run metrics
var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcollections_runs_total",
			Help: "Total number of sync runs by outcome.",
		},
		[]string{"status"},
	)

	NetworkSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcollections_network_syncs_total",
			Help: "Total number of per-network syncs by status and failure kind.",
		},
		[]string{"status", "kind"},
	)

	ShowsAddedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netcollections_shows_added_total",
			Help: "Total number of shows added to network collections.",
		},
	)

	MatchDiagnosticsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcollections_match_diagnostics_total",
			Help: "Total number of diagnostics reported during runs by kind.",
		},
		[]string{"kind"},
	)

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netcollections_last_run_timestamp_seconds",
			Help: "Unix time the last sync run finished.",
		},
	)
)

// Network metadata cache metrics
var (
	NetworkCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netcollections_network_cache_hits_total",
			Help: "Total number of network metadata cache hits.",
		},
	)

	NetworkCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netcollections_network_cache_misses_total",
			Help: "Total number of network metadata cache misses.",
		},
	)
)

const (
	runStatusSuccess   = "success"
	runStatusPartial   = "partial"
	runStatusFailed    = "failed"
	runStatusCancelled = "cancelled"
	runStatusEmpty     = "empty"
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		NetworkSyncsTotal,
		ShowsAddedTotal,
		MatchDiagnosticsTotal,
		LastRunTimestamp,
		NetworkCacheHitsTotal,
		NetworkCacheMissesTotal,
	)
}

// ObserveReport records a finished run.
func ObserveReport(report *collections.Report) {
	if report == nil {
		return
	}

	RunsTotal.WithLabelValues(RunStatus(report)).Inc()

	for i := range report.Results {
		r := &report.Results[i]
		NetworkSyncsTotal.WithLabelValues(string(r.Status), string(r.Kind)).Inc()
		ShowsAddedTotal.Add(float64(r.Added))
		for _, d := range r.Diagnostics {
			MatchDiagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
		}
	}
	for _, d := range report.Diagnostics {
		MatchDiagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
	}

	if !report.FinishedAt.IsZero() {
		LastRunTimestamp.Set(float64(report.FinishedAt.Unix()))
	}
}

// RunStatus summarizes a report as a single label value.
func RunStatus(report *collections.Report) string {
	switch {
	case report.Cancelled:
		return runStatusCancelled
	case len(report.Results) == 0:
		return runStatusEmpty
	case report.Failed() == 0:
		return runStatusSuccess
	case report.Succeeded() == 0:
		return runStatusFailed
	default:
		return runStatusPartial
	}
}
