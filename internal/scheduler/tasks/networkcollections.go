package tasks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/health"
	"github.com/slipstream/netcollections/internal/metrics"
	"github.com/slipstream/netcollections/internal/progress"
	"github.com/slipstream/netcollections/internal/scheduler"
)

const NetworkCollectionsTaskID = "network-collections"

// RunRecorder persists finished run reports.
type RunRecorder interface {
	Save(ctx context.Context, report *collections.Report) error
}

// RunNotifier is told about every finished run.
type RunNotifier interface {
	OnSyncComplete(ctx context.Context, report *collections.Report) error
}

// NetworkCollectionsTask runs a full sync of the configured networks.
type NetworkCollectionsTask struct {
	syncer   *collections.Syncer
	runs     RunRecorder
	progress *progress.Manager
	health   *health.Service
	notifier RunNotifier
	networks string
	logger   zerolog.Logger
}

// NewNetworkCollectionsTask creates a new network collections task. runs and
// pm may be nil.
func NewNetworkCollectionsTask(syncer *collections.Syncer, runs RunRecorder, pm *progress.Manager, networks string, logger zerolog.Logger) *NetworkCollectionsTask {
	return &NetworkCollectionsTask{
		syncer:   syncer,
		runs:     runs,
		progress: pm,
		networks: networks,
		logger:   logger.With().Str("task", NetworkCollectionsTaskID).Logger(),
	}
}

// SetHealthService sets the service that tracks each network's last outcome.
func (t *NetworkCollectionsTask) SetHealthService(h *health.Service) {
	t.health = h
}

// SetNotifier sets the notifier called after each run is saved.
func (t *NetworkCollectionsTask) SetNotifier(n RunNotifier) {
	t.notifier = n
}

// Execute syncs the given networks and records the report. An empty networks
// string uses the configured list.
func (t *NetworkCollectionsTask) Execute(ctx context.Context, networks string) *collections.Report {
	if networks == "" {
		networks = t.networks
	}

	activityID := "network-sync-" + uuid.NewString()
	sink := collections.NopProgress
	if t.progress != nil {
		t.progress.StartActivity(activityID, progress.ActivityTypeNetworkSync, "Network collections")
		sink = t.progress.Sink(activityID)
	}

	report := t.syncer.Run(ctx, networks, sink)
	metrics.ObserveReport(report)
	if t.health != nil {
		t.health.RecordReport(report)
	}

	if t.runs != nil {
		// Saved even when the run was cancelled so partial results are kept.
		if err := t.runs.Save(context.WithoutCancel(ctx), report); err != nil {
			t.logger.Error().Err(err).Str("runId", report.RunID).Msg("Failed to save run report")
		}
	}

	if t.notifier != nil {
		// Delivery errors are logged by the notifier and never fail the run.
		_ = t.notifier.OnSyncComplete(context.WithoutCancel(ctx), report)
	}

	if t.progress != nil {
		t.progress.SetMetadata(activityID, "runId", report.RunID)
		switch {
		case report.Cancelled:
			t.progress.CancelActivity(activityID)
		case report.Failed() > 0 && report.Succeeded() == 0:
			t.progress.FailActivity(activityID, fmt.Sprintf("%d networks failed", report.Failed()))
		default:
			t.progress.CompleteActivity(activityID, fmt.Sprintf("%d synced, %d failed, %d shows added",
				report.Succeeded(), report.Failed(), report.Added()))
		}
	}

	return report
}

// Run executes the scheduled sync. Per-network failures are reported in the
// returned error so the scheduler shows them as the task's last error.
func (t *NetworkCollectionsTask) Run(ctx context.Context) error {
	report := t.Execute(ctx, "")

	if report.Cancelled {
		return context.Canceled
	}
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d networks failed", failed, len(report.Results))
	}
	return nil
}

// RegisterNetworkCollectionsTask registers the sync task with the scheduler.
func RegisterNetworkCollectionsTask(sched *scheduler.Scheduler, task *NetworkCollectionsTask, cron string, runOnStart bool) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          NetworkCollectionsTaskID,
		Name:        "Network Collections",
		Description: "Creates a collection per configured network and adds the matching library shows",
		Cron:        cron,
		RunOnStart:  runOnStart,
		Func:        task.Run,
	})
}
