package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/slipstream/netcollections/internal/progress"
	"github.com/slipstream/netcollections/internal/scheduler"
)

const HistoryCleanupTaskID = "history-cleanup"

// RunPruner deletes expired sync runs.
type RunPruner interface {
	CleanupOldEntries(ctx context.Context) (int64, error)
}

// RegisterHistoryCleanupTask registers the history cleanup task with the scheduler.
// The task runs daily at 2 AM to delete runs older than the configured retention
// period. Each run shows up as an activity when pm is non-nil.
func RegisterHistoryCleanupTask(sched *scheduler.Scheduler, runs RunPruner, pm *progress.Manager) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          HistoryCleanupTaskID,
		Name:        "History Cleanup",
		Description: "Deletes sync runs older than the configured retention period",
		Cron:        "0 2 * * *",
		Func:        historyCleanup(runs, pm),
	})
}

func historyCleanup(runs RunPruner, pm *progress.Manager) func(context.Context) error {
	return func(ctx context.Context) error {
		if pm == nil {
			_, err := runs.CleanupOldEntries(ctx)
			return err
		}

		activityID := "history-cleanup-" + uuid.NewString()
		pm.StartActivity(activityID, progress.ActivityTypeHistoryCleanup, "History cleanup")

		deleted, err := runs.CleanupOldEntries(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			pm.CancelActivity(activityID)
			return err
		case err != nil:
			pm.FailActivity(activityID, err.Error())
			return err
		}

		pm.SetMetadata(activityID, "deleted", deleted)
		pm.CompleteActivity(activityID, fmt.Sprintf("%d old runs removed", deleted))
		return nil
	}
}
