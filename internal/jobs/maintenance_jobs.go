package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StaleOrderJobName is the name of the stale-order check job
const StaleOrderJobName = "stale_order_check"

// TaskOverdueJobName is the name of the overdue-task check job
const TaskOverdueJobName = "task_overdue_check"

// NotificationPurgeJobName is the name of the notification retention job
const NotificationPurgeJobName = "notification_purge"

// maintenanceTimeout bounds each maintenance run. These jobs are cheap
// scans, so a short timeout is enough.
const maintenanceTimeout = 2 * time.Minute

// StaleOrderNotifier flags open orders that have not moved in too long.
type StaleOrderNotifier interface {
	// NotifyStale notifies managers about open orders unchanged since the
	// cutoff. Returns the number of orders flagged.
	NotifyStale(ctx context.Context, cutoff time.Time) (int, error)
}

// OverdueTaskNotifier flags tasks past their due date.
type OverdueTaskNotifier interface {
	// NotifyOverdue notifies assignees about tasks overdue as of the given
	// time. Returns the number of tasks flagged.
	NotifyOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// NotificationPurger removes old read notifications.
type NotificationPurger interface {
	// PurgeOlderThan deletes read notifications created before the cutoff.
	// Returns the number of rows removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RegisterStaleOrderJob registers the stale-order check with the scheduler.
// staleAfter is how long an open order may sit unchanged before its manager
// gets notified.
func RegisterStaleOrderJob(scheduler *Scheduler, notifier StaleOrderNotifier, logger *zap.Logger, cronExpr string, staleAfter time.Duration) error {
	return scheduler.AddJob(StaleOrderJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()

		flagged, err := notifier.NotifyStale(ctx, time.Now().Add(-staleAfter))
		if err != nil {
			logger.Error("stale order check failed", zap.Error(err))
			return
		}
		if flagged > 0 {
			logger.Info("stale order check completed", zap.Int("flagged", flagged))
		}
	})
}

// RegisterTaskOverdueJob registers the overdue-task check with the scheduler.
func RegisterTaskOverdueJob(scheduler *Scheduler, notifier OverdueTaskNotifier, logger *zap.Logger, cronExpr string) error {
	return scheduler.AddJob(TaskOverdueJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()

		flagged, err := notifier.NotifyOverdue(ctx, time.Now())
		if err != nil {
			logger.Error("overdue task check failed", zap.Error(err))
			return
		}
		if flagged > 0 {
			logger.Info("overdue task check completed", zap.Int("flagged", flagged))
		}
	})
}

// RegisterNotificationPurgeJob registers the notification retention job.
// Runs daily at 03:00; retention is how long read notifications are kept.
func RegisterNotificationPurgeJob(scheduler *Scheduler, purger NotificationPurger, logger *zap.Logger, retention time.Duration) error {
	return scheduler.AddJob(NotificationPurgeJobName, "0 0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()

		purged, err := purger.PurgeOlderThan(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Error("notification purge failed", zap.Error(err))
			return
		}
		if purged > 0 {
			logger.Info("notification purge completed", zap.Int64("purged", purged))
		}
	})
}
