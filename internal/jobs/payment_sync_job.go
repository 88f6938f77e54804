package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PaymentSyncJobName is the name of the accounting payment sync job
const PaymentSyncJobName = "payment_sync"

// PaymentSyncer defines the interface for mirroring settled invoices from
// the accounting system onto orders.
// This interface allows the job to call the service without importing the service package directly.
type PaymentSyncer interface {
	// SyncSettledPayments applies invoices settled since the last run.
	// Returns counts for applied, skipped and failed invoices.
	SyncSettledPayments(ctx context.Context) (applied, skipped, failed int, err error)
}

// PaymentSyncJob runs the accounting payment sync on a schedule.
type PaymentSyncJob struct {
	syncer  PaymentSyncer
	logger  *zap.Logger
	timeout time.Duration
}

// NewPaymentSyncJob creates a new payment sync job.
// The timeout controls how long one sync run is allowed to take.
func NewPaymentSyncJob(syncer PaymentSyncer, logger *zap.Logger, timeout time.Duration) *PaymentSyncJob {
	return &PaymentSyncJob{
		syncer:  syncer,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes the payment sync job.
// This is called by the scheduler according to the cron expression.
func (j *PaymentSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting payment sync job")

	applied, skipped, failed, err := j.syncer.SyncSettledPayments(ctx)
	if err != nil {
		j.logger.Error("payment sync failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("payment sync job completed",
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterPaymentSyncJob registers the payment sync job with the scheduler.
// If runOnStartup is true, a sync runs immediately in a background goroutine
// so it doesn't block API startup.
func RegisterPaymentSyncJob(scheduler *Scheduler, syncer PaymentSyncer, logger *zap.Logger, cronExpr string, timeout time.Duration, runOnStartup bool) error {
	job := NewPaymentSyncJob(syncer, logger, timeout)

	if runOnStartup {
		go job.Run()
	}

	return scheduler.AddJob(PaymentSyncJobName, cronExpr, job.Run)
}
