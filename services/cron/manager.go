package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/robfig/cron/v3"
)

// Schedules use robfig's six-field format with seconds
const (
	ScheduleExpireSubscriptions = "0 0 * * * *"
	ScheduleReconcileRefunds    = "0 */30 * * * *"
	ScheduleCleanupTokens       = "0 0 3 * * *"
)

// jobTimeout bounds a single run
const jobTimeout = 10 * time.Minute

// SubscriptionExpirer flips subscriptions past their end date to expired
type SubscriptionExpirer interface {
	ExpireSubscriptions(ctx context.Context) (int64, error)
}

// RefundReconciler polls the gateway for refunds still in flight
type RefundReconciler interface {
	ReconcilePendingRefunds(ctx context.Context, limit int) (int, error)
}

// TokenCleaner removes expired JWT blacklist rows
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// ResetTokenPurger removes stale password reset tokens
type ResetTokenPurger interface {
	PurgeResetTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

// Jobs are the collaborators the scheduled jobs call into
type Jobs struct {
	Subscriptions SubscriptionExpirer
	Refunds       RefundReconciler
	Tokens        TokenCleaner
	ResetTokens   ResetTokenPurger
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron   *cron.Cron
	jobs   Jobs
	logs   database.JobLogStore
	logger *slog.Logger
	now    func() time.Time
}

// NewCronManager creates a new cron manager
func NewCronManager(jobs Jobs, logs database.JobLogStore, logger *slog.Logger) *CronManager {
	return &CronManager{
		cron:   cron.New(cron.WithSeconds()),
		jobs:   jobs,
		logs:   logs,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers every job and starts the scheduler
func (m *CronManager) Start() error {
	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish
func (m *CronManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	schedule := []struct {
		spec string
		name string
		fn   func(ctx context.Context) (string, error)
	}{
		{ScheduleExpireSubscriptions, JobExpireSubscriptions, m.ExpireSubscriptions},
		{ScheduleReconcileRefunds, JobReconcileRefunds, m.ReconcileRefunds},
		{ScheduleCleanupTokens, JobCleanupTokens, m.CleanupTokens},
	}

	for _, job := range schedule {
		if _, err := m.cron.AddFunc(job.spec, func() { m.Run(job.name, job.fn) }); err != nil {
			return err
		}
	}
	return nil
}

// Run executes fn with a timeout and records the run in the job log
func (m *CronManager) Run(name string, fn func(ctx context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	entry := m.logJobStart(ctx, name)
	message, err := fn(ctx)
	m.logJobFinish(ctx, entry, message, err)
}
