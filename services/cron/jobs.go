package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

const (
	JobExpireSubscriptions = "expire_subscriptions"
	JobReconcileRefunds    = "reconcile_refunds"
	JobCleanupTokens       = "cleanup_tokens"
)

// reconcileBatch caps gateway lookups per run
const reconcileBatch = 100

// resetTokenRetention keeps used or expired reset tokens around for a day
const resetTokenRetention = 24 * time.Hour

// ExpireSubscriptions marks lapsed subscriptions expired. Runs hourly.
func (m *CronManager) ExpireSubscriptions(ctx context.Context) (string, error) {
	if m.jobs.Subscriptions == nil {
		return "skipped: no subscription service", nil
	}
	n, err := m.jobs.Subscriptions.ExpireSubscriptions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return fmt.Sprintf("expired %d subscriptions", n), nil
}

// ReconcileRefunds settles refunds the webhook never confirmed. Runs every 30 minutes.
func (m *CronManager) ReconcileRefunds(ctx context.Context) (string, error) {
	if m.jobs.Refunds == nil {
		return "skipped: no refund service", nil
	}
	n, err := m.jobs.Refunds.ReconcilePendingRefunds(ctx, reconcileBatch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("updated %d refunds", n), nil
}

// CleanupTokens purges expired blacklist entries and stale reset tokens. Runs daily.
func (m *CronManager) CleanupTokens(ctx context.Context) (string, error) {
	var (
		revoked, resets int64
		errs            []error
	)
	if m.jobs.Tokens != nil {
		n, err := m.jobs.Tokens.CleanupExpiredTokens(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("blacklist cleanup: %w", err))
		}
		revoked = n
	}
	if m.jobs.ResetTokens != nil {
		n, err := m.jobs.ResetTokens.PurgeResetTokens(ctx, m.now().Add(-resetTokenRetention))
		if err != nil {
			errs = append(errs, fmt.Errorf("reset token purge: %w", err))
		}
		resets = n
	}
	return fmt.Sprintf("removed %d blacklisted tokens and %d reset tokens", revoked, resets), errors.Join(errs...)
}

func (m *CronManager) logJobStart(ctx context.Context, name string) *model.CronJobLog {
	m.logger.InfoContext(ctx, "cron job started", "job", name)

	entry := &model.CronJobLog{
		JobName:   name,
		Status:    model.CronStatusStarted,
		StartedAt: m.now(),
	}
	if err := m.logs.CreateJobLog(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "failed to write cron job log", "job", name, "error", err)
	}
	return entry
}

func (m *CronManager) logJobFinish(ctx context.Context, entry *model.CronJobLog, message string, err error) {
	entry.Finish(m.now(), message, err)
	if err != nil {
		m.logger.ErrorContext(ctx, "cron job failed", "job", entry.JobName, "error", err)
	} else {
		m.logger.InfoContext(ctx, "cron job completed", "job", entry.JobName, "message", message, "duration_ms", entry.Duration)
	}

	if entry.ID == 0 {
		return
	}
	if err := m.logs.SaveJobLog(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "failed to update cron job log", "job", entry.JobName, "error", err)
	}
}
