package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database/memstore"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExpirer struct {
	n   int64
	err error
}

func (s stubExpirer) ExpireSubscriptions(ctx context.Context) (int64, error) { return s.n, s.err }

type stubReconciler struct{ limit int }

func (s *stubReconciler) ReconcilePendingRefunds(ctx context.Context, limit int) (int, error) {
	s.limit = limit
	return 2, nil
}

type stubCleaner struct{ err error }

func (s stubCleaner) CleanupExpiredTokens(ctx context.Context) (int64, error) { return 4, s.err }

type stubPurger struct{ cutoff time.Time }

func (s *stubPurger) PurgeResetTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 1, nil
}

func newTestManager(jobs Jobs) (*CronManager, *memstore.Store) {
	store := memstore.New()
	m := NewCronManager(jobs, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, store
}

func TestRunRecordsCompletedJob(t *testing.T) {
	m, store := newTestManager(Jobs{Subscriptions: stubExpirer{n: 3}})

	m.Run(JobExpireSubscriptions, m.ExpireSubscriptions)

	logs := store.JobLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, JobExpireSubscriptions, logs[0].JobName)
	assert.Equal(t, model.CronStatusCompleted, logs[0].Status)
	assert.Equal(t, "expired 3 subscriptions", logs[0].Message)
	require.NotNil(t, logs[0].CompletedAt)
}

func TestRunRecordsFailure(t *testing.T) {
	m, store := newTestManager(Jobs{Subscriptions: stubExpirer{err: errors.New("db down")}})

	m.Run(JobExpireSubscriptions, m.ExpireSubscriptions)

	logs := store.JobLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.CronStatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMsg, "db down")
}

func TestReconcileRefundsUsesBatchLimit(t *testing.T) {
	reconciler := &stubReconciler{}
	m, _ := newTestManager(Jobs{Refunds: reconciler})

	msg, err := m.ReconcileRefunds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "updated 2 refunds", msg)
	assert.Equal(t, reconcileBatch, reconciler.limit)
}

func TestCleanupTokensRunsBothPurges(t *testing.T) {
	purger := &stubPurger{}
	m, _ := newTestManager(Jobs{Tokens: stubCleaner{}, ResetTokens: purger})

	msg, err := m.CleanupTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "removed 4 blacklisted tokens and 1 reset tokens", msg)
	assert.Equal(t, m.now().Add(-resetTokenRetention), purger.cutoff)
}

func TestCleanupTokensKeepsGoingAfterError(t *testing.T) {
	purger := &stubPurger{}
	m, _ := newTestManager(Jobs{Tokens: stubCleaner{err: errors.New("timeout")}, ResetTokens: purger})

	_, err := m.CleanupTokens(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blacklist cleanup")
	assert.False(t, purger.cutoff.IsZero())
}

func TestRegisterJobsSchedulesAll(t *testing.T) {
	m, _ := newTestManager(Jobs{})
	require.NoError(t, m.registerJobs())
	assert.Len(t, m.cron.Entries(), 3)
}
