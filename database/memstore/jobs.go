package memstore

import (
	"context"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

func (m *Store) CreateJobLog(ctx context.Context, entry *model.CronJobLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.jobLogs) + 1)
	m.jobLogs = append(m.jobLogs, *entry)
	return nil
}

func (m *Store) SaveJobLog(ctx context.Context, entry *model.CronJobLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == 0 || int(entry.ID) > len(m.jobLogs) {
		return database.ErrNotFound
	}
	m.jobLogs[entry.ID-1] = *entry
	return nil
}

// JobLogs returns a copy of every recorded job run
func (m *Store) JobLogs() []model.CronJobLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CronJobLog(nil), m.jobLogs...)
}
