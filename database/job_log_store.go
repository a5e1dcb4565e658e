package database

import (
	"context"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"gorm.io/gorm"
)

// JobLogStore persists scheduled job runs
type JobLogStore interface {
	CreateJobLog(ctx context.Context, entry *model.CronJobLog) error
	SaveJobLog(ctx context.Context, entry *model.CronJobLog) error
}

// JobLogRepository implements JobLogStore on top of GORM
type JobLogRepository struct {
	db *gorm.DB
}

func NewJobLogRepository(db *gorm.DB) *JobLogRepository {
	return &JobLogRepository{db: db}
}

func (r *JobLogRepository) CreateJobLog(ctx context.Context, entry *model.CronJobLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *JobLogRepository) SaveJobLog(ctx context.Context, entry *model.CronJobLog) error {
	return r.db.WithContext(ctx).Save(entry).Error
}
