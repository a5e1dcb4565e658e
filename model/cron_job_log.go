package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	CronStatusStarted   = "started"
	CronStatusCompleted = "completed"
	CronStatusFailed    = "failed"
)

// CronJobLog records one run of a scheduled job
type CronJobLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	JobName     string         `gorm:"type:varchar(100);not null;index" json:"job_name"`
	Status      string         `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Duration    int64          `json:"duration_ms"`
	Message     string         `gorm:"type:text" json:"message"`
	ErrorMsg    string         `gorm:"type:text" json:"error_msg,omitempty"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName specifies the table name for CronJobLog
func (CronJobLog) TableName() string {
	return "cron_job_logs"
}

// Finish records the outcome of the run
func (l *CronJobLog) Finish(now time.Time, message string, err error) {
	l.CompletedAt = &now
	l.Duration = now.Sub(l.StartedAt).Milliseconds()
	l.Message = message
	l.Status = CronStatusCompleted
	if err != nil {
		l.Status = CronStatusFailed
		l.ErrorMsg = err.Error()
	}
}
