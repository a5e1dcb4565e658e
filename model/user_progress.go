package model

import (
	"time"

	"gorm.io/datatypes"
)

// UserProgress tracks completed lessons for one (user, course) pair.
// Lessons are only ever added.
type UserProgress struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	UserID           uint                        `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"user_id"`
	CourseID         uint                        `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"course_id"`
	CompletedLessons datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"completed_lessons"`
	IsCompleted      bool                        `gorm:"default:false" json:"is_completed"`
	CompletedAt      *time.Time                  `json:"completed_at,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for UserProgress
func (UserProgress) TableName() string {
	return "user_progress"
}

// MarkLesson adds a lesson id if absent and reports whether it was added
func (p *UserProgress) MarkLesson(lessonID string) bool {
	for _, id := range p.CompletedLessons {
		if id == lessonID {
			return false
		}
	}
	p.CompletedLessons = append(p.CompletedLessons, lessonID)
	return true
}

// Refresh sets the completion flag once every lesson in allLessons is done.
// completedAt is set the first time only.
func (p *UserProgress) Refresh(allLessons []string, now time.Time) {
	if p.IsCompleted || len(allLessons) == 0 {
		return
	}
	done := make(map[string]struct{}, len(p.CompletedLessons))
	for _, id := range p.CompletedLessons {
		done[id] = struct{}{}
	}
	for _, id := range allLessons {
		if _, ok := done[id]; !ok {
			return
		}
	}
	p.IsCompleted = true
	p.CompletedAt = &now
}
