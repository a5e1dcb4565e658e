package model

import "time"

// SavedCourse is a user bookmark, independent of purchase state
type SavedCourse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saved_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_saved_user_course" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`

	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for SavedCourse
func (SavedCourse) TableName() string {
	return "saved_courses"
}
