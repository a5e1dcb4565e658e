package database

import (
	"context"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LearningStore backs lesson progress and saved courses
type LearningStore interface {
	FindUser(ctx context.Context, userID uint) (*model.User, error)
	FindCourse(ctx context.Context, courseID uint) (*model.Course, error)

	FindProgress(ctx context.Context, userID, courseID uint) (*model.UserProgress, error)
	// SaveProgress inserts or updates the (user, course) progress row
	SaveProgress(ctx context.Context, progress *model.UserProgress) error
	// TouchPurchasedCourse sets last_accessed and completion_status on an owned course
	TouchPurchasedCourse(ctx context.Context, userID, courseID uint, at time.Time, completionStatus string) error

	// ToggleSavedCourse saves the course or removes the bookmark and reports the new state
	ToggleSavedCourse(ctx context.Context, userID, courseID uint) (bool, error)
	ListSavedCourses(ctx context.Context, userID uint) ([]model.SavedCourse, error)
}

// LearningRepository implements LearningStore on top of GORM/PostgreSQL
type LearningRepository struct {
	db *gorm.DB
}

// NewLearningRepository creates a repository bound to db
func NewLearningRepository(db *gorm.DB) *LearningRepository {
	return &LearningRepository{db: db}
}

func (r *LearningRepository) FindUser(ctx context.Context, userID uint) (*model.User, error) {
	return NewPaymentRepository(r.db).FindUser(ctx, userID)
}

func (r *LearningRepository) FindCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	return NewPaymentRepository(r.db).FindCourse(ctx, courseID)
}

func (r *LearningRepository) FindProgress(ctx context.Context, userID, courseID uint) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		return nil, translate(err)
	}
	return &progress, nil
}

func (r *LearningRepository) SaveProgress(ctx context.Context, progress *model.UserProgress) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed_lessons", "is_completed", "completed_at", "updated_at"}),
		}).
		Create(progress).Error
}

func (r *LearningRepository) TouchPurchasedCourse(ctx context.Context, userID, courseID uint, at time.Time, completionStatus string) error {
	return r.db.WithContext(ctx).
		Model(&model.PurchasedCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]interface{}{
			"last_accessed":     at,
			"completion_status": completionStatus,
		}).Error
}

func (r *LearningRepository) ToggleSavedCourse(ctx context.Context, userID, courseID uint) (bool, error) {
	saved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&model.SavedCourse{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		saved = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.SavedCourse{UserID: userID, CourseID: courseID}).Error
	})
	return saved, err
}

func (r *LearningRepository) ListSavedCourses(ctx context.Context, userID uint) ([]model.SavedCourse, error) {
	var saved []model.SavedCourse
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&saved).Error
	return saved, err
}
