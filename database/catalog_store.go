package database

import (
	"context"
	"errors"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"gorm.io/gorm"
)

// ErrDuplicatePlanName is returned when a plan name is already in use
var ErrDuplicatePlanName = errors.New("subscription plan name already exists")

// CatalogStore backs course and subscription plan management
type CatalogStore interface {
	ListCourses(ctx context.Context, category string, page, limit int) ([]model.Course, int64, error)
	FindCourse(ctx context.Context, courseID uint) (*model.Course, error)
	CreateCourse(ctx context.Context, course *model.Course) error
	UpdateCourse(ctx context.Context, course *model.Course) error
	DeleteCourse(ctx context.Context, courseID uint) error

	ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error)
	FindSubscriptionPlan(ctx context.Context, planID uint) (*model.SubscriptionPlan, error)
	// CreatePlan and UpdatePlan return ErrDuplicatePlanName on a name clash
	CreatePlan(ctx context.Context, plan *model.SubscriptionPlan) error
	UpdatePlan(ctx context.Context, plan *model.SubscriptionPlan) error
	DeletePlan(ctx context.Context, planID uint) error
}

// CatalogRepository implements CatalogStore on top of GORM/PostgreSQL
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a repository bound to db
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListCourses(ctx context.Context, category string, page, limit int) ([]model.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Course{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []model.Course
	err := query.Order("is_best_seller DESC, created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&courses).Error
	return courses, total, err
}

func (r *CatalogRepository) FindCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	return NewPaymentRepository(r.db).FindCourse(ctx, courseID)
}

func (r *CatalogRepository) CreateCourse(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *CatalogRepository) UpdateCourse(ctx context.Context, course *model.Course) error {
	result := r.db.WithContext(ctx).
		Model(&model.Course{ID: course.ID}).
		Select("title", "description", "category", "image_url", "old_price", "new_price",
			"duration", "is_best_seller", "syllabus").
		Updates(course)
	return rowsOrNotFound(result)
}

func (r *CatalogRepository) DeleteCourse(ctx context.Context, courseID uint) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Delete(&model.Course{}, courseID))
}

func (r *CatalogRepository) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	var plans []model.SubscriptionPlan
	err := r.db.WithContext(ctx).Order("new_price ASC").Find(&plans).Error
	return plans, err
}

func (r *CatalogRepository) FindSubscriptionPlan(ctx context.Context, planID uint) (*model.SubscriptionPlan, error) {
	return NewPaymentRepository(r.db).FindSubscriptionPlan(ctx, planID)
}

func (r *CatalogRepository) CreatePlan(ctx context.Context, plan *model.SubscriptionPlan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePlanName
		}
		return err
	}
	return nil
}

func (r *CatalogRepository) UpdatePlan(ctx context.Context, plan *model.SubscriptionPlan) error {
	result := r.db.WithContext(ctx).
		Model(&model.SubscriptionPlan{ID: plan.ID}).
		Select("name", "type", "old_price", "new_price", "duration", "features").
		Updates(plan)
	if result.Error != nil && isUniqueViolation(result.Error) {
		return ErrDuplicatePlanName
	}
	return rowsOrNotFound(result)
}

func (r *CatalogRepository) DeletePlan(ctx context.Context, planID uint) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Delete(&model.SubscriptionPlan{}, planID))
}

func rowsOrNotFound(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
