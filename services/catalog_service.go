package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

// CatalogService manages courses and subscription plan templates
type CatalogService struct {
	store  database.CatalogStore
	logger *slog.Logger
}

// NewCatalogService creates a catalog service
func NewCatalogService(store database.CatalogStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

// ListCourses returns a page of courses, optionally restricted to one category
func (s *CatalogService) ListCourses(ctx context.Context, category string, page, limit int) ([]model.Course, int64, error) {
	if category != "" && !oneOf(category, model.CourseCategories...) {
		return nil, 0, badRequest(CodeInvalidCourse, "Unknown course category")
	}
	return s.store.ListCourses(ctx, category, page, limit)
}

// GetCourse returns one course
func (s *CatalogService) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	course, err := s.store.FindCourse(ctx, courseID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound(CodeCourseNotFound, "Course not found")
	}
	return course, err
}

// CreateCourse validates and stores a new course
func (s *CatalogService) CreateCourse(ctx context.Context, course *model.Course) error {
	course.ID = 0
	if err := course.Validate(); err != nil {
		return invalidEntity(CodeInvalidCourse, err)
	}
	if err := s.store.CreateCourse(ctx, course); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "course created", "course_id", course.ID)
	return nil
}

// UpdateCourse replaces the editable fields of an existing course
func (s *CatalogService) UpdateCourse(ctx context.Context, courseID uint, course *model.Course) error {
	course.ID = courseID
	if err := course.Validate(); err != nil {
		return invalidEntity(CodeInvalidCourse, err)
	}
	err := s.store.UpdateCourse(ctx, course)
	if errors.Is(err, database.ErrNotFound) {
		return notFound(CodeCourseNotFound, "Course not found")
	}
	return err
}

// DeleteCourse soft-deletes a course. Existing entitlements are untouched.
func (s *CatalogService) DeleteCourse(ctx context.Context, courseID uint) error {
	err := s.store.DeleteCourse(ctx, courseID)
	if errors.Is(err, database.ErrNotFound) {
		return notFound(CodeCourseNotFound, "Course not found")
	}
	return err
}

func (s *CatalogService) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	return s.store.ListPlans(ctx)
}

func (s *CatalogService) GetPlan(ctx context.Context, planID uint) (*model.SubscriptionPlan, error) {
	plan, err := s.store.FindSubscriptionPlan(ctx, planID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound(CodeSubscriptionNotFound, "Subscription plan not found")
	}
	return plan, err
}

// CreatePlan validates and stores a plan; names are unique
func (s *CatalogService) CreatePlan(ctx context.Context, plan *model.SubscriptionPlan) error {
	plan.ID = 0
	if err := plan.Validate(); err != nil {
		return invalidEntity(CodeInvalidPlan, err)
	}
	err := s.store.CreatePlan(ctx, plan)
	if errors.Is(err, database.ErrDuplicatePlanName) {
		return conflict(CodePlanExists, "A plan with this name already exists")
	}
	return err
}

func (s *CatalogService) UpdatePlan(ctx context.Context, planID uint, plan *model.SubscriptionPlan) error {
	plan.ID = planID
	if err := plan.Validate(); err != nil {
		return invalidEntity(CodeInvalidPlan, err)
	}
	switch err := s.store.UpdatePlan(ctx, plan); {
	case errors.Is(err, database.ErrNotFound):
		return notFound(CodeSubscriptionNotFound, "Subscription plan not found")
	case errors.Is(err, database.ErrDuplicatePlanName):
		return conflict(CodePlanExists, "A plan with this name already exists")
	default:
		return err
	}
}

func (s *CatalogService) DeletePlan(ctx context.Context, planID uint) error {
	err := s.store.DeletePlan(ctx, planID)
	if errors.Is(err, database.ErrNotFound) {
		return notFound(CodeSubscriptionNotFound, "Subscription plan not found")
	}
	return err
}

func invalidEntity(code string, err error) *PaymentError {
	return WrapPaymentError(code, err.Error(), http.StatusBadRequest, err)
}
