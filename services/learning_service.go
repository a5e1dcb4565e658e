package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

const (
	CompletionNotStarted = "not_started"
	CompletionInProgress = "in_progress"
	CompletionCompleted  = "completed"
)

// LearningService tracks lesson progress and saved courses
type LearningService struct {
	store  database.LearningStore
	logger *slog.Logger
	now    func() time.Time
}

// NewLearningService creates a learning service
func NewLearningService(store database.LearningStore, logger *slog.Logger) *LearningService {
	return &LearningService{store: store, logger: logger, now: time.Now}
}

// CourseProgress is the progress view returned to clients
type CourseProgress struct {
	CourseID         uint       `json:"courseId"`
	CompletedLessons []string   `json:"completedLessons"`
	TotalLessons     int        `json:"totalLessons"`
	Percent          int        `json:"percent"`
	IsCompleted      bool       `json:"isCompleted"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// MarkLessonComplete records lessonID as done. Marking the same lesson twice is a no-op.
func (s *LearningService) MarkLessonComplete(ctx context.Context, userID, courseID uint, lessonID string) (*CourseProgress, error) {
	if lessonID == "" {
		return nil, badRequest(CodeInvalidInput, "lessonId is required")
	}

	course, user, err := s.accessibleCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	lessons := course.LessonIDs()
	if !containsLesson(lessons, lessonID) {
		return nil, notFound(CodeLessonNotFound, "Lesson not found in course")
	}

	progress, err := s.store.FindProgress(ctx, userID, courseID)
	if errors.Is(err, database.ErrNotFound) {
		progress = &model.UserProgress{UserID: userID, CourseID: courseID}
	} else if err != nil {
		return nil, err
	}

	now := s.now()
	added := progress.MarkLesson(lessonID)
	progress.Refresh(lessons, now)
	if added {
		if err := s.store.SaveProgress(ctx, progress); err != nil {
			return nil, err
		}
	}

	if user.HasCourse(courseID) {
		status := CompletionInProgress
		if progress.IsCompleted {
			status = CompletionCompleted
		}
		if err := s.store.TouchPurchasedCourse(ctx, userID, courseID, now, status); err != nil {
			s.logger.WarnContext(ctx, "failed to update purchased course access time",
				"user_id", userID, "course_id", courseID, "error", err)
		}
	}

	return toCourseProgress(courseID, progress, len(lessons)), nil
}

// GetProgress returns the user's progress in a course, empty when nothing was completed yet
func (s *LearningService) GetProgress(ctx context.Context, userID, courseID uint) (*CourseProgress, error) {
	course, _, err := s.accessibleCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	progress, err := s.store.FindProgress(ctx, userID, courseID)
	if errors.Is(err, database.ErrNotFound) {
		progress = &model.UserProgress{UserID: userID, CourseID: courseID}
	} else if err != nil {
		return nil, err
	}
	return toCourseProgress(courseID, progress, len(course.LessonIDs())), nil
}

// ToggleSaved bookmarks a course or removes the bookmark. It returns the new state.
func (s *LearningService) ToggleSaved(ctx context.Context, userID, courseID uint) (bool, error) {
	if _, err := s.store.FindCourse(ctx, courseID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, notFound(CodeCourseNotFound, "Course not found")
		}
		return false, err
	}
	return s.store.ToggleSavedCourse(ctx, userID, courseID)
}

// ListSaved returns the user's bookmarks, newest first
func (s *LearningService) ListSaved(ctx context.Context, userID uint) ([]model.SavedCourse, error) {
	return s.store.ListSavedCourses(ctx, userID)
}

// accessibleCourse loads the course and checks the user owns it or holds an active subscription
func (s *LearningService) accessibleCourse(ctx context.Context, userID, courseID uint) (*model.Course, *model.User, error) {
	course, err := s.store.FindCourse(ctx, courseID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, notFound(CodeCourseNotFound, "Course not found")
	}
	if err != nil {
		return nil, nil, err
	}

	user, err := s.store.FindUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, notFound(CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, nil, err
	}

	if !user.HasCourse(courseID) && !user.ActiveSubscription.IsActive(s.now()) {
		return nil, nil, NewPaymentError(CodeCourseNotOwned, "Purchase this course or subscribe to access it", http.StatusForbidden)
	}
	return course, user, nil
}

func toCourseProgress(courseID uint, p *model.UserProgress, total int) *CourseProgress {
	completed := []string(p.CompletedLessons)
	if completed == nil {
		completed = []string{}
	}
	percent := 0
	if total > 0 {
		percent = len(completed) * 100 / total
	}
	return &CourseProgress{
		CourseID:         courseID,
		CompletedLessons: completed,
		TotalLessons:     total,
		Percent:          percent,
		IsCompleted:      p.IsCompleted,
		CompletedAt:      p.CompletedAt,
	}
}

func containsLesson(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
