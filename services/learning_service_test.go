package services

import (
	"context"
	"testing"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database/memstore"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID      uint = 1
	subscriberID uint = 2
	strangerID   uint = 3
	learnCourse  uint = 20
)

func newLearningFixture(t *testing.T) (*LearningService, *memstore.Store) {
	t.Helper()
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 1, 0)
	planID := uint(1)

	store := memstore.New()
	store.PutCourse(model.Course{
		ID:       learnCourse,
		Title:    "Go Concurrency",
		Category: "Programming Languages",
		Syllabus: []model.Section{
			{ID: "s1", Title: "Basics", Lessons: []model.Lesson{{ID: "l1"}, {ID: "l2"}}},
			{ID: "s2", Title: "Patterns", Lessons: []model.Lesson{{ID: "l3"}}},
		},
	})
	store.PutUser(model.User{ID: ownerID, PurchasedCourses: []model.PurchasedCourse{{CourseID: learnCourse, CompletionStatus: CompletionNotStarted}}})
	store.PutUser(model.User{ID: subscriberID, ActiveSubscription: model.ActiveSubscription{
		PlanID: &planID, Name: "Basic", Type: "Personal", Status: model.SubscriptionStatusActive,
		StartDate: &now, EndDate: &end, Duration: 30,
	}})
	store.PutUser(model.User{ID: strangerID})

	svc := NewLearningService(store, discardLogger())
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestMarkLessonCompleteIsIdempotent(t *testing.T) {
	svc, _ := newLearningFixture(t)
	ctx := context.Background()

	_, err := svc.MarkLessonComplete(ctx, ownerID, learnCourse, "l1")
	require.NoError(t, err)
	progress, err := svc.MarkLessonComplete(ctx, ownerID, learnCourse, "l1")
	require.NoError(t, err)

	assert.Equal(t, []string{"l1"}, progress.CompletedLessons)
	assert.Equal(t, 3, progress.TotalLessons)
	assert.Equal(t, 33, progress.Percent)
	assert.False(t, progress.IsCompleted)
}

func TestMarkAllLessonsCompletesCourse(t *testing.T) {
	svc, store := newLearningFixture(t)
	ctx := context.Background()

	for _, id := range []string{"l1", "l2", "l3"} {
		_, err := svc.MarkLessonComplete(ctx, ownerID, learnCourse, id)
		require.NoError(t, err)
	}

	progress, err := svc.GetProgress(ctx, ownerID, learnCourse)
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted)
	assert.Equal(t, 100, progress.Percent)
	require.NotNil(t, progress.CompletedAt)
	firstCompletion := *progress.CompletedAt

	// completion time does not move on later calls
	svc.now = func() time.Time { return firstCompletion.Add(time.Hour) }
	progress, err = svc.MarkLessonComplete(ctx, ownerID, learnCourse, "l2")
	require.NoError(t, err)
	assert.Equal(t, firstCompletion, *progress.CompletedAt)

	pc := store.User(ownerID).PurchasedCourses[0]
	assert.Equal(t, CompletionCompleted, pc.CompletionStatus)
	assert.NotNil(t, pc.LastAccessed)
}

func TestSubscriberCanTrackProgress(t *testing.T) {
	svc, _ := newLearningFixture(t)

	progress, err := svc.MarkLessonComplete(context.Background(), subscriberID, learnCourse, "l3")
	require.NoError(t, err)
	assert.Equal(t, []string{"l3"}, progress.CompletedLessons)
}

func TestProgressRequiresAccess(t *testing.T) {
	svc, _ := newLearningFixture(t)
	ctx := context.Background()

	_, err := svc.MarkLessonComplete(ctx, strangerID, learnCourse, "l1")
	assert.Equal(t, CodeCourseNotOwned, ErrorCodeOf(err))

	_, err = svc.GetProgress(ctx, strangerID, learnCourse)
	assert.Equal(t, CodeCourseNotOwned, ErrorCodeOf(err))
}

func TestMarkLessonValidation(t *testing.T) {
	svc, _ := newLearningFixture(t)
	ctx := context.Background()

	_, err := svc.MarkLessonComplete(ctx, ownerID, learnCourse, "nope")
	assert.Equal(t, CodeLessonNotFound, ErrorCodeOf(err))

	_, err = svc.MarkLessonComplete(ctx, ownerID, 404, "l1")
	assert.Equal(t, CodeCourseNotFound, ErrorCodeOf(err))

	_, err = svc.MarkLessonComplete(ctx, ownerID, learnCourse, "")
	assert.Equal(t, CodeInvalidInput, ErrorCodeOf(err))
}

func TestGetProgressEmpty(t *testing.T) {
	svc, _ := newLearningFixture(t)

	progress, err := svc.GetProgress(context.Background(), ownerID, learnCourse)
	require.NoError(t, err)
	assert.Empty(t, progress.CompletedLessons)
	assert.Zero(t, progress.Percent)
}

func TestToggleSaved(t *testing.T) {
	svc, _ := newLearningFixture(t)
	ctx := context.Background()

	saved, err := svc.ToggleSaved(ctx, strangerID, learnCourse)
	require.NoError(t, err)
	assert.True(t, saved)

	list, err := svc.ListSaved(ctx, strangerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Go Concurrency", list[0].Course.Title)

	saved, err = svc.ToggleSaved(ctx, strangerID, learnCourse)
	require.NoError(t, err)
	assert.False(t, saved)

	list, err = svc.ListSaved(ctx, strangerID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ToggleSaved(ctx, strangerID, 404)
	assert.Equal(t, CodeCourseNotFound, ErrorCodeOf(err))
}
