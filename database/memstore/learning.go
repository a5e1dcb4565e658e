package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

type userCourse struct {
	userID, courseID uint
}

func (m *Store) FindProgress(ctx context.Context, userID, courseID uint) (*model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[userCourse{userID, courseID}]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	cp.CompletedLessons = append(cp.CompletedLessons[:0:0], p.CompletedLessons...)
	return &cp, nil
}

func (m *Store) SaveProgress(ctx context.Context, progress *model.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userCourse{progress.UserID, progress.CourseID}
	now := time.Now()
	if existing, ok := m.progress[key]; ok {
		progress.ID, progress.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		m.nextProgressID++
		progress.ID, progress.CreatedAt = m.nextProgressID, now
	}
	progress.UpdatedAt = now
	cp := *progress
	cp.CompletedLessons = append(cp.CompletedLessons[:0:0], progress.CompletedLessons...)
	m.progress[key] = &cp
	return nil
}

func (m *Store) TouchPurchasedCourse(ctx context.Context, userID, courseID uint, at time.Time, completionStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	for i := range u.PurchasedCourses {
		if u.PurchasedCourses[i].CourseID == courseID {
			t := at
			u.PurchasedCourses[i].LastAccessed = &t
			u.PurchasedCourses[i].CompletionStatus = completionStatus
		}
	}
	return nil
}

func (m *Store) ToggleSavedCourse(ctx context.Context, userID, courseID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userCourse{userID, courseID}
	if _, ok := m.saved[key]; ok {
		delete(m.saved, key)
		return false, nil
	}
	m.saved[key] = time.Now()
	return true, nil
}

func (m *Store) ListSavedCourses(ctx context.Context, userID uint) ([]model.SavedCourse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SavedCourse{}
	for key, at := range m.saved {
		if key.userID != userID {
			continue
		}
		sc := model.SavedCourse{UserID: userID, CourseID: key.courseID, CreatedAt: at}
		if c, ok := m.courses[key.courseID]; ok {
			sc.Course = *c
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
