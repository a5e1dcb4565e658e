package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

func (m *Store) ListCourses(ctx context.Context, category string, page, limit int) ([]model.Course, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Course
	for _, c := range m.courses {
		if category == "" || c.Category == category {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (m *Store) CreateCourse(ctx context.Context, course *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	course.ID = m.allocID("course", func(id uint) bool { _, ok := m.courses[id]; return ok })
	now := time.Now()
	course.CreatedAt, course.UpdatedAt = now, now
	cp := *course
	m.courses[course.ID] = &cp
	return nil
}

func (m *Store) UpdateCourse(ctx context.Context, course *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.courses[course.ID]
	if !ok {
		return database.ErrNotFound
	}
	course.CreatedAt = existing.CreatedAt
	course.UpdatedAt = time.Now()
	cp := *course
	m.courses[course.ID] = &cp
	return nil
}

func (m *Store) DeleteCourse(ctx context.Context, courseID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[courseID]; !ok {
		return database.ErrNotFound
	}
	delete(m.courses, courseID)
	return nil
}

func (m *Store) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SubscriptionPlan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NewPrice < out[j].NewPrice })
	return out, nil
}

func (m *Store) CreatePlan(ctx context.Context, plan *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.planNameTaken(plan.Name, 0) {
		return database.ErrDuplicatePlanName
	}
	plan.ID = m.allocID("plan", func(id uint) bool { _, ok := m.plans[id]; return ok })
	now := time.Now()
	plan.CreatedAt, plan.UpdatedAt = now, now
	cp := *plan
	m.plans[plan.ID] = &cp
	return nil
}

func (m *Store) UpdatePlan(ctx context.Context, plan *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.plans[plan.ID]
	if !ok {
		return database.ErrNotFound
	}
	if m.planNameTaken(plan.Name, plan.ID) {
		return database.ErrDuplicatePlanName
	}
	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = time.Now()
	cp := *plan
	m.plans[plan.ID] = &cp
	return nil
}

func (m *Store) DeletePlan(ctx context.Context, planID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[planID]; !ok {
		return database.ErrNotFound
	}
	delete(m.plans, planID)
	return nil
}

func (m *Store) planNameTaken(name string, except uint) bool {
	for id, p := range m.plans {
		if id != except && p.Name == name {
			return true
		}
	}
	return false
}
