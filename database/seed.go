package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/auth"
)

// Seeder fills an empty database with an admin account and a starter catalog
type Seeder struct {
	accounts AccountStore
	catalog  CatalogStore
	logger   *slog.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(accounts AccountStore, catalog CatalogStore, logger *slog.Logger) *Seeder {
	return &Seeder{accounts: accounts, catalog: catalog, logger: logger}
}

// SeedAll runs every seed step. Each step is skipped when its data already exists.
func (s *Seeder) SeedAll(ctx context.Context, adminEmail, adminPassword string) error {
	if err := s.SeedAdminUser(ctx, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := s.SeedCourses(ctx); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}
	if err := s.SeedPlans(ctx); err != nil {
		return fmt.Errorf("failed to seed subscription plans: %w", err)
	}
	return nil
}

// SeedAdminUser creates the admin account from the given credentials
func (s *Seeder) SeedAdminUser(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.logger.Warn("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	if _, err := s.accounts.FindUserByEmail(ctx, email); err == nil {
		s.logger.Info("admin user already exists, skipping", "email", email)
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Email:              email,
		Name:               "Administrator",
		PasswordHash:       hash,
		Role:               model.RoleAdmin,
		ActiveSubscription: model.ActiveSubscription{Status: model.SubscriptionStatusInactive},
	}
	if err := s.accounts.CreateUser(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("admin user created", "email", email)
	return nil
}

// SeedCourses inserts the starter catalog when no course exists
func (s *Seeder) SeedCourses(ctx context.Context) error {
	_, total, err := s.catalog.ListCourses(ctx, "", 1, 1)
	if err != nil {
		return err
	}
	if total > 0 {
		s.logger.Info("courses already seeded, skipping", "count", total)
		return nil
	}

	for _, c := range starterCourses() {
		course := c
		if err := course.Validate(); err != nil {
			return fmt.Errorf("course %q: %w", course.Title, err)
		}
		if err := s.catalog.CreateCourse(ctx, &course); err != nil {
			return err
		}
	}
	s.logger.Info("courses seeded", "count", len(starterCourses()))
	return nil
}

// SeedPlans inserts the default subscription plans when none exist
func (s *Seeder) SeedPlans(ctx context.Context) error {
	plans, err := s.catalog.ListPlans(ctx)
	if err != nil {
		return err
	}
	if len(plans) > 0 {
		s.logger.Info("subscription plans already seeded, skipping", "count", len(plans))
		return nil
	}

	for _, p := range starterPlans() {
		plan := p
		if err := plan.Validate(); err != nil {
			return fmt.Errorf("plan %q: %w", plan.Name, err)
		}
		if err := s.catalog.CreatePlan(ctx, &plan); err != nil {
			return err
		}
	}
	s.logger.Info("subscription plans seeded", "count", len(starterPlans()))
	return nil
}

func starterCourses() []model.Course {
	return []model.Course{
		{
			Title:        "Modern JavaScript from Scratch",
			Description:  "Variables to async/await, with small projects along the way.",
			Category:     "Web Development",
			OldPrice:     1999,
			NewPrice:     499,
			IsBestSeller: true,
			Syllabus: []model.Section{
				{ID: "js-basics", Title: "Language Basics", Lessons: []model.Lesson{
					{ID: "js-basics-1", Title: "Values and Types", Duration: 12},
					{ID: "js-basics-2", Title: "Functions and Scope", Duration: 18, Quiz: &model.Quiz{
						Question:      "Which keyword declares a block-scoped variable?",
						Options:       []string{"var", "let", "function", "this"},
						CorrectAnswer: "let",
					}},
				}},
				{ID: "js-async", Title: "Asynchronous Code", Lessons: []model.Lesson{
					{ID: "js-async-1", Title: "Promises", Duration: 20},
					{ID: "js-async-2", Title: "async and await", Duration: 15},
				}},
			},
		},
		{
			Title:       "SQL for Developers",
			Description: "Query, join and index relational data with PostgreSQL.",
			Category:    "Database",
			OldPrice:    1499,
			NewPrice:    399,
			Syllabus: []model.Section{
				{ID: "sql-select", Title: "Selecting Data", Lessons: []model.Lesson{
					{ID: "sql-select-1", Title: "SELECT and WHERE", Duration: 10},
					{ID: "sql-select-2", Title: "Joins", Duration: 22, Quiz: &model.Quiz{
						Question:      "Which join keeps unmatched rows from the left table?",
						Options:       []string{"INNER JOIN", "LEFT JOIN", "CROSS JOIN", "SELF JOIN"},
						CorrectAnswer: "LEFT JOIN",
					}},
				}},
			},
		},
		{
			Title:       "Docker and CI Pipelines",
			Description: "Containerize services and ship them through automated pipelines.",
			Category:    "DevOps",
			OldPrice:    2499,
			NewPrice:    799,
			Duration:    365,
			Syllabus: []model.Section{
				{ID: "docker-intro", Title: "Containers", Lessons: []model.Lesson{
					{ID: "docker-intro-1", Title: "Images and Layers", Duration: 14},
					{ID: "docker-intro-2", Title: "Compose", Duration: 16},
				}},
			},
		},
	}
}

func starterPlans() []model.SubscriptionPlan {
	return []model.SubscriptionPlan{
		{Name: "Basic", Type: "Personal", OldPrice: 799, NewPrice: 399, Duration: 30,
			Features: []string{"Access to all courses", "Progress tracking"}},
		{Name: "Standard", Type: "Personal", OldPrice: 3999, NewPrice: 1999, Duration: 180,
			Features: []string{"Access to all courses", "Progress tracking", "Priority support"}},
		{Name: "Premium", Type: "Personal", OldPrice: 6999, NewPrice: 3499, Duration: 365,
			Features: []string{"Access to all courses", "Progress tracking", "Priority support", "Certificates"}},
	}
}
