package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusInactive  = "inactive"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// ErrIncompleteSubscription is returned when an active subscription slot is missing required fields
var ErrIncompleteSubscription = errors.New("active subscription is missing required fields")

// User represents a registered user and owns its entitlements
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `json:"-"`                                      // Never expose password in JSON
	GoogleID     *string        `gorm:"type:varchar(100);uniqueIndex" json:"-"` // External provider id
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'user'" json:"role"` // user, admin, instructor
	Banned       bool           `gorm:"default:false;index" json:"banned"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Version guards every entitlement mutation (compare-and-swap)
	Version int64 `gorm:"not null;default:0" json:"-"`

	ActiveSubscription ActiveSubscription `gorm:"embedded;embeddedPrefix:subscription_" json:"active_subscription"`

	// Relationships
	PurchasedCourses []PurchasedCourse   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"purchased_courses,omitempty"`
	Transactions     []UserTransaction   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SavedCourses     []SavedCourse       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist   []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasCourse reports whether the course is in the user's purchased list
func (u *User) HasCourse(courseID uint) bool {
	for _, pc := range u.PurchasedCourses {
		if pc.CourseID == courseID {
			return true
		}
	}
	return false
}

// ActiveSubscription is the single subscription slot embedded in users.
// Columns are prefixed with subscription_.
type ActiveSubscription struct {
	PlanID    *uint      `gorm:"index" json:"subscription_id"`
	Name      string     `gorm:"type:varchar(50)" json:"subscription_name"`
	Type      string     `gorm:"type:varchar(20)" json:"subscription_type"`
	Status    string     `gorm:"type:varchar(20);default:'inactive';index" json:"status"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Duration  int        `json:"duration"` // days
}

// IsActive reports whether the slot holds an active, unexpired plan
func (s ActiveSubscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.EndDate != nil && s.EndDate.After(now)
}

// Validate checks that an active slot is fully populated and its dates are ordered.
func (s ActiveSubscription) Validate() error {
	if s.Status != SubscriptionStatusActive {
		return nil
	}
	if s.PlanID == nil || s.Name == "" || s.Type == "" || s.Duration <= 0 ||
		s.StartDate == nil || s.EndDate == nil {
		return ErrIncompleteSubscription
	}
	if !s.EndDate.After(*s.StartDate) {
		return errors.New("subscription end date must be after start date")
	}
	return nil
}

// PurchasedCourse is an entitlement row owned by a user; (user_id, course_id) is unique
type PurchasedCourse struct {
	ID               uint       `gorm:"primaryKey" json:"-"`
	UserID           uint       `gorm:"not null;uniqueIndex:idx_purchased_user_course" json:"-"`
	CourseID         uint       `gorm:"not null;uniqueIndex:idx_purchased_user_course" json:"course_id"`
	CourseName       string     `gorm:"type:varchar(255)" json:"course_name"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Duration         int        `json:"duration"` // days, 0 means lifetime
	CompletionStatus string     `gorm:"type:varchar(20);default:'not_started'" json:"completion_status"`
	LastAccessed     *time.Time `json:"last_accessed,omitempty"`
	CreatedAt        time.Time  `json:"-"`
}

// TableName specifies the table name for PurchasedCourse
func (PurchasedCourse) TableName() string {
	return "purchased_courses"
}

// UserTransaction links a user to the transactions recorded for them
type UserTransaction struct {
	UserID        uint      `gorm:"primaryKey" json:"user_id"`
	TransactionID uint      `gorm:"primaryKey" json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for UserTransaction
func (UserTransaction) TableName() string {
	return "user_transactions"
}
