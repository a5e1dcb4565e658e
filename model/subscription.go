package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionPlanNames is the closed set of plan names; each may exist once
var SubscriptionPlanNames = []string{"Basic", "Standard", "Premium", "Team", "Gift"}

// SubscriptionPlanTypes is the closed set of plan audiences
var SubscriptionPlanTypes = []string{"Personal", "Team", "Gift"}

// SubscriptionDurations lists the allowed plan lengths in days
var SubscriptionDurations = []int{30, 180, 365}

// SubscriptionPlan is an admin-defined plan template
type SubscriptionPlan struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	Name      string                      `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Type      string                      `gorm:"type:varchar(20);not null" json:"type"`
	OldPrice  int64                       `gorm:"not null;check:plan_old_price_non_negative,old_price >= 0" json:"old_price"`
	NewPrice  int64                       `gorm:"not null;check:plan_new_price_non_negative,new_price >= 0" json:"new_price"` // major units
	Duration  int                         `gorm:"not null" json:"duration"`                                                   // days
	Features  datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"features"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	DeletedAt gorm.DeletedAt              `gorm:"index" json:"-"`
}

// TableName specifies the table name for SubscriptionPlan
func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// PriceMinor returns the plan price in minor currency units
func (p *SubscriptionPlan) PriceMinor() int64 {
	return p.NewPrice * 100
}

// Validate checks plan template rules
func (p *SubscriptionPlan) Validate() error {
	if !containsString(SubscriptionPlanNames, p.Name) {
		return fmt.Errorf("invalid plan name %q", p.Name)
	}
	if !containsString(SubscriptionPlanTypes, p.Type) {
		return fmt.Errorf("invalid plan type %q", p.Type)
	}
	if p.NewPrice < 0 || p.OldPrice < 0 {
		return errors.New("prices must be non-negative")
	}
	if p.OldPrice < p.NewPrice {
		return errors.New("old price must be greater than or equal to new price")
	}
	validDuration := false
	for _, d := range SubscriptionDurations {
		if p.Duration == d {
			validDuration = true
			break
		}
	}
	if !validDuration {
		return fmt.Errorf("duration must be one of %v days", SubscriptionDurations)
	}
	if len(p.Features) == 0 {
		return errors.New("at least one feature is required")
	}
	for _, f := range p.Features {
		if f == "" {
			return errors.New("features must not be empty strings")
		}
	}
	return nil
}
