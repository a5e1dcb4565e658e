package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TransactionStatusPending    = "pending"
	TransactionStatusSuccessful = "successful"
	TransactionStatusFailed     = "failed"
	TransactionStatusRefunded   = "refunded"
)

const (
	RefundStatusProcessed = "processed"
	RefundStatusRefunded  = "refunded"
	RefundStatusFailed    = "failed"
)

const (
	PurchaseTypeCourse       = "course"
	PurchaseTypeSubscription = "subscription"
	PurchaseTypeCart         = "cart"
)

// Transaction records one verified payment. Rows are never deleted and only the
// refund fields change after creation.
type Transaction struct {
	ID                uint                          `gorm:"primaryKey" json:"id"`
	UserID            uint                          `gorm:"not null;index" json:"user_id"`
	PaymentID         string                        `gorm:"type:varchar(100);uniqueIndex;not null" json:"payment_id"`
	OrderID           string                        `gorm:"type:varchar(100);index;not null" json:"order_id"`
	RazorpaySignature string                        `gorm:"type:varchar(255)" json:"-"`
	Amount            float64                       `gorm:"not null" json:"amount"` // major units
	Currency          string                        `gorm:"type:varchar(10);not null" json:"currency"`
	Status            string                        `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PurchaseType      string                        `gorm:"type:varchar(20);not null" json:"purchase_type"`
	CourseID          *uint                         `gorm:"index" json:"course_id,omitempty"`
	SubscriptionID    *uint                         `gorm:"index" json:"subscription_id,omitempty"`
	ItemName          string                        `gorm:"type:varchar(255)" json:"item_name,omitempty"`
	Duration          int                           `json:"duration,omitempty"`
	CartItems         datatypes.JSONSlice[CartItem] `gorm:"type:jsonb" json:"cart_items,omitempty"`
	RefundStatus      *string                       `gorm:"type:varchar(20);index" json:"refund_status"`
	RefundID          string                        `gorm:"type:varchar(100)" json:"refund_id,omitempty"`
	RefundedAt        *time.Time                    `json:"refunded_at,omitempty"`
	TraceID           string                        `gorm:"type:varchar(64)" json:"trace_id,omitempty"`
	ReceiptURL        string                        `gorm:"type:text" json:"receipt_url,omitempty"`
	CreatedAt         time.Time                     `json:"created_at"`
	UpdatedAt         time.Time                     `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// CartItem is one course line in a cart purchase, priced in major units
type CartItem struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// RefundState returns the refund status or "" when no refund was started
func (t *Transaction) RefundState() string {
	if t.RefundStatus == nil {
		return ""
	}
	return *t.RefundStatus
}

// AmountMinor converts the stored major-unit amount back to minor units
func (t *Transaction) AmountMinor() int64 {
	return int64(t.Amount*100 + 0.5)
}
