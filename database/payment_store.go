package database

import (
	"context"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

// PaymentStore is the persistence surface used by the payment, access and refund
// services. Every entitlement mutation must be paired with BumpUserVersion inside
// the same WithinTx call.
type PaymentStore interface {
	// WithinTx runs fn in one database transaction. Returning an error rolls back.
	WithinTx(ctx context.Context, fn func(store PaymentStore) error) error

	FindUser(ctx context.Context, userID uint) (*model.User, error)
	FindCourse(ctx context.Context, courseID uint) (*model.Course, error)
	FindSubscriptionPlan(ctx context.Context, planID uint) (*model.SubscriptionPlan, error)

	FindTransactionByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error)
	// CreateTransaction returns ErrDuplicatePayment when the payment id is taken
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	// SaveRefundState persists Status, RefundStatus, RefundID and RefundedAt if
	// the stored refund status still equals from ("" for none), otherwise it
	// returns ErrRefundStateConflict.
	SaveRefundState(ctx context.Context, txn *model.Transaction, from string) error
	SetReceiptURL(ctx context.Context, transactionID uint, url string) error
	ListUserTransactions(ctx context.Context, userID uint, page, limit int) ([]model.Transaction, int64, error)
	ListTransactions(ctx context.Context, filter TransactionFilter, page, limit int) ([]model.Transaction, int64, error)
	// ListPendingRefunds returns refunds started at the gateway but not yet settled
	ListPendingRefunds(ctx context.Context, limit int) ([]model.Transaction, error)

	// BumpUserVersion increments users.version if it still equals expected,
	// otherwise returns ErrVersionConflict.
	BumpUserVersion(ctx context.Context, userID uint, expected int64) error
	// AddPurchasedCourse reports false when the course was already owned
	AddPurchasedCourse(ctx context.Context, userID uint, pc model.PurchasedCourse) (bool, error)
	// RemovePurchasedCourse reports false when the course was not owned
	RemovePurchasedCourse(ctx context.Context, userID, courseID uint) (bool, error)
	SetActiveSubscription(ctx context.Context, userID uint, sub model.ActiveSubscription) error
	LinkTransaction(ctx context.Context, userID, transactionID uint) error
	UnlinkTransaction(ctx context.Context, userID, transactionID uint) (bool, error)
	// ExpireSubscriptions marks active subscriptions that ended before now as
	// expired and bumps each affected user's version
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

// TransactionFilter narrows the admin transaction listing. Empty fields match everything.
type TransactionFilter struct {
	Status       string
	PurchaseType string
	UserID       uint
	RefundStatus string
}
