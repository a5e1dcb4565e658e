package services

import (
	"context"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/razorpay"
)

// Gateway is the subset of the Razorpay client the payment services use
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	GetOrder(ctx context.Context, orderID string) (*razorpay.Order, error)
	Refund(ctx context.Context, paymentID string, req razorpay.RefundRequest) (*razorpay.Refund, error)
	GetRefund(ctx context.Context, paymentID, refundID string) (*razorpay.Refund, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	HasWebhookSecret() bool
	VerifyWebhookSignature(body []byte, signature string) (bool, error)
}

// Notifier sends transactional emails about purchases and refunds
type Notifier interface {
	SendPurchaseConfirmation(ctx context.Context, user *model.User, txn *model.Transaction) error
	SendRefundProcessing(ctx context.Context, user *model.User, txn *model.Transaction) error
	SendRefundCompleted(ctx context.Context, user *model.User, txn *model.Transaction) error
}

// Locker guards short critical sections across instances
type Locker interface {
	// Acquire returns an owner token, or "" when the key is already held
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Release drops the key only while token still owns it
	Release(ctx context.Context, key, token string) error
}

// EventPublisher emits payment domain events
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// ReceiptStore archives purchase receipts and returns their URL
type ReceiptStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Payment domain event types
const (
	EventTransactionCompleted = "transaction.completed"
	EventAccessRevoked        = "access.revoked"
	EventRefundInitiated      = "refund.initiated"
	EventRefundUpdated        = "refund.updated"
	EventSubscriptionsExpired = "subscriptions.expired"
)

// Email delivery outcomes reported back to the caller
const (
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
	EmailStatusSkipped = "skipped"
)
