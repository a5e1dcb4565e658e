package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/metrics"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/razorpay"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/trace"
)

// DefaultVerifyLockTTL bounds how long one verify call holds the per-payment lock
const DefaultVerifyLockTTL = 30 * time.Second

// PaymentService creates gateway orders and verifies completed payments
type PaymentService struct {
	store   database.PaymentStore
	gateway Gateway
	access  *AccessService
	locker  Locker
	logger  *slog.Logger
	lockTTL time.Duration
}

// NewPaymentService creates a new payment service. locker may be nil.
func NewPaymentService(store database.PaymentStore, gateway Gateway, access *AccessService, locker Locker, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gateway,
		access:  access,
		locker:  locker,
		logger:  logger,
		lockTTL: DefaultVerifyLockTTL,
	}
}

// CreateOrderResult is returned to the checkout widget
type CreateOrderResult struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder validates a purchase request and opens a gateway order for it
func (s *PaymentService) CreateOrder(ctx context.Context, userID uint, req PurchaseRequest) (*CreateOrderResult, error) {
	valid, err := req.Validate()
	if err != nil {
		return nil, err
	}

	if _, err := resolvePurchase(ctx, s.store, valid.Purchase, valid.Amount); err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   valid.Amount,
		Currency: valid.Currency,
		Receipt:  razorpay.Receipt(trace.FromContext(ctx)),
		Notes:    valid.Purchase.Notes(userID),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "gateway order creation failed",
			"user_id", userID,
			"amount", valid.Amount,
			"currency", valid.Currency,
			"error", err,
		)
		return nil, WrapPaymentError(CodeOrderCreationFailed, "Failed to create payment order", http.StatusBadGateway, err)
	}
	if order == nil || order.ID == "" || order.Amount != valid.Amount || !strings.EqualFold(order.Currency, valid.Currency) {
		s.logger.ErrorContext(ctx, "gateway returned malformed order", "user_id", userID, "order", order)
		return nil, NewPaymentError(CodeOrderCreationFailed, "Payment gateway returned an invalid order", http.StatusBadGateway)
	}

	metrics.OrderCreated(valid.Currency)
	s.logger.InfoContext(ctx, "payment order created",
		"user_id", userID,
		"order_id", order.ID,
		"purchase_type", valid.Purchase.Type,
		"amount", valid.Amount,
		"currency", valid.Currency,
	)

	return &CreateOrderResult{OrderID: order.ID, Amount: order.Amount, Currency: valid.Currency}, nil
}

// VerifyRequest is the payload posted after the checkout widget completes
type VerifyRequest struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
	PurchaseRequest
}

// VerifyResult reports the recorded transaction
type VerifyResult struct {
	TransactionID    uint   `json:"transactionId"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
	EmailStatus      string `json:"emailStatus"`
}

// VerifyPayment checks the checkout signature, re-reads the order from the gateway
// and hands the payment to the access engine.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID uint, req VerifyRequest) (*VerifyResult, error) {
	log := s.logger.With("user_id", userID, "payment_id", req.PaymentID, "order_id", req.OrderID)

	if strings.TrimSpace(req.PaymentID) == "" || strings.TrimSpace(req.OrderID) == "" || strings.TrimSpace(req.Signature) == "" {
		metrics.Verification(metrics.OutcomeRejected)
		return nil, badRequest(CodeInvalidInput, "razorpay_payment_id, razorpay_order_id and razorpay_signature are required")
	}

	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		metrics.Verification(metrics.OutcomeRejected)
		log.WarnContext(ctx, "payment signature mismatch")
		return nil, badRequest(CodeInvalidSignature, "Invalid payment signature")
	}

	valid, err := req.PurchaseRequest.Validate()
	if err != nil {
		metrics.Verification(metrics.OutcomeRejected)
		return nil, err
	}

	release, err := s.lock(ctx, req.PaymentID)
	if err != nil {
		metrics.Verification(metrics.OutcomeRejected)
		return nil, err
	}
	defer release()

	order, err := s.gateway.GetOrder(ctx, req.OrderID)
	if err != nil {
		metrics.Verification(metrics.OutcomeFailed)
		log.ErrorContext(ctx, "failed to fetch order from gateway", "error", err)
		return nil, WrapPaymentError(CodeOrderValidationFailed, "Failed to validate payment order", http.StatusBadGateway, err)
	}
	if order == nil || order.ID != req.OrderID {
		metrics.Verification(metrics.OutcomeFailed)
		return nil, NewPaymentError(CodeOrderValidationFailed, "Payment gateway returned an invalid order", http.StatusBadGateway)
	}
	if order.Amount != valid.Amount {
		metrics.Verification(metrics.OutcomeRejected)
		log.WarnContext(ctx, "amount differs from gateway order", "submitted", valid.Amount, "gateway", order.Amount)
		return nil, badRequest(CodeAmountMismatch, "Amount does not match the payment order")
	}
	if !strings.EqualFold(order.Currency, valid.Currency) {
		metrics.Verification(metrics.OutcomeRejected)
		log.WarnContext(ctx, "currency differs from gateway order", "submitted", valid.Currency, "gateway", order.Currency)
		return nil, badRequest(CodeCurrencyMismatch, "Currency does not match the payment order")
	}
	if !valid.Purchase.MatchesNotes(order.Notes, userID) {
		metrics.Verification(metrics.OutcomeRejected)
		log.WarnContext(ctx, "purchase context differs from gateway order notes", "notes", map[string]string(order.Notes))
		return nil, badRequest(CodePurchaseContextMismatch, "Purchase details do not match the payment order")
	}

	result, err := s.access.Grant(ctx, GrantInput{
		UserID:    userID,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Signature: req.Signature,
		Amount:    valid.Amount,
		Currency:  valid.Currency,
		Purchase:  valid.Purchase,
		TraceID:   trace.FromContext(ctx),
	})
	if err != nil {
		metrics.Verification(metrics.OutcomeFailed)
		log.ErrorContext(ctx, "payment verification failed", "error", err)
		return nil, verificationFailed(err)
	}

	if result.AlreadyProcessed {
		metrics.Verification(metrics.OutcomeAlreadyProcessed)
		log.InfoContext(ctx, "payment already processed", "transaction_id", result.Transaction.ID)
	} else {
		metrics.Verification(metrics.OutcomeGranted)
	}

	return &VerifyResult{
		TransactionID:    result.Transaction.ID,
		AlreadyProcessed: result.AlreadyProcessed,
		EmailStatus:      result.EmailStatus,
	}, nil
}

// lock takes the per-payment verify lock. Lock backend failures are logged and
// ignored; the unique payment id index still rejects duplicates.
func (s *PaymentService) lock(ctx context.Context, paymentID string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	key := "verify:" + paymentID
	token, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "verify lock unavailable", "payment_id", paymentID, "error", err)
		return noop, nil
	}
	if token == "" {
		return nil, NewPaymentError(CodePaymentInProgress, "Payment verification already in progress", http.StatusConflict)
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.WarnContext(ctx, "failed to release verify lock", "payment_id", paymentID, "error", err)
		}
	}, nil
}
