package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/metrics"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/razorpay"
)

// Outcomes of applying a refund status update
const (
	WebhookUpdated   = "updated"
	WebhookUnchanged = "unchanged"
	WebhookIgnored   = "ignored"
)

// RefundService issues refunds and applies gateway refund lifecycle updates
type RefundService struct {
	store    database.PaymentStore
	gateway  Gateway
	access   *AccessService
	notifier Notifier
	events   EventPublisher
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time
}

// RefundDeps are the optional collaborators of RefundService
type RefundDeps struct {
	Notifier Notifier
	Events   EventPublisher
	Locker   Locker
}

// NewRefundService creates a new refund service
func NewRefundService(store database.PaymentStore, gateway Gateway, access *AccessService, logger *slog.Logger, deps RefundDeps) *RefundService {
	return &RefundService{
		store:    store,
		gateway:  gateway,
		access:   access,
		notifier: deps.Notifier,
		events:   deps.Events,
		locker:   deps.Locker,
		logger:   logger,
		now:      time.Now,
	}
}

// RefundResult describes an initiated refund
type RefundResult struct {
	PaymentID    string  `json:"paymentId"`
	RefundID     string  `json:"refundId"`
	RefundStatus string  `json:"refundStatus"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	EmailStatus  string  `json:"emailStatus"`
}

// RequestRefund refunds a successful transaction in full. Access is revoked
// before the gateway is called and is not restored if the gateway call fails.
func (s *RefundService) RequestRefund(ctx context.Context, paymentID string, adminID uint) (*RefundResult, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, badRequest(CodeInvalidInput, "paymentId is required")
	}
	log := s.logger.With("payment_id", paymentID, "admin_id", adminID)

	release, err := s.lock(ctx, "refund:"+paymentID)
	if err != nil {
		return nil, err
	}
	defer release()

	txn, err := s.findTransaction(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	switch txn.RefundState() {
	case "":
	case model.RefundStatusFailed:
		metrics.Refund(metrics.OutcomeRejected)
		return nil, NewPaymentError(CodeRefundNotAllowed, "A previous refund attempt failed; resolve it from the gateway dashboard", http.StatusConflict)
	default:
		metrics.Refund(metrics.OutcomeRejected)
		return nil, NewPaymentError(CodeRefundAlreadyProcessed, "Refund already processed for this payment", http.StatusConflict)
	}
	if txn.Status != model.TransactionStatusSuccessful {
		metrics.Refund(metrics.OutcomeRejected)
		return nil, badRequest(CodeRefundNotAllowed, "Only successful transactions can be refunded")
	}

	if err := s.access.Revoke(ctx, RevokeInput{
		UserID:        txn.UserID,
		Purchase:      PurchaseFromTransaction(txn),
		TransactionID: txn.ID,
	}); err != nil {
		metrics.Refund(metrics.OutcomeFailed)
		log.ErrorContext(ctx, "failed to revoke access before refund", "error", err)
		return nil, WrapPaymentError(CodeRefundFailed, "Failed to revoke access for refund", http.StatusInternalServerError, err)
	}

	refund, err := s.gateway.Refund(ctx, paymentID, razorpay.RefundRequest{
		Amount: txn.AmountMinor(),
		Notes: razorpay.Notes{
			"transaction_id": strconv.FormatUint(uint64(txn.ID), 10),
			"admin_id":       strconv.FormatUint(uint64(adminID), 10),
		},
	})
	if err != nil || refund == nil || refund.ID == "" {
		if err == nil {
			err = errors.New("gateway returned an empty refund")
		}
		failed := model.RefundStatusFailed
		txn.RefundStatus = &failed
		if saveErr := s.store.SaveRefundState(ctx, txn, ""); saveErr != nil {
			log.ErrorContext(ctx, "failed to record refund failure", "error", saveErr)
		}
		metrics.Refund(metrics.OutcomeFailed)
		log.ErrorContext(ctx, "gateway refund failed after access was revoked", "user_id", txn.UserID, "error", err)
		return nil, WrapPaymentError(CodeRefundFailed, "Refund could not be initiated at the payment gateway", http.StatusBadGateway, err)
	}

	processed := model.RefundStatusProcessed
	txn.RefundStatus = &processed
	txn.RefundID = refund.ID
	emailStatus := EmailStatusSkipped
	switch err := s.store.SaveRefundState(ctx, txn, ""); {
	case err == nil:
		emailStatus = s.notify(ctx, txn, model.RefundStatusProcessed)
	case errors.Is(err, database.ErrRefundStateConflict):
		// the gateway already reported this refund; its state wins
		current, findErr := s.findTransaction(ctx, paymentID)
		if findErr != nil {
			return nil, fmt.Errorf("refund %s issued but state reload failed: %w", refund.ID, findErr)
		}
		log.InfoContext(ctx, "refund state advanced during gateway call", "refund_status", current.RefundState())
		txn = current
	default:
		return nil, fmt.Errorf("refund %s issued but not recorded: %w", refund.ID, err)
	}

	metrics.Refund("processed")
	log.InfoContext(ctx, "refund initiated", "refund_id", refund.ID, "user_id", txn.UserID)
	s.publish(ctx, EventRefundInitiated, txn)

	return &RefundResult{
		PaymentID:    txn.PaymentID,
		RefundID:     refund.ID,
		RefundStatus: txn.RefundState(),
		Amount:       txn.Amount,
		Currency:     txn.Currency,
		EmailStatus:  emailStatus,
	}, nil
}

// RevokeByPaymentID removes the access granted by a transaction without refunding it
func (s *RefundService) RevokeByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, badRequest(CodeInvalidInput, "paymentId is required")
	}
	txn, err := s.findTransaction(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Revoke(ctx, RevokeInput{
		UserID:        txn.UserID,
		Purchase:      PurchaseFromTransaction(txn),
		TransactionID: txn.ID,
	}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "access revoked", "payment_id", paymentID, "user_id", txn.UserID)
	return txn, nil
}

// WebhookResult is acknowledged back to the gateway
type WebhookResult struct {
	Event        string `json:"event"`
	Status       string `json:"status"`
	RefundStatus string `json:"refundStatus,omitempty"`
}

// HandleWebhook authenticates and applies a gateway webhook. Events outside the
// refund lifecycle are acknowledged and ignored.
func (s *RefundService) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if s.gateway.HasWebhookSecret() {
		ok, err := s.gateway.VerifyWebhookSignature(body, signature)
		if err != nil || !ok {
			metrics.Webhook("invalid_signature")
			s.logger.WarnContext(ctx, "webhook signature rejected", "error", err)
			return nil, badRequest(CodeInvalidSignature, "Invalid webhook signature")
		}
	} else {
		s.logger.WarnContext(ctx, "webhook secret not configured, accepting unsigned webhook")
	}

	event, err := razorpay.ParseWebhook(body)
	if err != nil {
		return nil, badRequest(CodeInvalidInput, "Invalid webhook payload")
	}
	metrics.Webhook(event.Event)

	if !event.IsRefundEvent() {
		s.logger.InfoContext(ctx, "ignoring webhook event", "event", event.Event)
		return &WebhookResult{Event: event.Event, Status: WebhookIgnored}, nil
	}

	refund := event.RefundEntity()
	if refund == nil || refund.PaymentID == "" {
		return nil, badRequest(CodeInvalidInput, "Webhook payload has no refund entity")
	}

	// a non-2xx answer makes the gateway redeliver once the refund request finishes
	release, err := s.lock(ctx, "refund:"+refund.PaymentID)
	if err != nil {
		return nil, err
	}
	defer release()

	txn, err := s.store.FindTransactionByPaymentID(ctx, refund.PaymentID)
	if errors.Is(err, database.ErrNotFound) {
		s.logger.WarnContext(ctx, "webhook for unknown payment", "event", event.Event, "payment_id", refund.PaymentID)
		return &WebhookResult{Event: event.Event, Status: WebhookIgnored}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	status, err := s.applyRefundStatus(ctx, txn, refund.ID, refundStatusForEvent(event.Event))
	if errors.Is(err, database.ErrRefundStateConflict) {
		return nil, NewPaymentError(CodeRefundInProgress, "Refund state changed while applying the webhook", http.StatusConflict)
	}
	if err != nil {
		return nil, err
	}
	return &WebhookResult{Event: event.Event, Status: status, RefundStatus: txn.RefundState()}, nil
}

// ReconcilePendingRefunds polls the gateway for refunds still marked processed
// and applies their final state. It returns the number of transactions updated.
func (s *RefundService) ReconcilePendingRefunds(ctx context.Context, limit int) (int, error) {
	pending, err := s.store.ListPendingRefunds(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending refunds: %w", err)
	}

	updated := 0
	for i := range pending {
		status, err := s.reconcile(ctx, &pending[i])
		if err != nil {
			s.logger.WarnContext(ctx, "failed to reconcile refund", "payment_id", pending[i].PaymentID, "refund_id", pending[i].RefundID, "error", err)
			continue
		}
		if status == WebhookUpdated {
			updated++
		}
	}
	return updated, nil
}

func (s *RefundService) reconcile(ctx context.Context, txn *model.Transaction) (string, error) {
	release, err := s.lock(ctx, "refund:"+txn.PaymentID)
	if err != nil {
		return "", err
	}
	defer release()

	refund, err := s.gateway.GetRefund(ctx, txn.PaymentID, txn.RefundID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch refund status: %w", err)
	}
	return s.applyRefundStatus(ctx, txn, refund.ID, refundStatusForGateway(refund.Status))
}

// refundRank orders refund states; a transition must strictly increase the rank
func refundRank(status string) int {
	switch status {
	case model.RefundStatusProcessed:
		return 1
	case model.RefundStatusRefunded, model.RefundStatusFailed:
		return 2
	}
	return 0
}

func refundStatusForEvent(event string) string {
	switch event {
	case razorpay.EventRefundCreated:
		return model.RefundStatusProcessed
	case razorpay.EventRefundProcessed, razorpay.EventRefundCompleted:
		return model.RefundStatusRefunded
	case razorpay.EventRefundFailed:
		return model.RefundStatusFailed
	}
	return ""
}

func refundStatusForGateway(status string) string {
	switch status {
	case "pending", "created":
		return model.RefundStatusProcessed
	case "processed":
		return model.RefundStatusRefunded
	case "failed":
		return model.RefundStatusFailed
	}
	return ""
}

// applyRefundStatus moves txn forward to next. Equal or backward transitions
// write nothing.
func (s *RefundService) applyRefundStatus(ctx context.Context, txn *model.Transaction, refundID, next string) (string, error) {
	current := txn.RefundState()
	log := s.logger.With("payment_id", txn.PaymentID, "from", current, "to", next)

	if next == "" || next == current {
		return WebhookUnchanged, nil
	}
	if refundRank(next) <= refundRank(current) {
		log.WarnContext(ctx, "ignoring backward refund transition")
		return WebhookUnchanged, nil
	}

	startedOutside := current == ""
	txn.RefundStatus = &next
	if refundID != "" && txn.RefundID == "" {
		txn.RefundID = refundID
	}
	if next == model.RefundStatusRefunded {
		now := s.now()
		txn.Status = model.TransactionStatusRefunded
		txn.RefundedAt = &now
	}
	if err := s.store.SaveRefundState(ctx, txn, current); err != nil {
		return "", fmt.Errorf("failed to save refund state: %w", err)
	}
	log.InfoContext(ctx, "refund status updated")

	if startedOutside && next != model.RefundStatusFailed {
		log.WarnContext(ctx, "refund started outside the app, revoking access", "user_id", txn.UserID)
		if err := s.access.Revoke(ctx, RevokeInput{
			UserID:        txn.UserID,
			Purchase:      PurchaseFromTransaction(txn),
			TransactionID: txn.ID,
		}); err != nil {
			log.ErrorContext(ctx, "failed to revoke access for external refund", "error", err)
		}
	}

	switch next {
	case model.RefundStatusRefunded:
		s.notify(ctx, txn, model.RefundStatusRefunded)
	case model.RefundStatusFailed:
		log.ErrorContext(ctx, "gateway reported refund failure, access stays revoked", "user_id", txn.UserID)
	}
	s.publish(ctx, EventRefundUpdated, txn)
	return WebhookUpdated, nil
}

func (s *RefundService) findTransaction(ctx context.Context, paymentID string) (*model.Transaction, error) {
	txn, err := s.store.FindTransactionByPaymentID(ctx, paymentID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound(CodeTransactionNotFound, "Transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return txn, nil
}

// notify sends the refund email for the given refund status
func (s *RefundService) notify(ctx context.Context, txn *model.Transaction, status string) string {
	if s.notifier == nil {
		return EmailStatusSkipped
	}
	user, err := s.store.FindUser(ctx, txn.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "cannot load user for refund email", "user_id", txn.UserID, "error", err)
		return EmailStatusFailed
	}
	if status == model.RefundStatusRefunded {
		err = s.notifier.SendRefundCompleted(ctx, user, txn)
	} else {
		err = s.notifier.SendRefundProcessing(ctx, user, txn)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send refund email", "user_id", user.ID, "payment_id", txn.PaymentID, "error", err)
		return EmailStatusFailed
	}
	return EmailStatusSent
}

func (s *RefundService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event", eventType, "error", err)
	}
}

func (s *RefundService) lock(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	token, err := s.locker.Acquire(ctx, key, DefaultVerifyLockTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "refund lock unavailable", "key", key, "error", err)
		return noop, nil
	}
	if token == "" {
		return nil, NewPaymentError(CodeRefundInProgress, "A refund for this payment is already in progress", http.StatusConflict)
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.WarnContext(ctx, "failed to release refund lock", "key", key, "error", err)
		}
	}, nil
}
