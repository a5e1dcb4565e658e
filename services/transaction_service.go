package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

// TransactionService serves transaction history reads
type TransactionService struct {
	store database.PaymentStore
}

// NewTransactionService creates a transaction query service
func NewTransactionService(store database.PaymentStore) *TransactionService {
	return &TransactionService{store: store}
}

// ListForUser returns the user's own transactions, newest first
func (s *TransactionService) ListForUser(ctx context.Context, userID uint, page, limit int) ([]model.Transaction, int64, error) {
	return s.store.ListUserTransactions(ctx, userID, page, limit)
}

// List returns all transactions matching filter, newest first
func (s *TransactionService) List(ctx context.Context, filter database.TransactionFilter, page, limit int) ([]model.Transaction, int64, error) {
	if filter.Status != "" && !oneOf(filter.Status, model.TransactionStatusPending, model.TransactionStatusSuccessful,
		model.TransactionStatusFailed, model.TransactionStatusRefunded) {
		return nil, 0, badRequest(CodeInvalidInput, "Unknown transaction status filter")
	}
	if filter.PurchaseType != "" && !oneOf(filter.PurchaseType, model.PurchaseTypeCourse, model.PurchaseTypeSubscription, model.PurchaseTypeCart) {
		return nil, 0, badRequest(CodeInvalidPurchaseType, "Unknown purchase type filter")
	}
	if filter.RefundStatus != "" && !oneOf(filter.RefundStatus, model.RefundStatusProcessed, model.RefundStatusRefunded, model.RefundStatusFailed) {
		return nil, 0, badRequest(CodeInvalidInput, "Unknown refund status filter")
	}
	return s.store.ListTransactions(ctx, filter, page, limit)
}

// Details returns the transaction recorded for a gateway payment id
func (s *TransactionService) Details(ctx context.Context, paymentID string) (*model.Transaction, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, badRequest(CodeInvalidInput, "paymentId is required")
	}
	txn, err := s.store.FindTransactionByPaymentID(ctx, paymentID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound(CodeTransactionNotFound, "Transaction not found")
	}
	return txn, err
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
