package database

import "errors"

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicatePayment is returned when a transaction with the same payment id already exists
	ErrDuplicatePayment = errors.New("transaction for payment id already exists")
	// ErrVersionConflict is returned when a user row changed since it was read
	ErrVersionConflict = errors.New("user was modified concurrently")
	// ErrRefundStateConflict is returned when a transaction's refund status changed since it was read
	ErrRefundStateConflict = errors.New("refund state was modified concurrently")
)
