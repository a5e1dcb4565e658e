package services

import (
	"errors"
	"net/http"
)

// Stable error codes returned by the payment, access and refund services
const (
	CodeInvalidInput            = "INVALID_INPUT"
	CodeInvalidAmount           = "INVALID_AMOUNT"
	CodeInvalidCurrency         = "INVALID_CURRENCY"
	CodeInvalidPurchaseType     = "INVALID_PURCHASE_TYPE"
	CodeMissingCourseID         = "MISSING_COURSE_ID"
	CodeMissingSubscriptionID   = "MISSING_SUBSCRIPTION_ID"
	CodeInvalidCartItems        = "INVALID_CART_ITEMS"
	CodeAmountMismatch          = "AMOUNT_MISMATCH"
	CodeCurrencyMismatch        = "CURRENCY_MISMATCH"
	CodePurchaseContextMismatch = "PURCHASE_CONTEXT_MISMATCH"
	CodeOrderCreationFailed     = "ORDER_CREATION_FAILED"
	CodeOrderValidationFailed   = "ORDER_VALIDATION_FAILED"
	CodeInvalidSignature        = "INVALID_SIGNATURE"
	CodePaymentInProgress       = "PAYMENT_IN_PROGRESS"
	CodeVerificationFailed      = "PAYMENT_VERIFICATION_FAILED"
	CodeCourseNotFound          = "COURSE_NOT_FOUND"
	CodeSubscriptionNotFound    = "SUBSCRIPTION_NOT_FOUND"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeTransactionNotFound     = "TRANSACTION_NOT_FOUND"
	CodeRefundNotAllowed        = "REFUND_NOT_ALLOWED"
	CodeRefundAlreadyProcessed  = "REFUND_ALREADY_PROCESSED"
	CodeRefundInProgress        = "REFUND_IN_PROGRESS"
	CodeRefundFailed            = "REFUND_FAILED"
	CodeCourseNotOwned          = "COURSE_NOT_OWNED"
	CodeLessonNotFound          = "LESSON_NOT_FOUND"
)

// Account and catalog error codes
const (
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUserBanned         = "USER_BANNED"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	CodeInvalidCourse      = "INVALID_COURSE"
	CodeInvalidPlan        = "INVALID_SUBSCRIPTION"
	CodePlanExists         = "SUBSCRIPTION_EXISTS"
	CodeCannotBanSelf      = "CANNOT_BAN_SELF"
)

// PaymentError is a domain error with a stable code and the HTTP status it maps to
type PaymentError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

// NewPaymentError creates a domain error without an underlying cause
func NewPaymentError(code, message string, status int) *PaymentError {
	return &PaymentError{Code: code, Message: message, Status: status}
}

// WrapPaymentError attaches a cause to a domain error
func WrapPaymentError(code, message string, status int, err error) *PaymentError {
	return &PaymentError{Code: code, Message: message, Status: status, Err: err}
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error { return e.Err }

// ErrorCode implements response.CodedError
func (e *PaymentError) ErrorCode() string { return e.Code }

// HTTPStatus implements response.CodedError
func (e *PaymentError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// PublicMessage implements response.CodedError
func (e *PaymentError) PublicMessage() string { return e.Message }

// ErrorCodeOf returns the domain code carried by err, or ""
func ErrorCodeOf(err error) string {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func badRequest(code, message string) *PaymentError {
	return NewPaymentError(code, message, http.StatusBadRequest)
}

func notFound(code, message string) *PaymentError {
	return NewPaymentError(code, message, http.StatusNotFound)
}

func unauthorized(code, message string) *PaymentError {
	return NewPaymentError(code, message, http.StatusUnauthorized)
}

func conflict(code, message string) *PaymentError {
	return NewPaymentError(code, message, http.StatusConflict)
}

// verificationFailed wraps a grant failure. Domain causes keep their status so a
// client error inside the engine is still reported as a client error.
func verificationFailed(err error) *PaymentError {
	status := http.StatusInternalServerError
	message := "Payment verification failed"
	var inner *PaymentError
	if errors.As(err, &inner) {
		status = inner.HTTPStatus()
		message = inner.Message
	}
	return WrapPaymentError(CodeVerificationFailed, message, status, err)
}
