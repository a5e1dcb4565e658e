package transaction

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// SignatureHeader carries the gateway webhook HMAC
const SignatureHeader = "X-Razorpay-Signature"

// Refunds is the refund and revocation surface
type Refunds interface {
	RequestRefund(ctx context.Context, paymentID string, adminID uint) (*services.RefundResult, error)
	RevokeByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*services.WebhookResult, error)
}

// History is the transaction read surface
type History interface {
	ListForUser(ctx context.Context, userID uint, page, limit int) ([]model.Transaction, int64, error)
	List(ctx context.Context, filter database.TransactionFilter, page, limit int) ([]model.Transaction, int64, error)
	Details(ctx context.Context, paymentID string) (*model.Transaction, error)
}

// Auditor records admin actions
type Auditor interface {
	Record(ctx context.Context, entry services.AuditEntry)
}

// TransactionHandler serves refunds, revocation, webhooks and history
type TransactionHandler struct {
	refunds Refunds
	history History
	audit   Auditor
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(refunds Refunds, history History, audit Auditor) *TransactionHandler {
	return &TransactionHandler{refunds: refunds, history: history, audit: audit}
}

// PaymentRequest identifies a transaction by its gateway payment id
type PaymentRequest struct {
	PaymentID string `json:"paymentId"`
}

// RequestRefund handles POST /api/transactions/refund/request (admin)
func (h *TransactionHandler) RequestRefund(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}
	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
	}

	result, err := h.refunds.RequestRefund(c.UserContext(), req.PaymentID, admin.ID)
	if err != nil {
		return err
	}

	h.record(c, admin.ID, model.AuditActionRefundRequest, req.PaymentID, result)
	return response.SuccessWithMessage(c, "Refund initiated", result)
}

// Revoke handles POST /api/transactions/revoke (admin)
func (h *TransactionHandler) Revoke(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}
	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
	}

	txn, err := h.refunds.RevokeByPaymentID(c.UserContext(), req.PaymentID)
	if err != nil {
		return err
	}

	h.record(c, admin.ID, model.AuditActionAccessRevoke, req.PaymentID, fiber.Map{"user_id": txn.UserID, "transaction_id": txn.ID})
	return response.SuccessWithMessage(c, "Access revoked", fiber.Map{
		"paymentId":     txn.PaymentID,
		"userId":        txn.UserID,
		"transactionId": txn.ID,
	})
}

// Webhook handles POST /api/transactions/razorpay-refund-webhook. The raw body
// is passed through untouched so the HMAC can be checked.
func (h *TransactionHandler) Webhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	result, err := h.refunds.HandleWebhook(c.UserContext(), body, c.Get(SignatureHeader))
	if err != nil {
		return err
	}
	return response.Success(c, result)
}

// UserTransactions handles GET /api/transactions/user
func (h *TransactionHandler) UserTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}
	page, limit := response.PageQuery(c)

	txns, total, err := h.history.ListForUser(c.UserContext(), userID, page, limit)
	if err != nil {
		return err
	}
	return response.Paginated(c, txns, response.CalculatePagination(page, limit, total))
}

// List handles GET /api/transactions (admin)
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	page, limit := response.PageQuery(c)
	filter := database.TransactionFilter{
		Status:       c.Query("status"),
		PurchaseType: c.Query("purchaseType"),
		RefundStatus: c.Query("refundStatus"),
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return response.Error(c, fiber.StatusBadRequest, "userId must be a positive integer", services.CodeInvalidInput)
		}
		filter.UserID = uint(id)
	}

	txns, total, err := h.history.List(c.UserContext(), filter, page, limit)
	if err != nil {
		return err
	}
	return response.Paginated(c, txns, response.CalculatePagination(page, limit, total))
}

// Details handles GET /api/transactions/details/:paymentId (admin)
func (h *TransactionHandler) Details(c *fiber.Ctx) error {
	txn, err := h.history.Details(c.UserContext(), c.Params("paymentId"))
	if err != nil {
		return err
	}
	return response.Success(c, txn)
}

func (h *TransactionHandler) record(c *fiber.Ctx, adminID uint, action, paymentID string, value interface{}) {
	if h.audit == nil {
		return
	}
	h.audit.Record(c.UserContext(), services.AuditEntry{
		AdminID:     adminID,
		Action:      action,
		Resource:    "transactions",
		ResourceID:  paymentID,
		Value:       value,
		IPAddress:   c.IP(),
		UserAgent:   utils.CopyString(c.Get(fiber.HeaderUserAgent)),
		Description: c.Method() + " " + c.Path(),
		TraceID:     response.TraceID(c),
	})
}
