package payment

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// Checkout is the payment service surface used by the handler
type Checkout interface {
	CreateOrder(ctx context.Context, userID uint, req services.PurchaseRequest) (*services.CreateOrderResult, error)
	VerifyPayment(ctx context.Context, userID uint, req services.VerifyRequest) (*services.VerifyResult, error)
}

// PaymentHandler serves the checkout endpoints
type PaymentHandler struct {
	checkout Checkout
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(checkout Checkout) *PaymentHandler {
	return &PaymentHandler{checkout: checkout}
}

// CreateOrder handles POST /api/payment/create-order
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req services.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
	}

	result, err := h.checkout.CreateOrder(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return response.Success(c, result)
}

// VerifyPayment handles POST /api/payment/verify-payment
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req services.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
	}

	result, err := h.checkout.VerifyPayment(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	message := "Payment verified and access granted"
	if result.AlreadyProcessed {
		message = "Payment already processed"
	}
	return response.SuccessWithMessage(c, message, result)
}
