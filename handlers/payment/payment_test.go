package payment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCheckout struct {
	mock.Mock
}

func (m *mockCheckout) CreateOrder(ctx context.Context, userID uint, req services.PurchaseRequest) (*services.CreateOrderResult, error) {
	args := m.Called(userID, req)
	res, _ := args.Get(0).(*services.CreateOrderResult)
	return res, args.Error(1)
}

func (m *mockCheckout) VerifyPayment(ctx context.Context, userID uint, req services.VerifyRequest) (*services.VerifyResult, error) {
	args := m.Called(userID, req)
	res, _ := args.Get(0).(*services.VerifyResult)
	return res, args.Error(1)
}

func newTestApp(checkout Checkout) *fiber.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(logger, false)})
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetUser(c, &model.User{ID: 42, Role: model.RoleUser})
		return c.Next()
	})
	h := NewPaymentHandler(checkout)
	app.Post("/create-order", h.CreateOrder)
	app.Post("/verify-payment", h.VerifyPayment)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCreateOrderPassesAuthenticatedUser(t *testing.T) {
	checkout := &mockCheckout{}
	courseID := uint(7)
	checkout.On("CreateOrder", uint(42), services.PurchaseRequest{
		Amount: 49900, Currency: "INR", PurchaseType: "course", CourseID: &courseID,
	}).Return(&services.CreateOrderResult{OrderID: "order_1", Amount: 49900, Currency: "INR"}, nil)

	status, body := post(t, newTestApp(checkout), "/create-order",
		`{"amount":49900,"currency":"INR","purchaseType":"course","courseId":7}`)

	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "order_1", data["order_id"])
	checkout.AssertExpectations(t)
}

func TestCreateOrderRendersDomainError(t *testing.T) {
	checkout := &mockCheckout{}
	checkout.On("CreateOrder", uint(42), mock.Anything).
		Return(nil, services.NewPaymentError(services.CodeInvalidAmount, "Amount must be a positive integer", http.StatusBadRequest))

	status, body := post(t, newTestApp(checkout), "/create-order", `{"amount":-1,"currency":"INR","purchaseType":"course","courseId":7}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.CodeInvalidAmount, body["code"])
	assert.Equal(t, false, body["success"])
}

func TestCreateOrderRejectsMalformedBody(t *testing.T) {
	status, body := post(t, newTestApp(&mockCheckout{}), "/create-order", `{"amount":`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.CodeInvalidInput, body["code"])
}

func TestVerifyPaymentReportsAlreadyProcessed(t *testing.T) {
	checkout := &mockCheckout{}
	checkout.On("VerifyPayment", uint(42), mock.MatchedBy(func(r services.VerifyRequest) bool {
		return r.PaymentID == "pay_1" && r.OrderID == "order_1" && r.PurchaseType == "course"
	})).Return(&services.VerifyResult{TransactionID: 9, AlreadyProcessed: true, EmailStatus: services.EmailStatusSkipped}, nil)

	status, body := post(t, newTestApp(checkout), "/verify-payment", `{
		"razorpay_payment_id":"pay_1","razorpay_order_id":"order_1","razorpay_signature":"sig",
		"amount":49900,"currency":"INR","purchaseType":"course","courseId":7}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Payment already processed", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(9), data["transactionId"])
	assert.Equal(t, true, data["alreadyProcessed"])
	checkout.AssertExpectations(t)
}
