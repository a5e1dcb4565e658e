package transaction

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
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRefunds struct{ mock.Mock }

func (m *mockRefunds) RequestRefund(ctx context.Context, paymentID string, adminID uint) (*services.RefundResult, error) {
	args := m.Called(paymentID, adminID)
	res, _ := args.Get(0).(*services.RefundResult)
	return res, args.Error(1)
}

func (m *mockRefunds) RevokeByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error) {
	args := m.Called(paymentID)
	res, _ := args.Get(0).(*model.Transaction)
	return res, args.Error(1)
}

func (m *mockRefunds) HandleWebhook(ctx context.Context, body []byte, signature string) (*services.WebhookResult, error) {
	args := m.Called(string(body), signature)
	res, _ := args.Get(0).(*services.WebhookResult)
	return res, args.Error(1)
}

type mockHistory struct{ mock.Mock }

func (m *mockHistory) ListForUser(ctx context.Context, userID uint, page, limit int) ([]model.Transaction, int64, error) {
	args := m.Called(userID, page, limit)
	return args.Get(0).([]model.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *mockHistory) List(ctx context.Context, filter database.TransactionFilter, page, limit int) ([]model.Transaction, int64, error) {
	args := m.Called(filter, page, limit)
	return args.Get(0).([]model.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *mockHistory) Details(ctx context.Context, paymentID string) (*model.Transaction, error) {
	args := m.Called(paymentID)
	res, _ := args.Get(0).(*model.Transaction)
	return res, args.Error(1)
}

type recordingAuditor struct {
	entries []services.AuditEntry
}

func (a *recordingAuditor) Record(ctx context.Context, entry services.AuditEntry) {
	a.entries = append(a.entries, entry)
}

type fixture struct {
	app     *fiber.App
	refunds *mockRefunds
	history *mockHistory
	audit   *recordingAuditor
}

func newFixture(user *model.User) *fixture {
	f := &fixture{refunds: &mockRefunds{}, history: &mockHistory{}, audit: &recordingAuditor{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.app = fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(logger, false)})
	f.app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			middleware.SetUser(c, user)
		}
		return c.Next()
	})

	h := NewTransactionHandler(f.refunds, f.history, f.audit)
	f.app.Post("/refund/request", h.RequestRefund)
	f.app.Post("/revoke", h.Revoke)
	f.app.Post("/webhook", h.Webhook)
	f.app.Get("/user", h.UserTransactions)
	f.app.Get("/details/:paymentId", h.Details)
	f.app.Get("/", h.List)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

var admin = &model.User{ID: 1, Role: model.RoleAdmin}

func TestRequestRefundIsAudited(t *testing.T) {
	f := newFixture(admin)
	f.refunds.On("RequestRefund", "pay_1", uint(1)).Return(&services.RefundResult{
		PaymentID: "pay_1", RefundID: "rfnd_1", RefundStatus: model.RefundStatusProcessed,
	}, nil)

	status, body := f.do(t, http.MethodPost, "/refund/request", `{"paymentId":"pay_1"}`, nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rfnd_1", body["data"].(map[string]interface{})["refundId"])
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.AuditActionRefundRequest, f.audit.entries[0].Action)
	assert.Equal(t, "pay_1", f.audit.entries[0].ResourceID)
}

func TestRequestRefundFailureIsNotAudited(t *testing.T) {
	f := newFixture(admin)
	f.refunds.On("RequestRefund", "pay_1", uint(1)).
		Return(nil, services.NewPaymentError(services.CodeRefundAlreadyProcessed, "Refund already processed for this payment", http.StatusConflict))

	status, body := f.do(t, http.MethodPost, "/refund/request", `{"paymentId":"pay_1"}`, nil)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, services.CodeRefundAlreadyProcessed, body["code"])
	assert.Empty(t, f.audit.entries)
}

func TestRevoke(t *testing.T) {
	f := newFixture(admin)
	f.refunds.On("RevokeByPaymentID", "pay_2").Return(&model.Transaction{ID: 5, UserID: 9, PaymentID: "pay_2"}, nil)

	status, body := f.do(t, http.MethodPost, "/revoke", `{"paymentId":"pay_2"}`, nil)

	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(9), data["userId"])
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.AuditActionAccessRevoke, f.audit.entries[0].Action)
}

func TestWebhookPassesRawBodyAndSignature(t *testing.T) {
	f := newFixture(nil)
	payload := `{"event":"refund.processed","payload":{}}`
	f.refunds.On("HandleWebhook", payload, "abc123").
		Return(&services.WebhookResult{Event: "refund.processed", Status: "updated", RefundStatus: model.RefundStatusRefunded}, nil)

	status, _ := f.do(t, http.MethodPost, "/webhook", payload, map[string]string{SignatureHeader: "abc123"})

	assert.Equal(t, http.StatusOK, status)
	f.refunds.AssertExpectations(t)
}

func TestWebhookInvalidSignature(t *testing.T) {
	f := newFixture(nil)
	f.refunds.On("HandleWebhook", mock.Anything, "bad").
		Return(nil, services.NewPaymentError(services.CodeInvalidSignature, "Invalid webhook signature", http.StatusBadRequest))

	status, body := f.do(t, http.MethodPost, "/webhook", `{}`, map[string]string{SignatureHeader: "bad"})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.CodeInvalidSignature, body["code"])
}

func TestUserTransactionsClampsLimit(t *testing.T) {
	f := newFixture(&model.User{ID: 3, Role: model.RoleUser})
	f.history.On("ListForUser", uint(3), 2, 100).Return([]model.Transaction{{ID: 1, PaymentID: "pay_1"}}, int64(101), nil)

	status, body := f.do(t, http.MethodGet, "/user?page=2&limit=500", "", nil)

	assert.Equal(t, http.StatusOK, status)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total_pages"])
	f.history.AssertExpectations(t)
}

func TestListParsesFilters(t *testing.T) {
	f := newFixture(admin)
	filter := database.TransactionFilter{Status: "successful", PurchaseType: "cart", UserID: 4}
	f.history.On("List", filter, 1, 10).Return([]model.Transaction{}, int64(0), nil)

	status, _ := f.do(t, http.MethodGet, "/?status=successful&purchaseType=cart&userId=4", "", nil)
	assert.Equal(t, http.StatusOK, status)
	f.history.AssertExpectations(t)

	status, body := f.do(t, http.MethodGet, "/?userId=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.CodeInvalidInput, body["code"])
}

func TestDetailsNotFound(t *testing.T) {
	f := newFixture(admin)
	f.history.On("Details", "pay_missing").
		Return(nil, services.NewPaymentError(services.CodeTransactionNotFound, "Transaction not found", http.StatusNotFound))

	status, body := f.do(t, http.MethodGet, "/details/pay_missing", "", nil)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, services.CodeTransactionNotFound, body["code"])
}
