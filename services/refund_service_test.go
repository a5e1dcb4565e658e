package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/razorpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID uint = 99

func purchaseCourse(t *testing.T, env *testEnv, paymentID string) *model.Transaction {
	t.Helper()
	result, err := env.access.Grant(context.Background(), courseGrant(paymentID))
	require.NoError(t, err)
	return result.Transaction
}

func webhookBody(event, paymentID, refundID string) []byte {
	return []byte(fmt.Sprintf(`{"entity":"event","event":%q,"payload":{"refund":{"entity":{"id":%q,"payment_id":%q,"status":"processed","notes":[]}}}}`,
		event, refundID, paymentID))
}

func TestRequestRefundRevokesAndRecords(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")

	result, err := env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusProcessed, result.RefundStatus)
	assert.NotEmpty(t, result.RefundID)
	assert.Equal(t, EmailStatusSent, result.EmailStatus)

	txn := env.store.Transactions()[0]
	assert.Equal(t, model.RefundStatusProcessed, txn.RefundState())
	assert.Equal(t, result.RefundID, txn.RefundID)
	assert.Equal(t, model.TransactionStatusSuccessful, txn.Status)
	assert.False(t, env.store.User(testUserID).HasCourse(courseC1))
	assert.Empty(t, env.store.LinkedTransactions(testUserID))
	assert.Equal(t, []string{"pay_1"}, env.notifier.processing)
}

func TestRequestRefundTwiceIsRejected(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")

	_, err := env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	require.NoError(t, err)
	require.Equal(t, 1, env.gateway.refundCalls)

	_, err = env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	assert.Equal(t, CodeRefundAlreadyProcessed, ErrorCodeOf(err))
	assert.Equal(t, 1, env.gateway.refundCalls)
}

func TestRequestRefundUnknownPayment(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.refunds.RequestRefund(context.Background(), "pay_missing", adminID)
	assert.Equal(t, CodeTransactionNotFound, ErrorCodeOf(err))

	_, err = env.refunds.RequestRefund(context.Background(), " ", adminID)
	assert.Equal(t, CodeInvalidInput, ErrorCodeOf(err))
}

func TestRequestRefundGatewayFailureKeepsRevocation(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")
	env.gateway.refundErr = &razorpay.APIError{StatusCode: 400, Code: "BAD_REQUEST_ERROR", Description: "payment not captured"}

	_, err := env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	assert.Equal(t, CodeRefundFailed, ErrorCodeOf(err))

	txn := env.store.Transactions()[0]
	assert.Equal(t, model.RefundStatusFailed, txn.RefundState())
	assert.False(t, env.store.User(testUserID).HasCourse(courseC1))

	_, err = env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	assert.Equal(t, CodeRefundNotAllowed, ErrorCodeOf(err))
}

func TestRequestRefundInProgress(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")
	_, _ = env.locker.Acquire(context.Background(), "refund:pay_1", DefaultVerifyLockTTL)

	_, err := env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	assert.Equal(t, CodeRefundInProgress, ErrorCodeOf(err))
	assert.Zero(t, env.gateway.refundCalls)
}

func TestWebhookLifecycle(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")
	refund, err := env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	require.NoError(t, err)

	// created maps to processed, which is already stored
	result, err := env.refunds.HandleWebhook(context.Background(), webhookBody(razorpay.EventRefundCreated, "pay_1", refund.RefundID), "")
	require.NoError(t, err)
	assert.Equal(t, WebhookUnchanged, result.Status)

	result, err = env.refunds.HandleWebhook(context.Background(), webhookBody(razorpay.EventRefundProcessed, "pay_1", refund.RefundID), "")
	require.NoError(t, err)
	assert.Equal(t, WebhookUpdated, result.Status)
	assert.Equal(t, model.RefundStatusRefunded, result.RefundStatus)

	txn := env.store.Transactions()[0]
	assert.Equal(t, model.TransactionStatusRefunded, txn.Status)
	assert.NotNil(t, txn.RefundedAt)
	assert.Equal(t, []string{"pay_1"}, env.notifier.completed)

	// a late failure cannot move a settled refund backwards
	result, err = env.refunds.HandleWebhook(context.Background(), webhookBody(razorpay.EventRefundFailed, "pay_1", refund.RefundID), "")
	require.NoError(t, err)
	assert.Equal(t, WebhookUnchanged, result.Status)
	assert.Equal(t, model.RefundStatusRefunded, env.store.Transactions()[0].RefundState())
}

func TestWebhookFailedRefund(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")
	refund, err := env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	require.NoError(t, err)

	result, err := env.refunds.HandleWebhook(context.Background(), webhookBody(razorpay.EventRefundFailed, "pay_1", refund.RefundID), "")
	require.NoError(t, err)
	assert.Equal(t, WebhookUpdated, result.Status)

	txn := env.store.Transactions()[0]
	assert.Equal(t, model.RefundStatusFailed, txn.RefundState())
	assert.Equal(t, model.TransactionStatusSuccessful, txn.Status)
	assert.Empty(t, env.notifier.completed)
}

func TestWebhookSignature(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.webhookSecret = "hook_secret"
	purchaseCourse(t, env, "pay_1")
	body := webhookBody(razorpay.EventRefundProcessed, "pay_1", "rfnd_x")

	_, err := env.refunds.HandleWebhook(context.Background(), body, "bad")
	assert.Equal(t, CodeInvalidSignature, ErrorCodeOf(err))
	assert.Empty(t, env.store.Transactions()[0].RefundState())

	result, err := env.refunds.HandleWebhook(context.Background(), body, razorpay.Sign("hook_secret", body))
	require.NoError(t, err)
	assert.Equal(t, WebhookUpdated, result.Status)
}

func TestWebhookRefundStartedOutsideRevokesAccess(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")

	_, err := env.refunds.HandleWebhook(context.Background(), webhookBody(razorpay.EventRefundCreated, "pay_1", "rfnd_dash"), "")
	require.NoError(t, err)

	txn := env.store.Transactions()[0]
	assert.Equal(t, model.RefundStatusProcessed, txn.RefundState())
	assert.Equal(t, "rfnd_dash", txn.RefundID)
	assert.False(t, env.store.User(testUserID).HasCourse(courseC1))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.refunds.HandleWebhook(context.Background(), []byte(`{"event":"payment.captured","payload":{}}`), "")
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, result.Status)

	result, err = env.refunds.HandleWebhook(context.Background(), webhookBody(razorpay.EventRefundProcessed, "pay_unknown", "rfnd_1"), "")
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, result.Status)

	_, err = env.refunds.HandleWebhook(context.Background(), []byte(`not json`), "")
	assert.Equal(t, CodeInvalidInput, ErrorCodeOf(err))
}

func TestReconcilePendingRefunds(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")
	purchaseCourse(t, env, "pay_2")

	r1, err := env.refunds.RequestRefund(context.Background(), "pay_1", adminID)
	require.NoError(t, err)
	_, err = env.refunds.RequestRefund(context.Background(), "pay_2", adminID)
	require.NoError(t, err)

	env.gateway.setRefundStatus(r1.RefundID, "processed")

	updated, err := env.refunds.ReconcilePendingRefunds(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	states := map[string]string{}
	for _, txn := range env.store.Transactions() {
		states[txn.PaymentID] = txn.RefundState()
	}
	assert.Equal(t, model.RefundStatusRefunded, states["pay_1"])
	assert.Equal(t, model.RefundStatusProcessed, states["pay_2"])
}

func TestRevokeByPaymentID(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")

	txn, err := env.refunds.RevokeByPaymentID(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", txn.PaymentID)
	assert.False(t, env.store.User(testUserID).HasCourse(courseC1))

	_, err = env.refunds.RevokeByPaymentID(context.Background(), "pay_404")
	assert.Equal(t, CodeTransactionNotFound, ErrorCodeOf(err))
}

// settlingGateway delivers a refund webhook while the refund call is still in flight
type settlingGateway struct {
	*fakeGateway
	refunds    *RefundService
	webhookErr error
}

func (g *settlingGateway) Refund(ctx context.Context, paymentID string, req razorpay.RefundRequest) (*razorpay.Refund, error) {
	refund, err := g.fakeGateway.Refund(ctx, paymentID, req)
	if err != nil {
		return nil, err
	}
	_, g.webhookErr = g.refunds.HandleWebhook(ctx, webhookBody(razorpay.EventRefundProcessed, paymentID, refund.ID), "")
	return refund, nil
}

func newSettlingRefunds(env *testEnv, locker Locker) (*RefundService, *settlingGateway) {
	gateway := &settlingGateway{fakeGateway: env.gateway}
	deps := RefundDeps{Notifier: env.notifier}
	if locker != nil {
		deps.Locker = locker
	}
	svc := NewRefundService(env.store, gateway, env.access, discardLogger(), deps)
	gateway.refunds = svc
	return svc, gateway
}

func TestWebhookDuringRefundRequestIsDeferred(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")
	refunds, gateway := newSettlingRefunds(env, env.locker)

	result, err := refunds.RequestRefund(context.Background(), "pay_1", adminID)
	require.NoError(t, err)
	assert.Equal(t, CodeRefundInProgress, ErrorCodeOf(gateway.webhookErr))
	assert.Equal(t, model.RefundStatusProcessed, env.store.Transactions()[0].RefundState())

	// the gateway redelivers once the request has released the lock
	webhook, err := refunds.HandleWebhook(context.Background(), webhookBody(razorpay.EventRefundProcessed, "pay_1", result.RefundID), "")
	require.NoError(t, err)
	assert.Equal(t, WebhookUpdated, webhook.Status)

	txn := env.store.Transactions()[0]
	assert.Equal(t, model.RefundStatusRefunded, txn.RefundState())
	assert.Equal(t, model.TransactionStatusRefunded, txn.Status)
	assert.Equal(t, []string{"pay_1"}, env.notifier.completed)
}

func TestRefundRequestNeverMovesSettledStateBackward(t *testing.T) {
	env := newTestEnv(t)
	purchaseCourse(t, env, "pay_1")
	refunds, gateway := newSettlingRefunds(env, nil)

	result, err := refunds.RequestRefund(context.Background(), "pay_1", adminID)
	require.NoError(t, err)
	require.NoError(t, gateway.webhookErr)
	assert.Equal(t, model.RefundStatusRefunded, result.RefundStatus)

	txn := env.store.Transactions()[0]
	assert.Equal(t, model.RefundStatusRefunded, txn.RefundState())
	assert.Equal(t, model.TransactionStatusRefunded, txn.Status)
	assert.Equal(t, []string{"pay_1"}, env.notifier.completed)
	assert.Empty(t, env.notifier.processing)

	updated, err := refunds.ReconcilePendingRefunds(context.Background(), 50)
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Equal(t, []string{"pay_1"}, env.notifier.completed)
}
