package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database/memstore"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/razorpay"
)

const testKeySecret = "test_secret"

// fakeGateway records orders in memory and signs like the real gateway
type fakeGateway struct {
	mu            sync.Mutex
	webhookSecret string
	orders        map[string]*razorpay.Order
	refunds       map[string]*razorpay.Refund
	nextID        int

	createErr   error
	getOrderErr error
	refundErr   error
	refundCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		orders:  make(map[string]*razorpay.Order),
		refunds: make(map[string]*razorpay.Refund),
	}
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	order := &razorpay.Order{
		ID:       fmt.Sprintf("order_%d", g.nextID),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}
	g.orders[order.ID] = order
	cp := *order
	return &cp, nil
}

func (g *fakeGateway) GetOrder(ctx context.Context, orderID string) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getOrderErr != nil {
		return nil, g.getOrderErr
	}
	order, ok := g.orders[orderID]
	if !ok {
		return nil, &razorpay.APIError{StatusCode: 400, Code: "BAD_REQUEST_ERROR", Description: "The id provided does not exist"}
	}
	cp := *order
	return &cp, nil
}

func (g *fakeGateway) Refund(ctx context.Context, paymentID string, req razorpay.RefundRequest) (*razorpay.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.nextID++
	refund := &razorpay.Refund{
		ID:        fmt.Sprintf("rfnd_%d", g.nextID),
		PaymentID: paymentID,
		Amount:    req.Amount,
		Status:    "pending",
	}
	g.refunds[refund.ID] = refund
	cp := *refund
	return &cp, nil
}

func (g *fakeGateway) GetRefund(ctx context.Context, paymentID, refundID string) (*razorpay.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	refund, ok := g.refunds[refundID]
	if !ok {
		return nil, &razorpay.APIError{StatusCode: 404, Code: "NOT_FOUND", Description: "refund not found"}
	}
	cp := *refund
	return &cp, nil
}

func (g *fakeGateway) setRefundStatus(refundID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds[refundID].Status = status
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return razorpay.Sign(testKeySecret, []byte(orderID+"|"+paymentID)) == signature
}

func (g *fakeGateway) HasWebhookSecret() bool { return g.webhookSecret != "" }

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) (bool, error) {
	return razorpay.Sign(g.webhookSecret, body) == signature, nil
}

// fakeNotifier records which emails were sent
type fakeNotifier struct {
	mu         sync.Mutex
	err        error
	purchases  []string
	processing []string
	completed  []string
}

func (n *fakeNotifier) SendPurchaseConfirmation(ctx context.Context, user *model.User, txn *model.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.purchases = append(n.purchases, txn.PaymentID)
	return n.err
}

func (n *fakeNotifier) SendRefundProcessing(ctx context.Context, user *model.User, txn *model.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.processing = append(n.processing, txn.PaymentID)
	return n.err
}

func (n *fakeNotifier) SendRefundCompleted(ctx context.Context, user *model.User, txn *model.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, txn.PaymentID)
	return n.err
}

// fakeLocker holds keys in a map, keyed to their owner token
type fakeLocker struct {
	mu     sync.Mutex
	held   map[string]string
	nextID int
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]string)
	}
	if _, taken := l.held[key]; taken {
		return "", nil
	}
	l.nextID++
	token := fmt.Sprintf("lock-%d", l.nextID)
	l.held[key] = token
	return token, nil
}

func (l *fakeLocker) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type testEnv struct {
	store    *memstore.Store
	gateway  *fakeGateway
	notifier *fakeNotifier
	locker   *fakeLocker
	access   *AccessService
	payments *PaymentService
	refunds  *RefundService
}

const (
	testUserID    uint = 1
	otherUserID   uint = 2
	courseC1      uint = 7
	cartCourseA   uint = 10
	cartCourseB   uint = 11
	planBasic     uint = 1
	planPremium   uint = 2
	missingCourse uint = 999
)

const courseC1Amount int64 = 49900

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	store.PutUser(model.User{ID: testUserID, Email: "learner@example.com", Name: "Learner", Role: model.RoleUser})
	store.PutUser(model.User{ID: otherUserID, Email: "other@example.com", Name: "Other", Role: model.RoleUser})
	store.PutCourse(model.Course{ID: courseC1, Title: "Go for Backend Engineers", Category: "Web Development", OldPrice: 999, NewPrice: 499})
	store.PutCourse(model.Course{ID: cartCourseA, Title: "SQL Basics", Category: "Database", OldPrice: 10, NewPrice: 5})
	store.PutCourse(model.Course{ID: cartCourseB, Title: "Docker Basics", Category: "DevOps", OldPrice: 10, NewPrice: 7})
	store.PutPlan(model.SubscriptionPlan{ID: planBasic, Name: "Basic", Type: "Personal", OldPrice: 399, NewPrice: 299, Duration: 30, Features: []string{"All courses"}})
	store.PutPlan(model.SubscriptionPlan{ID: planPremium, Name: "Premium", Type: "Personal", OldPrice: 1499, NewPrice: 999, Duration: 365, Features: []string{"All courses", "Mentoring"}})

	gateway := newFakeGateway()
	notifier := &fakeNotifier{}
	locker := &fakeLocker{}
	logger := discardLogger()

	access := NewAccessService(store, logger, AccessDeps{Notifier: notifier})
	return &testEnv{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		locker:   locker,
		access:   access,
		payments: NewPaymentService(store, gateway, access, locker, logger),
		refunds:  NewRefundService(store, gateway, access, logger, RefundDeps{Notifier: notifier, Locker: locker}),
	}
}

func uintPtr(v uint) *uint { return &v }

func sign(orderID, paymentID string) string {
	return razorpay.Sign(testKeySecret, []byte(orderID+"|"+paymentID))
}

// checkout creates an order for req and returns a correctly signed verify request
func (e *testEnv) checkout(t *testing.T, userID uint, req PurchaseRequest, paymentID string) VerifyRequest {
	t.Helper()
	order, err := e.payments.CreateOrder(context.Background(), userID, req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return VerifyRequest{
		PaymentID:       paymentID,
		OrderID:         order.OrderID,
		Signature:       sign(order.OrderID, paymentID),
		PurchaseRequest: req,
	}
}

func coursePurchaseRequest() PurchaseRequest {
	return PurchaseRequest{Amount: float64(courseC1Amount), Currency: "INR", PurchaseType: model.PurchaseTypeCourse, CourseID: uintPtr(courseC1)}
}
