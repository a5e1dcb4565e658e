package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

// maxGrantAttempts bounds retries after an optimistic-concurrency conflict on the user row
const maxGrantAttempts = 3

// AccessService records verified payments and mutates user entitlements
type AccessService struct {
	store    database.PaymentStore
	notifier Notifier
	events   EventPublisher
	receipts ReceiptStore
	logger   *slog.Logger
	now      func() time.Time
}

// AccessDeps are the optional collaborators of AccessService. Nil entries are skipped.
type AccessDeps struct {
	Notifier Notifier
	Events   EventPublisher
	Receipts ReceiptStore
}

// NewAccessService creates a new access service
func NewAccessService(store database.PaymentStore, logger *slog.Logger, deps AccessDeps) *AccessService {
	return &AccessService{
		store:    store,
		notifier: deps.Notifier,
		events:   deps.Events,
		receipts: deps.Receipts,
		logger:   logger,
		now:      time.Now,
	}
}

// GrantInput is a verified payment ready to be recorded. Amount is in minor units.
type GrantInput struct {
	UserID    uint
	PaymentID string
	OrderID   string
	Signature string
	Amount    int64
	Currency  string
	Purchase  PurchaseContext
	TraceID   string
}

// GrantResult is the outcome of Grant
type GrantResult struct {
	Transaction      *model.Transaction
	AlreadyProcessed bool
	EmailStatus      string
}

// resolvedPurchase holds catalog rows looked up before the write transaction
type resolvedPurchase struct {
	course  *model.Course
	plan    *model.SubscriptionPlan
	courses []*model.Course
}

// Grant persists one successful Transaction and applies its entitlements in a
// single database transaction. A payment id that was already recorded returns
// the stored transaction with AlreadyProcessed set and changes nothing.
func (s *AccessService) Grant(ctx context.Context, in GrantInput) (*GrantResult, error) {
	log := s.logger.With("user_id", in.UserID, "payment_id", in.PaymentID, "order_id", in.OrderID)

	if existing, err := s.store.FindTransactionByPaymentID(ctx, in.PaymentID); err == nil {
		return s.alreadyProcessed(ctx, in, existing)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing transaction: %w", err)
	}

	resolved, err := resolvePurchase(ctx, s.store, in.Purchase, in.Amount)
	if err != nil {
		return nil, err
	}

	var txn *model.Transaction
	var user *model.User
	for attempt := 1; attempt <= maxGrantAttempts; attempt++ {
		txn = s.buildTransaction(in, resolved)
		err = s.store.WithinTx(ctx, func(tx database.PaymentStore) error {
			var txErr error
			user, txErr = s.applyGrant(ctx, tx, in, resolved, txn)
			return txErr
		})
		if !errors.Is(err, database.ErrVersionConflict) {
			break
		}
		log.WarnContext(ctx, "user modified concurrently, retrying grant", "attempt", attempt)
	}

	switch {
	case err == nil:
	case errors.Is(err, database.ErrDuplicatePayment):
		existing, findErr := s.store.FindTransactionByPaymentID(ctx, in.PaymentID)
		if findErr != nil {
			return nil, fmt.Errorf("duplicate payment but stored transaction not readable: %w", findErr)
		}
		log.InfoContext(ctx, "payment recorded by a concurrent request")
		return s.alreadyProcessed(ctx, in, existing)
	case errors.Is(err, database.ErrVersionConflict):
		return nil, fmt.Errorf("grant gave up after %d attempts: %w", maxGrantAttempts, err)
	default:
		return nil, err
	}

	log.InfoContext(ctx, "transaction recorded and access granted",
		"transaction_id", txn.ID,
		"purchase_type", txn.PurchaseType,
		"amount", txn.Amount,
		"currency", txn.Currency,
	)

	result := &GrantResult{Transaction: txn, EmailStatus: s.notifyPurchase(ctx, user, txn)}
	s.publish(ctx, EventTransactionCompleted, txn)
	s.archiveReceipt(ctx, user, txn)
	return result, nil
}

func (s *AccessService) alreadyProcessed(ctx context.Context, in GrantInput, existing *model.Transaction) (*GrantResult, error) {
	if existing.UserID != in.UserID || existing.OrderID != in.OrderID {
		s.logger.WarnContext(ctx, "payment id replayed with a different user or order",
			"payment_id", in.PaymentID,
			"user_id", in.UserID,
			"stored_user_id", existing.UserID,
		)
		return nil, NewPaymentError(CodePurchaseContextMismatch, "Payment belongs to a different order", http.StatusConflict)
	}
	return &GrantResult{Transaction: existing, AlreadyProcessed: true, EmailStatus: EmailStatusSkipped}, nil
}

// resolvePurchase loads the purchased catalog rows and checks their prices against
// the paid amount
func resolvePurchase(ctx context.Context, store database.PaymentStore, p PurchaseContext, amount int64) (*resolvedPurchase, error) {
	r := &resolvedPurchase{}
	switch p.Type {
	case model.PurchaseTypeCourse:
		course, err := findCourse(ctx, store, p.CourseID)
		if err != nil {
			return nil, err
		}
		if course.PriceMinor() != amount {
			return nil, badRequest(CodeAmountMismatch, "Course price does not match amount")
		}
		r.course = course

	case model.PurchaseTypeSubscription:
		plan, err := store.FindSubscriptionPlan(ctx, p.SubscriptionID)
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound(CodeSubscriptionNotFound, "Subscription plan not found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load subscription plan: %w", err)
		}
		if plan.PriceMinor() != amount {
			return nil, badRequest(CodeAmountMismatch, "Subscription price does not match amount")
		}
		r.plan = plan

	case model.PurchaseTypeCart:
		if len(p.Items) == 0 {
			return nil, badRequest(CodeInvalidCartItems, "cartItems must not be empty")
		}
		var total int64
		for _, item := range p.Items {
			course, err := findCourse(ctx, store, item.CourseID)
			if err != nil {
				return nil, err
			}
			if course.PriceMinor() != item.Price {
				return nil, badRequest(CodeAmountMismatch, fmt.Sprintf("Price of course %d does not match", item.CourseID))
			}
			total += item.Price
			r.courses = append(r.courses, course)
		}
		if total != amount {
			return nil, badRequest(CodeAmountMismatch, "Cart total does not match amount")
		}

	default:
		return nil, badRequest(CodeInvalidPurchaseType, "purchaseType must be course, subscription or cart")
	}
	return r, nil
}

func findCourse(ctx context.Context, store database.PaymentStore, id uint) (*model.Course, error) {
	course, err := store.FindCourse(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound(CodeCourseNotFound, fmt.Sprintf("Course %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course %d: %w", id, err)
	}
	return course, nil
}

func (s *AccessService) buildTransaction(in GrantInput, r *resolvedPurchase) *model.Transaction {
	txn := &model.Transaction{
		UserID:            in.UserID,
		PaymentID:         in.PaymentID,
		OrderID:           in.OrderID,
		RazorpaySignature: in.Signature,
		Amount:            float64(in.Amount) / 100,
		Currency:          in.Currency,
		Status:            model.TransactionStatusSuccessful,
		PurchaseType:      in.Purchase.Type,
		TraceID:           in.TraceID,
	}
	switch in.Purchase.Type {
	case model.PurchaseTypeCourse:
		id := r.course.ID
		txn.CourseID = &id
		txn.ItemName = r.course.Title
		txn.Duration = r.course.Duration
	case model.PurchaseTypeSubscription:
		id := r.plan.ID
		txn.SubscriptionID = &id
		txn.ItemName = r.plan.Name
		txn.Duration = r.plan.Duration
	case model.PurchaseTypeCart:
		for _, c := range r.courses {
			txn.CartItems = append(txn.CartItems, model.CartItem{ID: c.ID, Name: c.Title, Price: float64(c.NewPrice)})
		}
		txn.ItemName = fmt.Sprintf("%d courses", len(r.courses))
	}
	return txn
}

// applyGrant runs inside WithinTx. The version bump comes first so a concurrent
// writer aborts the transaction before anything is inserted.
func (s *AccessService) applyGrant(ctx context.Context, tx database.PaymentStore, in GrantInput, r *resolvedPurchase, txn *model.Transaction) (*model.User, error) {
	user, err := tx.FindUser(ctx, in.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound(CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := tx.BumpUserVersion(ctx, user.ID, user.Version); err != nil {
		return nil, err
	}
	if err := tx.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	now := s.now()
	switch in.Purchase.Type {
	case model.PurchaseTypeCourse:
		if err := s.grantCourse(ctx, tx, user, r.course, now); err != nil {
			return nil, err
		}
	case model.PurchaseTypeCart:
		for _, course := range r.courses {
			if err := s.grantCourse(ctx, tx, user, course, now); err != nil {
				return nil, err
			}
		}
	case model.PurchaseTypeSubscription:
		end := now.AddDate(0, 0, r.plan.Duration)
		start := now
		planID := r.plan.ID
		sub := model.ActiveSubscription{
			PlanID:    &planID,
			Name:      r.plan.Name,
			Type:      r.plan.Type,
			Status:    model.SubscriptionStatusActive,
			StartDate: &start,
			EndDate:   &end,
			Duration:  r.plan.Duration,
		}
		if err := sub.Validate(); err != nil {
			return nil, fmt.Errorf("invalid subscription slot: %w", err)
		}
		if user.ActiveSubscription.IsActive(now) {
			s.logger.InfoContext(ctx, "replacing active subscription",
				"user_id", user.ID,
				"previous_plan", user.ActiveSubscription.Name,
				"new_plan", sub.Name,
			)
		}
		if err := tx.SetActiveSubscription(ctx, user.ID, sub); err != nil {
			return nil, fmt.Errorf("failed to set subscription: %w", err)
		}
		user.ActiveSubscription = sub
	}

	if err := tx.LinkTransaction(ctx, user.ID, txn.ID); err != nil {
		return nil, fmt.Errorf("failed to link transaction: %w", err)
	}
	return user, nil
}

func (s *AccessService) grantCourse(ctx context.Context, tx database.PaymentStore, user *model.User, course *model.Course, now time.Time) error {
	pc := model.PurchasedCourse{
		CourseID:   course.ID,
		CourseName: course.Title,
		StartDate:  now,
		Duration:   course.Duration,
	}
	if course.Duration > 0 {
		end := now.AddDate(0, 0, course.Duration)
		pc.EndDate = &end
	}
	added, err := tx.AddPurchasedCourse(ctx, user.ID, pc)
	if err != nil {
		return fmt.Errorf("failed to grant course %d: %w", course.ID, err)
	}
	if !added {
		s.logger.InfoContext(ctx, "course already owned, skipping", "user_id", user.ID, "course_id", course.ID)
		return nil
	}
	user.PurchasedCourses = append(user.PurchasedCourses, pc)
	return nil
}

// RevokeInput names the entitlement to remove and the transaction to unlink
type RevokeInput struct {
	UserID        uint
	Purchase      PurchaseContext
	TransactionID uint
}

// Revoke removes the entitlements a purchase granted. Missing entitlements are
// logged and skipped. A subscription is only cleared when the stored plan id
// matches the one being revoked.
func (s *AccessService) Revoke(ctx context.Context, in RevokeInput) error {
	var err error
	for attempt := 1; attempt <= maxGrantAttempts; attempt++ {
		err = s.store.WithinTx(ctx, func(tx database.PaymentStore) error {
			return s.applyRevoke(ctx, tx, in)
		})
		if !errors.Is(err, database.ErrVersionConflict) {
			break
		}
		s.logger.WarnContext(ctx, "user modified concurrently, retrying revoke", "user_id", in.UserID, "attempt", attempt)
	}
	if err != nil {
		return err
	}

	s.publish(ctx, EventAccessRevoked, map[string]interface{}{
		"user_id":        in.UserID,
		"purchase_type":  in.Purchase.Type,
		"transaction_id": in.TransactionID,
	})
	return nil
}

func (s *AccessService) applyRevoke(ctx context.Context, tx database.PaymentStore, in RevokeInput) error {
	user, err := tx.FindUser(ctx, in.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return notFound(CodeUserNotFound, "User not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if err := tx.BumpUserVersion(ctx, user.ID, user.Version); err != nil {
		return err
	}

	log := s.logger.With("user_id", user.ID, "transaction_id", in.TransactionID)

	switch in.Purchase.Type {
	case model.PurchaseTypeCourse, model.PurchaseTypeCart:
		for _, courseID := range in.Purchase.CourseIDs() {
			removed, err := tx.RemovePurchasedCourse(ctx, user.ID, courseID)
			if err != nil {
				return fmt.Errorf("failed to revoke course %d: %w", courseID, err)
			}
			if !removed {
				log.InfoContext(ctx, "course not in purchased list, nothing to revoke", "course_id", courseID)
			}
		}
	case model.PurchaseTypeSubscription:
		current := user.ActiveSubscription.PlanID
		if current == nil || *current != in.Purchase.SubscriptionID {
			log.WarnContext(ctx, "active subscription does not match revoked plan, leaving it untouched",
				"subscription_id", in.Purchase.SubscriptionID,
				"active_subscription_id", current,
			)
		} else if err := tx.SetActiveSubscription(ctx, user.ID, model.ActiveSubscription{Status: model.SubscriptionStatusInactive}); err != nil {
			return fmt.Errorf("failed to clear subscription: %w", err)
		}
	default:
		return badRequest(CodeInvalidPurchaseType, "Unknown purchase type")
	}

	if in.TransactionID != 0 {
		unlinked, err := tx.UnlinkTransaction(ctx, user.ID, in.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to unlink transaction: %w", err)
		}
		if !unlinked {
			log.InfoContext(ctx, "transaction was not linked to user")
		}
	}
	return nil
}

func (s *AccessService) notifyPurchase(ctx context.Context, user *model.User, txn *model.Transaction) string {
	if s.notifier == nil || user == nil {
		return EmailStatusSkipped
	}
	if err := s.notifier.SendPurchaseConfirmation(ctx, user, txn); err != nil {
		s.logger.ErrorContext(ctx, "failed to send purchase confirmation",
			"user_id", user.ID,
			"payment_id", txn.PaymentID,
			"error", err,
		)
		return EmailStatusFailed
	}
	return EmailStatusSent
}

func (s *AccessService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event", eventType, "error", err)
	}
}

// receipt is the archived JSON document for a completed purchase
type receipt struct {
	TransactionID uint             `json:"transaction_id"`
	PaymentID     string           `json:"payment_id"`
	OrderID       string           `json:"order_id"`
	UserEmail     string           `json:"user_email"`
	PurchaseType  string           `json:"purchase_type"`
	Item          string           `json:"item"`
	CartItems     []model.CartItem `json:"cart_items,omitempty"`
	Amount        float64          `json:"amount"`
	Currency      string           `json:"currency"`
	IssuedAt      time.Time        `json:"issued_at"`
}

func (s *AccessService) archiveReceipt(ctx context.Context, user *model.User, txn *model.Transaction) {
	if s.receipts == nil || user == nil {
		return
	}
	data, err := json.Marshal(receipt{
		TransactionID: txn.ID,
		PaymentID:     txn.PaymentID,
		OrderID:       txn.OrderID,
		UserEmail:     user.Email,
		PurchaseType:  txn.PurchaseType,
		Item:          txn.ItemName,
		CartItems:     txn.CartItems,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		IssuedAt:      s.now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode receipt", "error", err)
		return
	}

	key := fmt.Sprintf("receipts/%d/%s.json", user.ID, txn.PaymentID)
	url, err := s.receipts.Put(ctx, key, data, "application/json")
	if err != nil {
		s.logger.WarnContext(ctx, "failed to archive receipt", "payment_id", txn.PaymentID, "error", err)
		return
	}
	if err := s.store.SetReceiptURL(ctx, txn.ID, url); err != nil {
		s.logger.WarnContext(ctx, "failed to store receipt url", "payment_id", txn.PaymentID, "error", err)
		return
	}
	txn.ReceiptURL = url
}

// ExpireSubscriptions moves every active subscription whose end date has passed
// to expired and returns how many users were affected
func (s *AccessService) ExpireSubscriptions(ctx context.Context) (int64, error) {
	n, err := s.store.ExpireSubscriptions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "subscriptions expired", "count", n)
		s.publish(ctx, EventSubscriptionsExpired, map[string]interface{}{"count": n})
	}
	return n, nil
}
