package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// PaymentRepository implements PaymentStore on top of GORM/PostgreSQL
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a repository bound to db
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithinTx(ctx context.Context, fn func(store PaymentStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PaymentRepository{db: tx})
	})
}

func (r *PaymentRepository) FindUser(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("PurchasedCourses").
		First(&user, userID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *PaymentRepository) FindCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		return nil, translate(err)
	}
	return &course, nil
}

func (r *PaymentRepository) FindSubscriptionPlan(ctx context.Context, planID uint) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	if err := r.db.WithContext(ctx).First(&plan, planID).Error; err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

func (r *PaymentRepository) FindTransactionByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error) {
	var txn model.Transaction
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&txn).Error; err != nil {
		return nil, translate(err)
	}
	return &txn, nil
}

func (r *PaymentRepository) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) SaveRefundState(ctx context.Context, txn *model.Transaction, from string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND COALESCE(refund_status, '') = ?", txn.ID, from).
		Updates(map[string]interface{}{
			"status":        txn.Status,
			"refund_status": txn.RefundStatus,
			"refund_id":     txn.RefundID,
			"refunded_at":   txn.RefundedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("id = ?", txn.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrRefundStateConflict
}

func (r *PaymentRepository) SetReceiptURL(ctx context.Context, transactionID uint, url string) error {
	return r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", transactionID).
		Update("receipt_url", url).Error
}

func (r *PaymentRepository) ListUserTransactions(ctx context.Context, userID uint, page, limit int) ([]model.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []model.Transaction
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&txns).Error
	return txns, total, err
}

func (r *PaymentRepository) ListTransactions(ctx context.Context, filter TransactionFilter, page, limit int) ([]model.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Transaction{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PurchaseType != "" {
		query = query.Where("purchase_type = ?", filter.PurchaseType)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.RefundStatus != "" {
		query = query.Where("refund_status = ?", filter.RefundStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []model.Transaction
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&txns).Error
	return txns, total, err
}

func (r *PaymentRepository) ListPendingRefunds(ctx context.Context, limit int) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := r.db.WithContext(ctx).
		Where("refund_status = ? AND refund_id <> ''", model.RefundStatusProcessed).
		Order("updated_at ASC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

func (r *PaymentRepository) BumpUserVersion(ctx context.Context, userID uint, expected int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND version = ?", userID, expected).
		UpdateColumn("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *PaymentRepository) AddPurchasedCourse(ctx context.Context, userID uint, pc model.PurchasedCourse) (bool, error) {
	pc.UserID = userID
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(&pc)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PaymentRepository) RemovePurchasedCourse(ctx context.Context, userID, courseID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.PurchasedCourse{})
	return result.RowsAffected > 0, result.Error
}

func (r *PaymentRepository) SetActiveSubscription(ctx context.Context, userID uint, sub model.ActiveSubscription) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_plan_id":    sub.PlanID,
			"subscription_name":       sub.Name,
			"subscription_type":       sub.Type,
			"subscription_status":     sub.Status,
			"subscription_start_date": sub.StartDate,
			"subscription_end_date":   sub.EndDate,
			"subscription_duration":   sub.Duration,
		}).Error
}

func (r *PaymentRepository) LinkTransaction(ctx context.Context, userID, transactionID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserTransaction{UserID: userID, TransactionID: transactionID}).Error
}

func (r *PaymentRepository) UnlinkTransaction(ctx context.Context, userID, transactionID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND transaction_id = ?", userID, transactionID).
		Delete(&model.UserTransaction{})
	return result.RowsAffected > 0, result.Error
}

func (r *PaymentRepository) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("subscription_status = ? AND subscription_end_date < ?", model.SubscriptionStatusActive, now).
		Updates(map[string]interface{}{
			"subscription_status": model.SubscriptionStatusExpired,
			"version":             gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
