package database_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"wrapped pg unique violation", fmt.Errorf("insert transaction: %w", &pgconn.PgError{Code: "23505"}), true},
		{"bare pg unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"translated gorm error", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm error", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("duplicate key value"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.IsUniqueViolation(tt.err))
		})
	}
}

// openTestDB connects to TEST_DATABASE_DSN, e.g.
// host=localhost user=postgres password=postgres dbname=skillnest_test sslmode=disable
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.PurchasedCourse{}, &model.UserTransaction{}, &model.Transaction{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := &model.User{Email: uuid.NewString() + "@example.com", Name: "Repository Test"}
	require.NoError(t, db.Create(user).Error)
	t.Cleanup(func() {
		db.Where("user_id = ?", user.ID).Delete(&model.Transaction{})
		db.Unscoped().Delete(user)
	})
	return user
}

func newTestTransaction(userID uint) *model.Transaction {
	return &model.Transaction{
		UserID:       userID,
		PaymentID:    "pay_" + uuid.NewString(),
		OrderID:      "order_" + uuid.NewString(),
		Amount:       499,
		Currency:     "INR",
		Status:       model.TransactionStatusSuccessful,
		PurchaseType: model.PurchaseTypeCourse,
	}
}

func TestPaymentRepositoryPostgres(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewPaymentRepository(db)
	ctx := context.Background()

	t.Run("duplicate payment id", func(t *testing.T) {
		user := createTestUser(t, db)
		first := newTestTransaction(user.ID)
		require.NoError(t, repo.CreateTransaction(ctx, first))

		second := newTestTransaction(user.ID)
		second.PaymentID = first.PaymentID
		err := repo.CreateTransaction(ctx, second)
		assert.ErrorIs(t, err, database.ErrDuplicatePayment)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		user := createTestUser(t, db)
		require.NoError(t, repo.BumpUserVersion(ctx, user.ID, user.Version))

		err := repo.BumpUserVersion(ctx, user.ID, user.Version)
		assert.ErrorIs(t, err, database.ErrVersionConflict)

		reloaded, err := repo.FindUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Version+1, reloaded.Version)
	})

	t.Run("purchased course is added once", func(t *testing.T) {
		user := createTestUser(t, db)
		pc := model.PurchasedCourse{CourseID: 42, CourseName: "Go in Practice", StartDate: time.Now()}

		added, err := repo.AddPurchasedCourse(ctx, user.ID, pc)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = repo.AddPurchasedCourse(ctx, user.ID, pc)
		require.NoError(t, err)
		assert.False(t, added)

		var n int64
		require.NoError(t, db.Model(&model.PurchasedCourse{}).Where("user_id = ?", user.ID).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})

	t.Run("refund state only moves from the state read", func(t *testing.T) {
		user := createTestUser(t, db)
		txn := newTestTransaction(user.ID)
		require.NoError(t, repo.CreateTransaction(ctx, txn))

		refunded := model.RefundStatusRefunded
		now := time.Now()
		settled := *txn
		settled.Status = model.TransactionStatusRefunded
		settled.RefundStatus = &refunded
		settled.RefundID = "rfnd_1"
		settled.RefundedAt = &now
		require.NoError(t, repo.SaveRefundState(ctx, &settled, ""))

		processed := model.RefundStatusProcessed
		stale := *txn
		stale.RefundStatus = &processed
		stale.RefundID = "rfnd_1"
		err := repo.SaveRefundState(ctx, &stale, "")
		assert.ErrorIs(t, err, database.ErrRefundStateConflict)

		stored, err := repo.FindTransactionByPaymentID(ctx, txn.PaymentID)
		require.NoError(t, err)
		assert.Equal(t, model.RefundStatusRefunded, stored.RefundState())

		missing := *txn
		missing.ID = 0
		assert.ErrorIs(t, repo.SaveRefundState(ctx, &missing, ""), database.ErrNotFound)
	})
}
