package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"gorm.io/gorm"
)

// ErrDuplicateEmail is returned when registering an email that already exists
var ErrDuplicateEmail = errors.New("email already registered")

// AccountStore backs registration, login, password reset and admin user management
type AccountStore interface {
	FindUser(ctx context.Context, userID uint) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	// CreateUser returns ErrDuplicateEmail when the email is taken
	CreateUser(ctx context.Context, user *model.User) error
	// UpdatePassword stores a new hash and bumps token_version so existing tokens die
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	// SetBanned flips the ban flag and bumps token_version
	SetBanned(ctx context.Context, userID uint, banned bool) error
	ListUsers(ctx context.Context, search string, page, limit int) ([]model.User, int64, error)

	CreateResetToken(ctx context.Context, token *model.PasswordResetToken) error
	FindResetToken(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, tokenID uint, at time.Time) error
	// PurgeResetTokens deletes tokens that expired or were used before cutoff
	PurgeResetTokens(ctx context.Context, cutoff time.Time) (int64, error)

	RecordAudit(ctx context.Context, entry *model.AdminAuditLog) error
	ListAuditLogs(ctx context.Context, page, limit int) ([]model.AdminAuditLog, int64, error)
}

// AccountRepository implements AccountStore on top of GORM/PostgreSQL
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a repository bound to db
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindUser(ctx context.Context, userID uint) (*model.User, error) {
	return NewPaymentRepository(r.db).FindUser(ctx, userID)
}

func (r *AccountRepository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *AccountRepository) CreateUser(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	return r.updateUser(ctx, userID, map[string]interface{}{
		"password_hash": passwordHash,
		"token_version": gorm.Expr("token_version + 1"),
	})
}

func (r *AccountRepository) SetBanned(ctx context.Context, userID uint, banned bool) error {
	return r.updateUser(ctx, userID, map[string]interface{}{
		"banned":        banned,
		"token_version": gorm.Expr("token_version + 1"),
	})
}

func (r *AccountRepository) updateUser(ctx context.Context, userID uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) ListUsers(ctx context.Context, search string, page, limit int) ([]model.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.User{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (r *AccountRepository) CreateResetToken(ctx context.Context, token *model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *AccountRepository) FindResetToken(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	var token model.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *AccountRepository) MarkResetTokenUsed(ctx context.Context, tokenID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.PasswordResetToken{}).
		Where("id = ?", tokenID).
		Update("used_at", at).Error
}

func (r *AccountRepository) PurgeResetTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR used_at < ?", cutoff, cutoff).
		Delete(&model.PasswordResetToken{})
	return result.RowsAffected, result.Error
}

func (r *AccountRepository) RecordAudit(ctx context.Context, entry *model.AdminAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AccountRepository) ListAuditLogs(ctx context.Context, page, limit int) ([]model.AdminAuditLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.AdminAuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []model.AdminAuditLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}
