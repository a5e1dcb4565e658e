package auth

import (
	"context"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlacklistService persists revoked token ids (jti) until their natural expiry
type BlacklistService struct {
	db *gorm.DB
}

func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db}
}

// RevokeToken adds a token id to the blacklist until it would have expired anyway
func (s *BlacklistService) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	entry := model.JWTTokenBlacklist{
		Token:     jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}
	// logging out twice with the same token is not an error
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

// IsTokenRevoked ignores entries past expires_at; the cleanup job removes them later
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.JWTTokenBlacklist{}).
		Where("token = ? AND expires_at > ?", jti, time.Now()).
		Count(&n).Error
	return n > 0, err
}

// CleanupExpiredTokens removes expired entries and returns how many were deleted
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}
