package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/auth"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/validation"
)

// resetTokenTTL is how long a password reset link stays valid
const resetTokenTTL = time.Hour

// TokenRevoker blacklists token ids; auth.BlacklistService implements it
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// ResetMailer delivers password reset links
type ResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, resetToken, userName string) error
}

// AuthService handles registration, sessions and password reset
type AuthService struct {
	accounts database.AccountStore
	tokens   *auth.JWTManager
	revoker  TokenRevoker
	mailer   ResetMailer
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates an auth service. mailer may be nil.
func NewAuthService(accounts database.AccountStore, tokens *auth.JWTManager, revoker TokenRevoker, mailer ResetMailer, logger *slog.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		revoker:  revoker,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterInput is a new account request
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued access/refresh token pair
type Session struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// Register creates a user account with the default role and signs it in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if ok, problems := validation.ValidatePassword(in.Password); !ok {
		return nil, badRequest(CodeWeakPassword, strings.Join(problems, "; "))
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, badRequest(CodeWeakPassword, err.Error())
	}

	user := &model.User{
		Name:         validation.SanitizeString(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         model.RoleUser,
		ActiveSubscription: model.ActiveSubscription{
			Status: model.SubscriptionStatusInactive,
		},
	}
	if err := s.accounts.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, conflict(CodeEmailExists, "An account with this email already exists")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.issueSession(user)
}

// Login checks credentials. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.accounts.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, database.ErrNotFound) {
		return nil, unauthorized(CodeInvalidCredentials, "Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, unauthorized(CodeInvalidCredentials, "Invalid email or password")
	}
	if user.Banned {
		return nil, NewPaymentError(CodeUserBanned, "Your account has been suspended", http.StatusForbidden)
	}
	return s.issueSession(user)
}

// Refresh exchanges a refresh token for a new pair and revokes the old one
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ValidateOfType(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, unauthorized(CodeInvalidToken, "Invalid or expired refresh token")
	}

	revoked, err := s.revoker.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, unauthorized(CodeInvalidToken, "Token has been revoked")
	}

	user, err := s.accounts.FindUser(ctx, claims.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, unauthorized(CodeInvalidToken, "User not found")
	}
	if err != nil {
		return nil, err
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, unauthorized(CodeInvalidToken, "Token has been invalidated")
	}
	if user.Banned {
		return nil, NewPaymentError(CodeUserBanned, "Your account has been suspended", http.StatusForbidden)
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, user.ID, claims.ExpiresAt.Time, model.RevokeReasonLogout); err != nil {
		// the old token still expires on its own
		s.logger.WarnContext(ctx, "failed to revoke rotated refresh token", "user_id", user.ID, "error", err)
	}
	return session, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if err := s.revoker.RevokeToken(ctx, access.ID, access.UserID, access.ExpiresAt.Time, model.RevokeReasonLogout); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ValidateOfType(refreshToken, auth.TokenTypeRefresh)
	if err != nil || claims.UserID != access.UserID {
		return nil
	}
	return s.revoker.RevokeToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time, model.RevokeReasonLogout)
}

// Profile returns the user with purchased courses loaded
func (s *AuthService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.accounts.FindUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound(CodeUserNotFound, "User not found")
	}
	return user, err
}

// ForgotPassword emails a reset link when the account exists. It reports success
// either way so callers cannot probe for registered emails.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.accounts.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	record := &model.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.accounts.CreateResetToken(ctx, record); err != nil {
		return err
	}

	if s.mailer == nil {
		s.logger.WarnContext(ctx, "password reset requested but no mailer configured", "user_id", user.ID)
		return nil
	}
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, token, user.Name); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password. Every existing
// session of the user is invalidated.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	record, err := s.accounts.FindResetToken(ctx, auth.HashResetToken(strings.TrimSpace(token)))
	if errors.Is(err, database.ErrNotFound) {
		return badRequest(CodeInvalidResetToken, "Reset link is invalid or has expired")
	}
	if err != nil {
		return err
	}
	now := s.now()
	if !record.IsUsable(now) {
		return badRequest(CodeInvalidResetToken, "Reset link is invalid or has expired")
	}

	if ok, problems := validation.ValidatePassword(newPassword); !ok {
		return badRequest(CodeWeakPassword, strings.Join(problems, "; "))
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return badRequest(CodeWeakPassword, err.Error())
	}

	if err := s.accounts.UpdatePassword(ctx, record.UserID, hash); err != nil {
		return err
	}
	if err := s.accounts.MarkResetTokenUsed(ctx, record.ID, now); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password reset", "user_id", record.UserID)
	return nil
}

// PurgeResetTokens removes reset tokens that expired or were used before cutoff
func (s *AuthService) PurgeResetTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.accounts.PurgeResetTokens(ctx, cutoff)
}

func (s *AuthService) issueSession(user *model.User) (*Session, error) {
	sub := auth.Subject{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}
	access, err := s.tokens.IssueAccess(sub)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(sub)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:         user,
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		ExpiresAt:    access.ExpiresAt,
	}, nil
}
