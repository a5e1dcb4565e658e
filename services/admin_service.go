package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"gorm.io/datatypes"
)

// AuditEntry describes one admin action to record
type AuditEntry struct {
	AdminID     uint
	Action      string
	Resource    string
	ResourceID  string
	Value       interface{}
	IPAddress   string
	UserAgent   string
	Description string
	TraceID     string
}

// AdminService covers user moderation and the admin audit trail
type AdminService struct {
	accounts database.AccountStore
	logger   *slog.Logger
}

// NewAdminService creates an admin service
func NewAdminService(accounts database.AccountStore, logger *slog.Logger) *AdminService {
	return &AdminService{accounts: accounts, logger: logger}
}

// ListUsers returns a page of users whose email or name contains search
func (s *AdminService) ListUsers(ctx context.Context, search string, page, limit int) ([]model.User, int64, error) {
	return s.accounts.ListUsers(ctx, search, page, limit)
}

// SetBanned bans or unbans a user and records the action. Banning also
// invalidates every token the user holds.
func (s *AdminService) SetBanned(ctx context.Context, entry AuditEntry, userID uint, banned bool) error {
	if userID == entry.AdminID {
		return NewPaymentError(CodeCannotBanSelf, "Admins cannot ban themselves", http.StatusBadRequest)
	}
	err := s.accounts.SetBanned(ctx, userID, banned)
	if errors.Is(err, database.ErrNotFound) {
		return notFound(CodeUserNotFound, "User not found")
	}
	if err != nil {
		return err
	}

	entry.Action = model.AuditActionUserUnban
	if banned {
		entry.Action = model.AuditActionUserBan
	}
	entry.Resource = "users"
	entry.Value = map[string]interface{}{"user_id": userID, "banned": banned}
	s.Record(ctx, entry)
	return nil
}

// Record stores an audit entry. Failures are logged, never returned: the
// audited action has already happened.
func (s *AdminService) Record(ctx context.Context, entry AuditEntry) {
	log := &model.AdminAuditLog{
		AdminID:     entry.AdminID,
		Action:      entry.Action,
		Resource:    entry.Resource,
		ResourceID:  entry.ResourceID,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		Description: entry.Description,
		TraceID:     entry.TraceID,
	}
	if entry.Value != nil {
		if raw, err := json.Marshal(entry.Value); err == nil {
			log.NewValue = datatypes.JSON(raw)
		}
	}
	if err := s.accounts.RecordAudit(ctx, log); err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit log",
			"admin_id", entry.AdminID,
			"action", entry.Action,
			"error", err,
		)
	}
}

func (s *AdminService) ListAuditLogs(ctx context.Context, page, limit int) ([]model.AdminAuditLog, int64, error) {
	return s.accounts.ListAuditLogs(ctx, page, limit)
}
