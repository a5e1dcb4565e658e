package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

// allocID returns the next id for kind that taken does not report as used.
// Callers hold m.mu.
func (m *Store) allocID(kind string, taken func(uint) bool) uint {
	for {
		m.nextIDs[kind]++
		if id := m.nextIDs[kind]; !taken(id) {
			return id
		}
	}
}

func (m *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *Store) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return database.ErrDuplicateEmail
		}
	}
	user.ID = m.allocID("user", func(id uint) bool { _, ok := m.users[id]; return ok })
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *Store) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.TokenVersion++
	return nil
}

func (m *Store) SetBanned(ctx context.Context, userID uint, banned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.Banned = banned
	u.TokenVersion++
	return nil
}

func (m *Store) ListUsers(ctx context.Context, search string, page, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	search = strings.ToLower(strings.TrimSpace(search))
	var all []model.User
	for _, u := range m.users {
		if search != "" && !strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		all = append(all, *cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (m *Store) CreateResetToken(ctx context.Context, token *model.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.ID = m.allocID("reset", func(id uint) bool { _, ok := m.resetTokens[id]; return ok })
	token.CreatedAt = time.Now()
	cp := *token
	m.resetTokens[token.ID] = &cp
	return nil
}

func (m *Store) FindResetToken(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.resetTokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *Store) MarkResetTokenUsed(ctx context.Context, tokenID uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.resetTokens[tokenID]
	if !ok {
		return database.ErrNotFound
	}
	t.UsedAt = &at
	return nil
}

func (m *Store) PurgeResetTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.resetTokens {
		if t.ExpiresAt.Before(cutoff) || (t.UsedAt != nil && t.UsedAt.Before(cutoff)) {
			delete(m.resetTokens, id)
			n++
		}
	}
	return n, nil
}

func (m *Store) RecordAudit(ctx context.Context, entry *model.AdminAuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.audits) + 1)
	entry.CreatedAt = time.Now()
	m.audits = append(m.audits, *entry)
	return nil
}

func (m *Store) ListAuditLogs(ctx context.Context, page, limit int) ([]model.AdminAuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.AdminAuditLog, len(m.audits))
	for i, a := range m.audits {
		all[len(m.audits)-1-i] = a
	}
	return pageOf(all, page, limit), int64(len(all)), nil
}

// AuditLogs returns every recorded audit entry in insertion order
func (m *Store) AuditLogs() []model.AdminAuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AdminAuditLog(nil), m.audits...)
}

func pageOf[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
