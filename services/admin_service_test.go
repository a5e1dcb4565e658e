package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database/memstore"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBannedRecordsAudit(t *testing.T) {
	store := memstore.New()
	store.PutUser(model.User{ID: 1, Email: "admin@example.com", Name: "Admin", Role: model.RoleAdmin})
	store.PutUser(model.User{ID: 2, Email: "learner@example.com", Name: "Learner", Role: model.RoleUser})
	svc := NewAdminService(store, discardLogger())
	ctx := context.Background()

	entry := AuditEntry{AdminID: 1, IPAddress: "10.0.0.1", TraceID: "trace-1"}
	require.NoError(t, svc.SetBanned(ctx, entry, 2, true))

	user := store.User(2)
	assert.True(t, user.Banned)
	assert.Equal(t, 1, user.TokenVersion, "ban invalidates tokens")

	logs := store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionUserBan, logs[0].Action)
	assert.Equal(t, "trace-1", logs[0].TraceID)
	var value map[string]interface{}
	require.NoError(t, json.Unmarshal(logs[0].NewValue, &value))
	assert.Equal(t, true, value["banned"])

	require.NoError(t, svc.SetBanned(ctx, entry, 2, false))
	assert.False(t, store.User(2).Banned)

	assert.Equal(t, CodeCannotBanSelf, ErrorCodeOf(svc.SetBanned(ctx, entry, 1, true)))
	assert.Equal(t, CodeUserNotFound, ErrorCodeOf(svc.SetBanned(ctx, entry, 99, true)))

	page, total, err := svc.ListAuditLogs(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, model.AuditActionUserUnban, page[0].Action, "newest first")
}

func TestListUsersSearch(t *testing.T) {
	store := memstore.New()
	store.PutUser(model.User{ID: 1, Email: "asha@example.com", Name: "Asha"})
	store.PutUser(model.User{ID: 2, Email: "ravi@example.com", Name: "Ravi"})
	svc := NewAdminService(store, discardLogger())

	users, total, err := svc.ListUsers(context.Background(), "RAV", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, uint(2), users[0].ID)
}
