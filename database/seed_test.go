package database_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database/memstore"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedAllIsIdempotent(t *testing.T) {
	auth.PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { auth.PasswordCost = auth.DefaultCost })

	store := memstore.New()
	seeder := database.NewSeeder(store, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	require.NoError(t, seeder.SeedAll(ctx, "Admin@SkillNestX.com", "admin1234"))
	require.NoError(t, seeder.SeedAll(ctx, "admin@skillnestx.com", "admin1234"))

	admin, err := store.FindUserByEmail(ctx, "admin@skillnestx.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.NoError(t, auth.VerifyPassword(admin.PasswordHash, "admin1234"))

	_, total, err := store.ListCourses(ctx, "", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(len(database.StarterCourses())), total)

	plans, err := store.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, len(database.StarterPlans()))
	assert.Equal(t, "Basic", plans[0].Name)
}

func TestSeedSkipsAdminWithoutCredentials(t *testing.T) {
	store := memstore.New()
	seeder := database.NewSeeder(store, store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, seeder.SeedAdminUser(context.Background(), "", ""))
	users, total, err := store.ListUsers(context.Background(), "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, users)
}
