package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appModels "github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/app/repositories/memory"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/auth"
)

func TestCreateDefaultAdmin(t *testing.T) {
	users := memory.NewUserStore()
	ctx := context.Background()
	admin := AdminAccount{Roll: "admin", Email: "Admin@College.edu", Password: "change-me-42"}

	require.NoError(t, CreateDefaultAdmin(ctx, users, admin, zerolog.Nop()))

	user, err := users.GetByEmail(ctx, "admin@college.edu")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "ADMIN", user.Roll)
	assert.True(t, auth.CheckPassword(user.Password, "change-me-42"))

	// Idempotent
	require.NoError(t, CreateDefaultAdmin(ctx, users, admin, zerolog.Nop()))
}

func TestCreateDefaultAdminSkipsWithoutPassword(t *testing.T) {
	users := memory.NewUserStore()
	require.NoError(t, CreateDefaultAdmin(context.Background(), users, AdminAccount{Email: "admin@college.edu"}, zerolog.Nop()))

	_, err := users.GetByEmail(context.Background(), "admin@college.edu")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestCreateDefaultAdminRollConflict(t *testing.T) {
	users := memory.NewUserStore()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &appModels.User{Roll: "ADMIN", Email: "someone@college.edu"}))

	err := CreateDefaultAdmin(ctx, users, AdminAccount{Roll: "ADMIN", Email: "admin@college.edu", Password: "change-me-42"}, zerolog.Nop())
	assert.NoError(t, err)
}
