package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/repositories/memory"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/auth"
)

type authFixture struct {
	service AuthService
	users   *memory.UserStore
	tokens  *memory.TokenStore
	jwt     *auth.JWTService
}

func newAuthFixture() *authFixture {
	users := memory.NewUserStore()
	tokens := memory.NewTokenStore()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "resultsphere.test",
	})
	return &authFixture{
		service: NewAuthService(users, tokens, jwtService, zerolog.Nop()),
		users:   users,
		tokens:  tokens,
		jwt:     jwtService,
	}
}

func registerStudent(t *testing.T, f *authFixture) *dto.AuthResponse {
	t.Helper()
	resp, err := f.service.Register(context.Background(), &dto.RegisterRequest{
		Roll:     "20hn1a0501",
		Email:    "Student@College.edu",
		Password: "results2025",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	f := newAuthFixture()
	resp := registerStudent(t, f)

	assert.Equal(t, "20HN1A0501", resp.User.Roll)
	assert.Equal(t, "student@college.edu", resp.User.Email)
	assert.Equal(t, string(models.RoleStudent), resp.User.Role)
	assert.Equal(t, "Bearer", resp.Token.TokenType)

	claims, err := f.jwt.ValidateAndExtractClaims(resp.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "20HN1A0501", claims.Roll)

	stored, err := f.users.GetByRoll(context.Background(), "20HN1A0501")
	require.NoError(t, err)
	assert.NotEqual(t, "results2025", stored.Password)
	assert.True(t, auth.CheckPassword(stored.Password, "results2025"))
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	f := newAuthFixture()
	registerStudent(t, f)
	ctx := context.Background()

	_, err := f.service.Register(ctx, &dto.RegisterRequest{Roll: "20HN1A0501", Email: "other@college.edu", Password: "results2025"})
	assert.ErrorIs(t, err, apperrors.ErrRollAlreadyExists)

	_, err = f.service.Register(ctx, &dto.RegisterRequest{Roll: "20HN1A0502", Email: "student@college.edu", Password: "results2025"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = f.service.Register(ctx, &dto.RegisterRequest{Roll: "2015A0501", Email: "x@college.edu", Password: "results2025"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.service.Register(ctx, &dto.RegisterRequest{Roll: "20HN1A0503", Email: "y@college.edu", Password: "short"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	registerStudent(t, f)
	ctx := context.Background()

	byRoll, err := f.service.Login(ctx, &dto.LoginRequest{Roll: "20hn1a0501", Password: "results2025"})
	require.NoError(t, err)
	assert.NotEmpty(t, byRoll.Token.AccessToken)

	byEmail, err := f.service.Login(ctx, &dto.LoginRequest{Email: "student@college.edu", Password: "results2025"})
	require.NoError(t, err)
	assert.Equal(t, byRoll.User.ID, byEmail.User.ID)

	user, err := f.users.GetByID(ctx, byRoll.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)

	_, err = f.service.Login(ctx, &dto.LoginRequest{Roll: "20HN1A0501", Password: "wrong-pass1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, &dto.LoginRequest{Roll: "20HN1A0999", Password: "results2025"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, &dto.LoginRequest{Password: "results2025"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newAuthFixture()
	resp := registerStudent(t, f)
	ctx := context.Background()

	refreshed, err := f.service.RefreshToken(ctx, resp.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Token.RefreshToken, refreshed.RefreshToken)

	_, err = f.service.RefreshToken(ctx, resp.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = f.service.RefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)

	_, err = f.service.RefreshToken(ctx, " ")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestGetProfile(t *testing.T) {
	f := newAuthFixture()
	resp := registerStudent(t, f)
	ctx := context.Background()

	profile, err := f.service.GetProfile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "20HN1A0501", profile.Roll)

	_, err = f.service.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	_, err = f.service.GetProfile(ctx, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
