package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/repositories"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/auth"
	"github.com/yigit/resultsphere/internal/pkg/validation"
)

// AuthService handles registration, login and token refresh
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	GetProfile(ctx context.Context, userID int64) (*dto.UserProfile, error)
}

type authServiceImpl struct {
	userRepo   repositories.UserStore
	tokenRepo  repositories.TokenStore
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.UserStore,
	tokenRepo repositories.TokenStore,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Register creates a student account and signs the student in
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	roll := strings.ToUpper(strings.TrimSpace(req.Roll))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !validation.IsRoll(roll) {
		return nil, fmt.Errorf("%w: invalid roll number", apperrors.ErrValidationFailed)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", apperrors.ErrValidationFailed)
	}
	if err := validation.CheckPassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Roll:     roll,
		Email:    email,
		Password: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("user creation error: %w", err)
	}

	s.logger.Info().Int64("userID", user.ID).Str("roll", roll).Msg("Student registered")
	return s.authResponse(ctx, user)
}

// Login authenticates a user by roll number or email
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidationFailed)
	}

	var (
		user *models.User
		err  error
	)
	switch {
	case strings.TrimSpace(req.Roll) != "":
		user, err = s.userRepo.GetByRoll(ctx, strings.ToUpper(strings.TrimSpace(req.Roll)))
	case strings.TrimSpace(req.Email) != "":
		user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	default:
		return nil, fmt.Errorf("%w: roll or email is required", apperrors.ErrValidationFailed)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not record last login")
	}

	return s.authResponse(ctx, user)
}

// RefreshToken rotates a refresh token and issues a new token pair
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, _, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	// Revoke before issuing so a refresh token can only be used once
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.generateTokenResponse(ctx, user)
}

// GetProfile retrieves the account of the authenticated user
func (s *authServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserProfile, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", apperrors.ErrValidationFailed)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewResourceNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}

	profile := toUserProfile(user)
	return &profile, nil
}

func (s *authServiceImpl) authResponse(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	token, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, User: toUserProfile(user)}, nil
}

// generateTokenResponse creates a token pair and stores the refresh token
func (s *authServiceImpl) generateTokenResponse(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}

func toUserProfile(user *models.User) dto.UserProfile {
	return dto.UserProfile{
		ID:          user.ID,
		Roll:        user.Roll,
		Email:       user.Email,
		Role:        string(user.Role()),
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}
