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
	"github.com/yigit/resultsphere/internal/pkg/helpers"
	"github.com/yigit/resultsphere/internal/pkg/validation"
)

// UserService manages accounts after registration
type UserService interface {
	GetUsersByFilter(ctx context.Context, filter *dto.UserFilterRequest) (*dto.UserListResponse, error)
	UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserProfile, error)
}

type userServiceImpl struct {
	userRepo repositories.UserStore
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserStore, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetUsersByFilter lists accounts page by page
func (s *userServiceImpl) GetUsersByFilter(ctx context.Context, filter *dto.UserFilterRequest) (*dto.UserListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)

	storeFilter := repositories.UserFilter{
		RollPrefix: strings.ToUpper(strings.TrimSpace(filter.Roll)),
		Email:      strings.ToLower(strings.TrimSpace(filter.Email)),
		Offset:     offset,
		Limit:      limit,
	}
	switch models.RoleType(filter.Role) {
	case models.RoleAdmin:
		isAdmin := true
		storeFilter.IsAdmin = &isAdmin
	case models.RoleStudent:
		isAdmin := false
		storeFilter.IsAdmin = &isAdmin
	}

	users, total, err := s.userRepo.List(ctx, storeFilter)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	profiles := make([]dto.UserProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, toUserProfile(user))
	}

	return &dto.UserListResponse{
		Users:          profiles,
		PaginationInfo: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}, nil
}

// UpdateUser applies an administrator's edit to an account
func (s *userServiceImpl) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserProfile, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Roll != nil {
		roll := strings.ToUpper(strings.TrimSpace(*req.Roll))
		if !validation.IsRoll(roll) {
			return nil, fmt.Errorf("%w: invalid roll number", apperrors.ErrValidationFailed)
		}
		if roll != user.Roll {
			if err := s.ensureRollFree(ctx, roll, id); err != nil {
				return nil, err
			}
			user.Roll = roll
		}
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", apperrors.ErrValidationFailed)
		}
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.logger.Info().Int64("userID", id).Str("roll", user.Roll).Bool("isAdmin", user.IsAdmin).Msg("User updated by administrator")
	profile := toUserProfile(user)
	return &profile, nil
}

// UpdateUserProfile updates the authenticated user's email and optionally the password
func (s *userServiceImpl) UpdateUserProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserProfile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", apperrors.ErrValidationFailed)
	}
	if email != user.Email {
		if err := s.ensureEmailFree(ctx, email, userID); err != nil {
			return nil, err
		}
		user.Email = email
	}

	if req.NewPassword != "" {
		if !auth.CheckPassword(user.Password, req.CurrentPassword) {
			return nil, apperrors.ErrInvalidCredentials
		}
		if err := validation.CheckPassword(req.NewPassword); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
		}
		hashedPassword, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.Password = hashedPassword
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	s.logger.Info().Int64("userID", userID).Bool("passwordChanged", req.NewPassword != "").Msg("Profile updated")
	profile := toUserProfile(user)
	return &profile, nil
}

func (s *userServiceImpl) findUser(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", apperrors.ErrValidationFailed)
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return user, nil
}

// ensureEmailFree fails when another account already uses email
func (s *userServiceImpl) ensureEmailFree(ctx context.Context, email string, ownerID int64) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		s.logger.Error().Err(err).Str("email", email).Msg("Error checking email availability")
		return fmt.Errorf("error checking email availability: %w", err)
	}
	if existing.ID != ownerID {
		return apperrors.ErrEmailAlreadyExists
	}
	return nil
}

func (s *userServiceImpl) ensureRollFree(ctx context.Context, roll string, ownerID int64) error {
	existing, err := s.userRepo.GetByRoll(ctx, roll)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("error checking roll availability: %w", err)
	}
	if existing.ID != ownerID {
		return apperrors.ErrRollAlreadyExists
	}
	return nil
}
