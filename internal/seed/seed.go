package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appModels "github.com/yigit/resultsphere/internal/app/models"
	appRepos "github.com/yigit/resultsphere/internal/app/repositories"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/auth"
)

// AdminAccount describes the administrator created at startup
type AdminAccount struct {
	Roll     string
	Email    string
	Password string
}

// CreateDefaultAdmin creates the administrator account if it does not exist yet.
// Nothing is seeded when no password is configured.
func CreateDefaultAdmin(ctx context.Context, users appRepos.UserStore, admin AdminAccount, lgr zerolog.Logger) error {
	if admin.Password == "" {
		lgr.Info().Msg("No admin password configured, skipping admin seed")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if _, err := users.GetByEmail(ctx, email); err == nil {
		lgr.Debug().Str("email", email).Msg("Admin user already exists")
		return nil
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return fmt.Errorf("error checking if admin user exists: %w", err)
	}

	hashedPassword, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	user := &appModels.User{
		Roll:     strings.ToUpper(strings.TrimSpace(admin.Roll)),
		Email:    email,
		Password: hashedPassword,
		IsAdmin:  true,
	}
	if err := users.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrResourceAlreadyExists, apperrors.ErrRollAlreadyExists, apperrors.ErrEmailAlreadyExists) {
			lgr.Warn().Err(err).Msg("Admin user conflicts with an existing account")
			return nil
		}
		return fmt.Errorf("error creating admin user: %w", err)
	}

	lgr.Info().Int64("userID", user.ID).Str("email", email).Msg("Default admin user created")
	return nil
}
