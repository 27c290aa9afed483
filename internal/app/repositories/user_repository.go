package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/dberrors"
	"github.com/yigit/resultsphere/internal/pkg/helpers"
	"github.com/yigit/resultsphere/internal/pkg/logger"
)

var userColumns = []string{"id", "roll", "email", "password", "is_admin", "created_at", "updated_at", "last_login_at"}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a user and sets its ID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("users").
		Columns("roll", "email", "password", "is_admin", "created_at", "updated_at").
		Values(user.Roll, user.Email, user.Password, user.IsAdmin, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID); err != nil {
		if dupErr := duplicateUserError(err); dupErr != nil {
			return dupErr
		}
		logger.Error().Err(err).Str("roll", user.Roll).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// GetByRoll retrieves a user by roll number
func (r *UserRepository) GetByRoll(ctx context.Context, roll string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"roll": roll})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user := &models.User{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID, &user.Roll, &user.Email, &user.Password, &user.IsAdmin,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Interface("where", where).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("users").
		Set("last_login_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update last login query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error updating last login")
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// EmailForRoll returns the registered email of a student
func (r *UserRepository) EmailForRoll(ctx context.Context, roll string) (string, error) {
	user, err := r.GetByRoll(ctx, roll)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// Update saves roll, email, password and admin flag of an existing user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	now := time.Now()
	sql, args, err := r.sb.Update("users").
		Set("roll", user.Roll).
		Set("email", user.Email).
		Set("password", user.Password).
		Set("is_admin", user.IsAdmin).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update user SQL")
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dupErr := duplicateUserError(err); dupErr != nil {
			return dupErr
		}
		logger.Error().Err(err).Int64("userID", user.ID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	user.UpdatedAt = now
	return nil
}

// List returns one page of users matching filter, ordered by ID, and the total match count
func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]*models.User, int64, error) {
	where := squirrel.And{}
	if filter.RollPrefix != "" {
		where = append(where, squirrel.Like{"roll": helpers.EscapeLike(filter.RollPrefix) + "%"})
	}
	if filter.Email != "" {
		where = append(where, squirrel.ILike{"email": "%" + helpers.EscapeLike(filter.Email) + "%"})
	}
	if filter.IsAdmin != nil {
		where = append(where, squirrel.Eq{"is_admin": *filter.IsAdmin})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting users")
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(where).
		OrderBy("id ASC").
		Offset(filter.Offset).
		Limit(uint64(filter.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing users")
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID, &user.Roll, &user.Email, &user.Password, &user.IsAdmin,
			&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

// ListEmails returns the address of every account
func (r *UserRepository) ListEmails(ctx context.Context) ([]string, error) {
	sql, args, err := r.sb.Select("email").From("users").Where("email <> ''").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list emails query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing user emails")
		return nil, fmt.Errorf("error listing user emails: %w", err)
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("error scanning email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func duplicateUserError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "users_roll_key"):
		return apperrors.ErrRollAlreadyExists
	case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
		return apperrors.ErrEmailAlreadyExists
	case dberrors.IsUniqueViolation(err):
		return apperrors.ErrResourceAlreadyExists
	}
	return nil
}
