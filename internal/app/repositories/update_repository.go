package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/pkg/logger"
)

// UpdateRepository handles announcement database operations
type UpdateRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUpdateRepository creates a new UpdateRepository
func NewUpdateRepository(db *pgxpool.Pool) *UpdateRepository {
	return &UpdateRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create stores an announcement and sets its ID and creation time
func (r *UpdateRepository) Create(ctx context.Context, update *models.Update) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("updates").
		Columns("title", "description", "date", "created_at").
		Values(update.Title, update.Description, update.Date, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create update SQL")
		return fmt.Errorf("failed to build create update query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&update.ID); err != nil {
		logger.Error().Err(err).Str("title", update.Title).Msg("Error executing create update query")
		return fmt.Errorf("error creating update: %w", err)
	}
	update.CreatedAt = now
	return nil
}

// List returns every announcement, newest first
func (r *UpdateRepository) List(ctx context.Context) ([]*models.Update, error) {
	sql, args, err := r.sb.Select("id", "title", "description", "date", "created_at").
		From("updates").
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list updates query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing updates")
		return nil, fmt.Errorf("error listing updates: %w", err)
	}
	defer rows.Close()

	updates := []*models.Update{}
	for rows.Next() {
		u := &models.Update{}
		if err := rows.Scan(&u.ID, &u.Title, &u.Description, &u.Date, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning update: %w", err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating updates: %w", err)
	}
	return updates, nil
}
