package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/logger"
)

// BranchPerformanceRepository handles the branch_performance table
type BranchPerformanceRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewBranchPerformanceRepository creates a new BranchPerformanceRepository
func NewBranchPerformanceRepository(db *pgxpool.Pool) *BranchPerformanceRepository {
	return &BranchPerformanceRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// UpsertBranchPerformance replaces the semester's summary as a whole
func (r *BranchPerformanceRepository) UpsertBranchPerformance(ctx context.Context, record *models.BranchPerformanceRecord) error {
	branches, err := json.Marshal(record.Branches)
	if err != nil {
		return fmt.Errorf("failed to encode branches: %w", err)
	}

	sql, args, err := r.sb.Insert("branch_performance").
		Columns("semester", "academic_year", "branches", "last_updated").
		Values(record.Semester, record.AcademicYear, string(branches), record.LastUpdated).
		Suffix(`ON CONFLICT (semester) DO UPDATE SET
			academic_year = EXCLUDED.academic_year,
			branches = EXCLUDED.branches,
			last_updated = EXCLUDED.last_updated`).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building upsert branch performance SQL")
		return fmt.Errorf("failed to build upsert branch performance query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("semester", record.Semester).Msg("Error executing upsert branch performance query")
		return fmt.Errorf("error saving branch performance: %w", err)
	}
	return nil
}

// GetBranchPerformance retrieves the summary of a semester
func (r *BranchPerformanceRepository) GetBranchPerformance(ctx context.Context, semester ingestion.Semester) (*models.BranchPerformanceRecord, error) {
	sql, args, err := r.sb.Select("semester", "academic_year", "branches", "last_updated").
		From("branch_performance").
		Where(squirrel.Eq{"semester": semester.String()}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get branch performance SQL")
		return nil, fmt.Errorf("failed to build get branch performance query: %w", err)
	}

	var (
		record   models.BranchPerformanceRecord
		branches []byte
	)
	err = r.db.QueryRow(ctx, sql, args...).Scan(&record.Semester, &record.AcademicYear, &branches, &record.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrBranchPerformanceNotFound, semester)
		}
		logger.Error().Err(err).Str("semester", semester.String()).Msg("Error scanning branch performance row")
		return nil, fmt.Errorf("error retrieving branch performance: %w", err)
	}

	if err := json.Unmarshal(branches, &record.Branches); err != nil {
		return nil, fmt.Errorf("corrupt branch performance for %s: %w", semester, err)
	}
	return &record, nil
}
