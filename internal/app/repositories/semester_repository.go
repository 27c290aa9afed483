package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/dberrors"
	"github.com/yigit/resultsphere/internal/pkg/logger"
)

const createSemesterTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	roll VARCHAR(20) PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	student_type VARCHAR(20) NOT NULL,
	subjects JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SemesterRepository stores student records in one table per semester.
// Tables are created by the first write; reads treat a missing table as an empty semester.
type SemesterRepository struct {
	db      *pgxpool.Pool
	sb      squirrel.StatementBuilderType
	ensured sync.Map
}

// NewSemesterRepository creates a new SemesterRepository
func NewSemesterRepository(db *pgxpool.Pool) *SemesterRepository {
	return &SemesterRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func tableName(semester ingestion.Semester) string {
	return pgx.Identifier{semester.Collection()}.Sanitize()
}

// ensureTable returns the quoted table name of a semester, creating the table when needed
func (r *SemesterRepository) ensureTable(ctx context.Context, semester ingestion.Semester) (string, error) {
	name := semester.Collection()
	table := tableName(semester)
	if _, ok := r.ensured.Load(name); ok {
		return table, nil
	}

	if _, err := r.db.Exec(ctx, fmt.Sprintf(createSemesterTableSQL, table)); err != nil {
		logger.Error().Err(err).Str("table", name).Msg("Error creating semester table")
		return "", fmt.Errorf("failed to create table %s: %w", name, err)
	}
	r.ensured.Store(name, struct{}{})
	return table, nil
}

// FindByRoll retrieves a student's record for a semester
func (r *SemesterRepository) FindByRoll(ctx context.Context, semester ingestion.Semester, roll string) (*models.StudentRecord, error) {
	sql, args, err := r.sb.Select("roll", "email", "student_type", "subjects", "updated_at").
		From(tableName(semester)).
		Where(squirrel.Eq{"roll": roll}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building find student SQL")
		return nil, fmt.Errorf("failed to build find student query: %w", err)
	}

	var (
		record      models.StudentRecord
		studentType string
		subjects    []byte
	)
	err = r.db.QueryRow(ctx, sql, args...).Scan(&record.Roll, &record.Email, &studentType, &subjects, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || dberrors.IsUndefinedTable(err) {
			return nil, fmt.Errorf("%w: %s in %s", apperrors.ErrStudentNotFound, roll, semester.Collection())
		}
		logger.Error().Err(err).Str("roll", roll).Str("semester", semester.String()).Msg("Error scanning student row")
		return nil, fmt.Errorf("error retrieving student %s: %w", roll, err)
	}

	record.StudentType = models.StudentType(studentType)
	if err := json.Unmarshal(subjects, &record.Subjects); err != nil {
		return nil, fmt.Errorf("corrupt subjects for %s: %w", roll, err)
	}
	return &record, nil
}

// Upsert inserts or fully replaces a student's record for a semester
func (r *SemesterRepository) Upsert(ctx context.Context, semester ingestion.Semester, record *models.StudentRecord) error {
	table, err := r.ensureTable(ctx, semester)
	if err != nil {
		return err
	}

	subjects := record.Subjects
	if subjects == nil {
		subjects = []models.SubjectRecord{}
	}
	payload, err := json.Marshal(subjects)
	if err != nil {
		return fmt.Errorf("failed to encode subjects: %w", err)
	}

	sql, args, err := r.sb.Insert(table).
		Columns("roll", "email", "student_type", "subjects", "updated_at").
		Values(record.Roll, record.Email, string(record.StudentType), string(payload), record.UpdatedAt).
		Suffix(`ON CONFLICT (roll) DO UPDATE SET
			email = EXCLUDED.email,
			student_type = EXCLUDED.student_type,
			subjects = EXCLUDED.subjects,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building upsert student SQL")
		return fmt.Errorf("failed to build upsert student query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("roll", record.Roll).Str("semester", semester.String()).Msg("Error executing upsert student query")
		return fmt.Errorf("error saving student %s: %w", record.Roll, err)
	}
	return nil
}

// ListRolls returns every roll stored for a semester
func (r *SemesterRepository) ListRolls(ctx context.Context, semester ingestion.Semester) ([]string, error) {
	sql, args, err := r.sb.Select("roll").From(tableName(semester)).OrderBy("roll ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list rolls query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		if dberrors.IsUndefinedTable(err) {
			return []string{}, nil
		}
		logger.Error().Err(err).Str("semester", semester.String()).Msg("Error listing rolls")
		return nil, fmt.Errorf("error listing rolls: %w", err)
	}
	defer rows.Close()

	rolls := []string{}
	for rows.Next() {
		var roll string
		if err := rows.Scan(&roll); err != nil {
			return nil, fmt.Errorf("error scanning roll: %w", err)
		}
		rolls = append(rolls, roll)
	}
	if err := rows.Err(); err != nil {
		if dberrors.IsUndefinedTable(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("error iterating rolls: %w", err)
	}
	return rolls, nil
}
