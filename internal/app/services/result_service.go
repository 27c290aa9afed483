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
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

// AllSemesters is the semester path value that selects every semester
const AllSemesters = "all"

// Requester identifies the authenticated caller of a results query
type Requester struct {
	UserID  int64
	Roll    string
	IsAdmin bool
}

// ResultService serves stored student results
type ResultService interface {
	GetResults(ctx context.Context, requester Requester, roll, semester string) (*dto.StudentResultsResponse, error)
	ListRolls(ctx context.Context, semester string) ([]string, error)
}

type resultServiceImpl struct {
	store  repositories.ResultStore
	logger zerolog.Logger
}

// NewResultService creates a new ResultService
func NewResultService(store repositories.ResultStore, logger zerolog.Logger) ResultService {
	return &resultServiceImpl{store: store, logger: logger}
}

// GetResults returns a student's record for one semester, or for every semester when semester is "all".
// Students may only read their own roll.
func (s *resultServiceImpl) GetResults(ctx context.Context, requester Requester, roll, semester string) (*dto.StudentResultsResponse, error) {
	roll = strings.ToUpper(strings.TrimSpace(roll))
	if roll == "" {
		return nil, apperrors.NewBadRequestError("roll number is required")
	}
	if !requester.IsAdmin && !strings.EqualFold(requester.Roll, roll) {
		return nil, apperrors.NewForbiddenError("students can only view their own results")
	}

	semesters, err := semestersFor(semester)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentResultsResponse{Roll: roll, Results: []models.SemesterResult{}}
	for _, sem := range semesters {
		record, err := s.store.FindByRoll(ctx, sem, roll)
		if err != nil {
			if errors.Is(err, apperrors.ErrStudentNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s results: %w", sem, err)
		}
		resp.Results = append(resp.Results, models.SemesterResult{Semester: sem.String(), Record: record})
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrStudentNotFound, roll)
	}

	s.logger.Debug().Str("roll", roll).Int("semesters", len(resp.Results)).Msg("Results served")
	return resp, nil
}

// ListRolls returns the rolls stored for a semester
func (s *resultServiceImpl) ListRolls(ctx context.Context, semester string) ([]string, error) {
	sem, err := ingestion.ParseSemester(semester)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	rolls, err := s.store.ListRolls(ctx, sem)
	if err != nil {
		return nil, fmt.Errorf("failed to list rolls: %w", err)
	}
	return rolls, nil
}

func semestersFor(semester string) ([]ingestion.Semester, error) {
	if strings.EqualFold(strings.TrimSpace(semester), AllSemesters) {
		return ingestion.KnownSemesters(), nil
	}
	sem, err := ingestion.ParseSemester(semester)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	return []ingestion.Semester{sem}, nil
}
