package services

import (
	"context"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/app/repositories"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

// BranchPerformanceService serves the per-semester branch summaries
type BranchPerformanceService interface {
	GetBranchPerformance(ctx context.Context, semester string) (*models.BranchPerformanceRecord, error)
}

type branchPerformanceServiceImpl struct {
	store repositories.BranchPerformanceStore
}

// NewBranchPerformanceService creates a new BranchPerformanceService
func NewBranchPerformanceService(store repositories.BranchPerformanceStore) BranchPerformanceService {
	return &branchPerformanceServiceImpl{store: store}
}

func (s *branchPerformanceServiceImpl) GetBranchPerformance(ctx context.Context, semester string) (*models.BranchPerformanceRecord, error) {
	sem, err := ingestion.ParseSemester(semester)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	return s.store.GetBranchPerformance(ctx, sem)
}
