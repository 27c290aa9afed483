package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/filestorage"
)

// GradeSheetProcessor runs one ingestion over a PDF
type GradeSheetProcessor interface {
	ProcessGradeSheet(ctx context.Context, data []byte, semester string) (ingestion.Summary, error)
}

// UploadService archives an uploaded grade sheet and ingests it
type UploadService interface {
	// UploadGradeSheet returns the run summary. On a persistence failure both the partial
	// summary and the error are returned.
	UploadGradeSheet(ctx context.Context, semester, filename string, data []byte) (*dto.UploadGradeSheetResponse, error)
}

type uploadServiceImpl struct {
	processor GradeSheetProcessor
	archive   filestorage.Archive
	logger    zerolog.Logger
}

// NewUploadService creates a new UploadService. A nil archive disables archiving.
func NewUploadService(processor GradeSheetProcessor, archive filestorage.Archive, logger zerolog.Logger) UploadService {
	if archive == nil {
		archive = filestorage.NopArchive{}
	}
	return &uploadServiceImpl{processor: processor, archive: archive, logger: logger}
}

func (s *uploadServiceImpl) UploadGradeSheet(ctx context.Context, semester, filename string, data []byte) (*dto.UploadGradeSheetResponse, error) {
	sem, err := ingestion.ParseSemester(semester)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &ingestion.FormatError{Reason: "uploaded file is empty"}
	}

	resp := &dto.UploadGradeSheetResponse{}

	key, err := s.archive.Store(ctx, sem.String(), filename, data)
	if err != nil {
		s.logger.Warn().Err(err).Str("semester", sem.String()).Str("filename", filename).Msg("Could not archive grade sheet")
	} else {
		resp.ArchiveKey = key
	}

	summary, err := s.processor.ProcessGradeSheet(ctx, data, sem.String())
	resp.Summary = summary
	if err != nil {
		var perr *ingestion.PersistenceError
		if errors.As(err, &perr) {
			return resp, err
		}
		return nil, err
	}

	s.logger.Info().
		Str("runId", summary.RunID).
		Str("semester", summary.Semester).
		Int("saved", summary.SavedCount).
		Int("skipped", summary.SkippedCount).
		Msg("Grade sheet ingested")
	return resp, nil
}
