package ingestion

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/pdftable"
)

// TableExtractor converts a raw document into loosely typed rows.
type TableExtractor interface {
	Extract(ctx context.Context, data []byte) (*pdftable.Result, error)
}

// SemesterStore persists student records in per-semester collections.
// FindByRoll returns an error wrapping apperrors.ErrStudentNotFound when the roll has no record.
type SemesterStore interface {
	FindByRoll(ctx context.Context, semester Semester, roll string) (*models.StudentRecord, error)
	Upsert(ctx context.Context, semester Semester, record *models.StudentRecord) error
}

// BranchPerformanceStore replaces the branch summary of a semester.
type BranchPerformanceStore interface {
	UpsertBranchPerformance(ctx context.Context, record *models.BranchPerformanceRecord) error
}

// Notifier receives a post-commit event for every saved student. It must not block.
type Notifier interface {
	NotifyResult(record models.StudentRecord)
}

type noopNotifier struct{}

func (noopNotifier) NotifyResult(models.StudentRecord) {}

// Summary reports the outcome of one ingestion run.
type Summary struct {
	RunID           string `json:"runId"`
	Semester        string `json:"semester"`
	ProcessedCount  int    `json:"processedCount"`
	SkippedCount    int    `json:"skippedCount"`
	SavedCount      int    `json:"savedCount"`
	StudentCount    int    `json:"studentCount"`
	StatisticsSaved bool   `json:"statisticsSaved"`
	Success         bool   `json:"success"`
}

// Options tunes a Processor.
type Options struct {
	// EmailDomain is used to derive student addresses from roll numbers.
	EmailDomain string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Processor runs the grade-sheet ingestion pipeline.
type Processor struct {
	extractor   TableExtractor
	students    SemesterStore
	branches    BranchPerformanceStore
	notifier    Notifier
	emailDomain string
	now         func() time.Time
	logger      zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProcessor creates a Processor. A nil notifier disables notifications.
func NewProcessor(
	extractor TableExtractor,
	students SemesterStore,
	branches BranchPerformanceStore,
	notifier Notifier,
	opts Options,
	logger zerolog.Logger,
) *Processor {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Processor{
		extractor:   extractor,
		students:    students,
		branches:    branches,
		notifier:    notifier,
		emailDomain: opts.EmailDomain,
		now:         now,
		logger:      logger.With().Str("component", "ingestion").Logger(),
		locks:       make(map[string]*sync.Mutex),
	}
}

// ProcessGradeSheet extracts the table from a PDF and ingests it for the semester.
func (p *Processor) ProcessGradeSheet(ctx context.Context, data []byte, semester string) (Summary, error) {
	sem, err := ParseSemester(semester)
	if err != nil {
		return Summary{Semester: semester}, err
	}
	if p.extractor == nil {
		return Summary{Semester: sem.String()}, errors.New("no table extractor configured")
	}

	result, err := p.extractor.Extract(ctx, data)
	if err != nil {
		return Summary{Semester: sem.String()}, &FormatError{Reason: "could not extract table", Err: err}
	}
	p.logger.Debug().
		Int("pages", result.Debug.Pages).
		Int("rows", result.Debug.Rows).
		Str("validation", result.Debug.Validation).
		Msg("Grade sheet extracted")

	return p.process(ctx, result.Rows, sem)
}

// ProcessRows ingests rows that were already extracted.
func (p *Processor) ProcessRows(ctx context.Context, rows []any, semester string) (Summary, error) {
	sem, err := ParseSemester(semester)
	if err != nil {
		return Summary{Semester: semester}, err
	}
	return p.process(ctx, rows, sem)
}

func (p *Processor) process(ctx context.Context, rows []any, sem Semester) (Summary, error) {
	summary := Summary{RunID: ulid.Make().String(), Semester: sem.String()}
	log := p.logger.With().Str("runId", summary.RunID).Str("semester", sem.String()).Logger()

	header, err := LocateHeader(rows)
	if err != nil {
		log.Warn().Err(err).Int("rows", len(rows)).Msg("Grade sheet rejected")
		return summary, err
	}
	log.Debug().Int("headerIndex", header.StartIndex).Bool("hasSNO", header.HasSNO).Msg("Header located")

	agg := NewAggregator()
	for i := header.StartIndex + 1; i < len(rows); i++ {
		row, err := NormalizeRow(i, rows[i], header)
		if err != nil {
			summary.SkippedCount++
			log.Debug().Err(err).Msg("Row skipped")
			continue
		}
		agg.Add(row)
		summary.ProcessedCount++
	}
	summary.StudentCount = agg.Len()

	unlock := p.lockSemester(sem)
	defer unlock()

	for _, group := range agg.Groups() {
		saved, err := p.saveStudent(ctx, sem, group)
		if err != nil {
			log.Error().Err(err).Int("saved", summary.SavedCount).Msg("Ingestion stopped by store failure")
			return summary, err
		}
		summary.SavedCount++
		p.notifier.NotifyResult(saved)
	}

	stats := ComputeBranchPerformance(sem, agg.Groups(), p.now())
	if err := p.branches.UpsertBranchPerformance(ctx, stats); err != nil {
		perr := &PersistenceError{Op: "branch statistics upsert", Err: err}
		log.Error().Err(perr).Int("saved", summary.SavedCount).Msg("Students saved but branch statistics were not")
		return summary, perr
	}
	summary.StatisticsSaved = true
	summary.Success = true

	log.Info().
		Int("processed", summary.ProcessedCount).
		Int("skipped", summary.SkippedCount).
		Int("saved", summary.SavedCount).
		Msg("Grade sheet ingested")
	return summary, nil
}

// saveStudent merges the group into the stored record and persists it.
func (p *Processor) saveStudent(ctx context.Context, sem Semester, group *StudentGroup) (models.StudentRecord, error) {
	existing, err := p.students.FindByRoll(ctx, sem, group.Roll)
	if err != nil {
		if !errors.Is(err, apperrors.ErrStudentNotFound) {
			return models.StudentRecord{}, &PersistenceError{Op: "student lookup", Roll: group.Roll, Err: err}
		}
		existing = nil
	}

	record := MergeStudent(existing, group, EmailForRoll(group.Roll, p.emailDomain), p.now())
	if err := p.students.Upsert(ctx, sem, &record); err != nil {
		return models.StudentRecord{}, &PersistenceError{Op: "student save", Roll: group.Roll, Err: err}
	}

	p.logger.Debug().
		Str("roll", record.Roll).
		Bool("existing", existing != nil).
		Int("subjects", len(record.Subjects)).
		Str("studentType", string(record.StudentType)).
		Msg("Student saved")
	return record.Clone(), nil
}

// lockSemester serialises runs for the same semester within this process.
func (p *Processor) lockSemester(sem Semester) func() {
	p.mu.Lock()
	l, ok := p.locks[sem.String()]
	if !ok {
		l = &sync.Mutex{}
		p.locks[sem.String()] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
