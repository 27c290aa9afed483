package ingestion_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/app/repositories/memory"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/pdftable"
)

var fixedNow = time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)

var headerRow = []any{"SNO", "HTNO", "SUBCODE", "SUBNAME", "INTERNALS", "GRADE", "CREDITS"}

type recordingNotifier struct {
	mu      sync.Mutex
	records []models.StudentRecord
}

func (n *recordingNotifier) NotifyResult(rec models.StudentRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, rec)
}

func (n *recordingNotifier) rolls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.records))
	for _, r := range n.records {
		out = append(out, r.Roll)
	}
	return out
}

// failingStore wraps a memory store and fails Upsert from the n-th call on.
type failingStore struct {
	*memory.ResultStore
	failFrom int
	calls    int
	finds    int
}

func (s *failingStore) FindByRoll(ctx context.Context, sem ingestion.Semester, roll string) (*models.StudentRecord, error) {
	s.finds++
	return s.ResultStore.FindByRoll(ctx, sem, roll)
}

func (s *failingStore) Upsert(ctx context.Context, sem ingestion.Semester, rec *models.StudentRecord) error {
	s.calls++
	if s.failFrom > 0 && s.calls >= s.failFrom {
		return errors.New("connection reset")
	}
	return s.ResultStore.Upsert(ctx, sem, rec)
}

type failingBranchStore struct{}

func (failingBranchStore) UpsertBranchPerformance(context.Context, *models.BranchPerformanceRecord) error {
	return errors.New("disk full")
}

type stubExtractor struct {
	rows []any
	err  error
}

func (e stubExtractor) Extract(context.Context, []byte) (*pdftable.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &pdftable.Result{Rows: e.rows, Debug: pdftable.DebugInfo{Pages: 1, Rows: len(e.rows)}}, nil
}

type fixture struct {
	students *memory.ResultStore
	branches *memory.BranchPerformanceStore
	notifier *recordingNotifier
	proc     *ingestion.Processor
}

func newFixture(extractor ingestion.TableExtractor) *fixture {
	f := &fixture{
		students: memory.NewResultStore(),
		branches: memory.NewBranchPerformanceStore(),
		notifier: &recordingNotifier{},
	}
	f.proc = ingestion.NewProcessor(extractor, f.students, f.branches, f.notifier,
		ingestion.Options{Now: func() time.Time { return fixedNow }}, zerolog.Nop())
	return f
}

func dataRow(sno int, roll, code, name string, internal int, grade string, credits float64) []any {
	return []any{sno, roll, code, name, internal, grade, credits}
}

// sixSubjects builds a Regular student's rows. grades defaults to all A.
func sixSubjects(roll string, grades ...string) []any {
	rows := make([]any, 0, 6)
	for i := 0; i < 6; i++ {
		grade := "A"
		if i < len(grades) && grades[i] != "" {
			grade = grades[i]
		}
		code := fmt.Sprintf("R20CS1%02d", i+1)
		rows = append(rows, dataRow(i+1, roll, code, "Subject "+code, 15+i, grade, 3))
	}
	return rows
}

func TestProcessRowsSingleStudent(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	rows := []any{
		headerRow,
		dataRow(1, "20HN1A0501", "R20CS101", "DSA", 18, "A", 3),
	}
	summary, err := f.proc.ProcessRows(ctx, rows, "1-1")
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "1-1", summary.Semester)
	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Equal(t, 0, summary.SkippedCount)
	assert.Equal(t, 1, summary.SavedCount)
	assert.Equal(t, 1, summary.StudentCount)
	assert.True(t, summary.StatisticsSaved)
	assert.True(t, summary.Success)

	rec, err := f.students.FindByRoll(ctx, ingestion.MustParseSemester("1-1"), "20HN1A0501")
	require.NoError(t, err)
	assert.Equal(t, "20HN1A0501@student-email-domain.com", rec.Email)
	assert.Equal(t, models.StudentTypeSupplementary, rec.StudentType)
	require.Len(t, rec.Subjects, 1)
	assert.Equal(t, models.SubjectRecord{
		SubjectCode: "R20CS101",
		SubjectName: "DSA",
		Internal:    18,
		Grade:       "A",
		Credits:     3,
		Status:      models.StatusPass,
	}, rec.Subjects[0])
	assert.Equal(t, fixedNow, rec.UpdatedAt)

	perf, err := f.branches.GetBranchPerformance(ctx, ingestion.MustParseSemester("1-1"))
	require.NoError(t, err)
	assert.Equal(t, "2025", perf.AcademicYear)
	require.Len(t, perf.Branches, 5)
	for _, b := range perf.Branches {
		assert.Zero(t, b.TotalStudents, "supplementary students are not counted for %s", b.BranchName)
	}

	assert.Equal(t, []string{"20HN1A0501"}, f.notifier.rolls())
}

func TestProcessRowsFailingGrades(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	rows := []any{headerRow}
	for i, grade := range []string{"F", "ABSENT", "MP", "B+"} {
		code := fmt.Sprintf("R20CS10%d", i+1)
		rows = append(rows, dataRow(i+1, "20HN1A0501", code, "Subject", 10, grade, 3))
	}
	_, err := f.proc.ProcessRows(ctx, rows, "1-1")
	require.NoError(t, err)

	rec, err := f.students.FindByRoll(ctx, ingestion.MustParseSemester("1-1"), "20HN1A0501")
	require.NoError(t, err)
	require.Len(t, rec.Subjects, 4)
	want := []models.SubjectStatus{models.StatusFail, models.StatusFail, models.StatusFail, models.StatusPass}
	for i, s := range rec.Subjects {
		assert.Equal(t, want[i], s.Status, s.Grade)
	}
	assert.Equal(t, 1, rec.PassedCount())
}

func TestProcessRowsMergesAcrossRuns(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	sem := ingestion.MustParseSemester("2-1")

	first := append([]any{headerRow}, sixSubjects("20HN1A0501", "", "", "F")...)
	_, err := f.proc.ProcessRows(ctx, first, sem.String())
	require.NoError(t, err)

	supply := []any{
		headerRow,
		dataRow(1, "20HN1A0501", "R20CS103", "Subject R20CS103", 12, "C", 3),
	}
	summary, err := f.proc.ProcessRows(ctx, supply, sem.String())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SavedCount)

	rec, err := f.students.FindByRoll(ctx, sem, "20HN1A0501")
	require.NoError(t, err)
	require.Len(t, rec.Subjects, 6, "replaced in place, not appended")
	assert.Equal(t, "R20CS103", rec.Subjects[2].SubjectCode)
	assert.Equal(t, "C", rec.Subjects[2].Grade)
	assert.Equal(t, models.StatusPass, rec.Subjects[2].Status)
	assert.Equal(t, models.StudentTypeSupplementary, rec.StudentType, "type follows this run's rows")
}

func TestProcessRowsStoresFirstSightingAsIs(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	sem := ingestion.MustParseSemester("2-2")

	rows := []any{headerRow}
	for i := 1; i <= 6; i++ {
		rows = append(rows, dataRow(i, "20HN1A0501", "R20CS101", "Subject R20CS101", 15, "A", 3))
	}
	summary, err := f.proc.ProcessRows(ctx, rows, sem.String())
	require.NoError(t, err)
	assert.Equal(t, 6, summary.ProcessedCount)

	rec, err := f.students.FindByRoll(ctx, sem, "20HN1A0501")
	require.NoError(t, err)
	assert.Len(t, rec.Subjects, 6)
	assert.Equal(t, models.StudentTypeRegular, rec.StudentType)

	stats, err := f.branches.GetBranchPerformance(ctx, sem)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Branch(models.BranchCSE).TotalStudents)
}

func TestProcessRowsStatisticsReflectLatestRunOnly(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	sem := ingestion.MustParseSemester("1-2")

	first := []any{headerRow}
	first = append(first, sixSubjects("20HN1A0501")...)
	first = append(first, sixSubjects("20HN1A0401")...)
	_, err := f.proc.ProcessRows(ctx, first, sem.String())
	require.NoError(t, err)

	perf, err := f.branches.GetBranchPerformance(ctx, sem)
	require.NoError(t, err)
	assert.Equal(t, 1, perf.Branch(models.BranchCSE).PassedStudents)
	assert.Equal(t, 1, perf.Branch(models.BranchECE).PassedStudents)

	second := append([]any{headerRow}, sixSubjects("20HN1A0501", "F")...)
	_, err = f.proc.ProcessRows(ctx, second, sem.String())
	require.NoError(t, err)

	perf, err = f.branches.GetBranchPerformance(ctx, sem)
	require.NoError(t, err)
	cse := perf.Branch(models.BranchCSE)
	assert.Equal(t, 1, cse.TotalStudents)
	assert.Equal(t, 0, cse.PassedStudents)
	assert.Equal(t, 1, cse.FailedStudents)
	assert.Equal(t, 0, perf.Branch(models.BranchECE).TotalStudents, "earlier runs are not carried over")

	_, err = f.students.FindByRoll(ctx, sem, "20HN1A0401")
	assert.NoError(t, err, "student records from earlier runs survive")
}

func TestProcessRowsCountsSkippedRows(t *testing.T) {
	f := newFixture(nil)

	rows := []any{
		[]any{"University Examination Results"},
		headerRow,
		dataRow(1, "20HN1A0501", "R20CS101", "DSA", 18, "A", 3),
		[]any{"", "", "", "continued", "", "", ""},
		dataRow(2, "20HN1A0501", "CS102", "Bad Code", 18, "A", 3),
		"not a row",
		dataRow(3, "20HN1A0502", "R20CS101", "", 18, "A", 3),
		dataRow(4, "20HN1A0502", "R20CS101", "DSA", 18, "B", 3),
	}
	summary, err := f.proc.ProcessRows(context.Background(), rows, "1-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ProcessedCount)
	assert.Equal(t, 4, summary.SkippedCount)
	assert.Equal(t, 2, summary.StudentCount)
	assert.Equal(t, []string{"20HN1A0501", "20HN1A0502"}, f.notifier.rolls())
}

func TestProcessRowsRejectsSheetWithoutHeader(t *testing.T) {
	students := &failingStore{ResultStore: memory.NewResultStore()}
	notifier := &recordingNotifier{}
	proc := ingestion.NewProcessor(nil, students, memory.NewBranchPerformanceStore(), notifier,
		ingestion.Options{}, zerolog.Nop())

	rows := []any{
		[]any{"Roll", "Code", "Name"},
		dataRow(1, "20HN1A0501", "R20CS101", "DSA", 18, "A", 3),
	}
	summary, err := proc.ProcessRows(context.Background(), rows, "1-1")

	var formatErr *ingestion.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.False(t, summary.Success)
	assert.Zero(t, students.finds)
	assert.Zero(t, students.calls)
	assert.Empty(t, notifier.rolls())
}

func TestProcessRowsRejectsInvalidSemester(t *testing.T) {
	f := newFixture(nil)
	_, err := f.proc.ProcessRows(context.Background(), []any{headerRow}, "5-3")
	assert.ErrorIs(t, err, apperrors.ErrGradeSheetFormat)
}

func TestProcessRowsStopsAtPersistenceFailure(t *testing.T) {
	students := &failingStore{ResultStore: memory.NewResultStore(), failFrom: 2}
	branches := memory.NewBranchPerformanceStore()
	notifier := &recordingNotifier{}
	proc := ingestion.NewProcessor(nil, students, branches, notifier, ingestion.Options{}, zerolog.Nop())
	ctx := context.Background()
	sem := ingestion.MustParseSemester("3-1")

	rows := []any{
		headerRow,
		dataRow(1, "20HN1A0501", "R20CS101", "DSA", 18, "A", 3),
		dataRow(2, "20HN1A0502", "R20CS101", "DSA", 18, "A", 3),
		dataRow(3, "20HN1A0503", "R20CS101", "DSA", 18, "A", 3),
	}
	summary, err := proc.ProcessRows(ctx, rows, sem.String())

	var persistErr *ingestion.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "20HN1A0502", persistErr.Roll)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	assert.Equal(t, 1, summary.SavedCount)
	assert.Equal(t, 3, summary.StudentCount)
	assert.False(t, summary.StatisticsSaved)
	assert.False(t, summary.Success)

	_, err = students.ResultStore.FindByRoll(ctx, sem, "20HN1A0501")
	assert.NoError(t, err, "earlier saves stay committed")
	_, err = branches.GetBranchPerformance(ctx, sem)
	assert.ErrorIs(t, err, apperrors.ErrBranchPerformanceNotFound)
	assert.Equal(t, []string{"20HN1A0501"}, notifier.rolls())
}

func TestProcessRowsBranchStatisticsFailure(t *testing.T) {
	students := memory.NewResultStore()
	proc := ingestion.NewProcessor(nil, students, failingBranchStore{}, nil, ingestion.Options{}, zerolog.Nop())

	rows := []any{headerRow, dataRow(1, "20HN1A0501", "R20CS101", "DSA", 18, "A", 3)}
	summary, err := proc.ProcessRows(context.Background(), rows, "1-1")

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Equal(t, 1, summary.SavedCount)
	assert.False(t, summary.StatisticsSaved)
	assert.False(t, summary.Success)
}

func TestProcessRowsIsIdempotent(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	sem := ingestion.MustParseSemester("4-1")
	rows := append([]any{headerRow}, sixSubjects("20HN1A0301", "F", "B")...)

	_, err := f.proc.ProcessRows(ctx, rows, sem.String())
	require.NoError(t, err)
	first, err := f.students.FindByRoll(ctx, sem, "20HN1A0301")
	require.NoError(t, err)
	firstPerf, err := f.branches.GetBranchPerformance(ctx, sem)
	require.NoError(t, err)

	_, err = f.proc.ProcessRows(ctx, rows, sem.String())
	require.NoError(t, err)
	second, err := f.students.FindByRoll(ctx, sem, "20HN1A0301")
	require.NoError(t, err)
	secondPerf, err := f.branches.GetBranchPerformance(ctx, sem)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstPerf, secondPerf)
}

func TestProcessGradeSheet(t *testing.T) {
	rows := append([]any{headerRow}, sixSubjects("20HN1A0201")...)
	f := newFixture(stubExtractor{rows: rows})

	summary, err := f.proc.ProcessGradeSheet(context.Background(), []byte("%PDF-1.4"), "1-1")
	require.NoError(t, err)
	assert.Equal(t, 6, summary.ProcessedCount)
	assert.True(t, summary.Success)

	perf, err := f.branches.GetBranchPerformance(context.Background(), ingestion.MustParseSemester("1-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, perf.Branch(models.BranchEEE).PassedStudents)
}

func TestProcessGradeSheetExtractionFailure(t *testing.T) {
	f := newFixture(stubExtractor{err: pdftable.ErrUnreadable})

	_, err := f.proc.ProcessGradeSheet(context.Background(), []byte("garbage"), "1-1")

	assert.ErrorIs(t, err, apperrors.ErrGradeSheetFormat)
	assert.ErrorIs(t, err, pdftable.ErrUnreadable)
	assert.Empty(t, f.notifier.rolls())
}
