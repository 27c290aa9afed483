package ingestion

import (
	"fmt"

	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

// FormatError aborts a whole ingestion run before anything is persisted.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid grade sheet: %s: %v", e.Reason, e.Err)
	}
	return "invalid grade sheet: " + e.Reason
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{apperrors.ErrGradeSheetFormat, e.Err}
	}
	return []error{apperrors.ErrGradeSheetFormat}
}

// Row rejection reasons
const (
	ReasonNotTabular     = "row is not a list of cells"
	ReasonMissingRoll    = "roll cell does not contain the HN marker"
	ReasonInvalidSubject = "subject failed validation"
)

// RowError rejects a single row. It is counted as skipped and never aborts the run.
type RowError struct {
	Index  int
	Reason string
	Detail string
}

func (e *RowError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("row %d rejected: %s (%s)", e.Index, e.Reason, e.Detail)
	}
	return fmt.Sprintf("row %d rejected: %s", e.Index, e.Reason)
}

func (e *RowError) Unwrap() error {
	return apperrors.ErrRowRejected
}

// PersistenceError stops a run at the failing store call. Saves made earlier in the run stay committed.
type PersistenceError struct {
	Op   string
	Roll string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Roll != "" {
		return fmt.Sprintf("%s failed for roll %s: %v", e.Op, e.Roll, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{apperrors.ErrPersistence, e.Err}
}
