package dto

import (
	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/ingestion"
)

// UploadGradeSheetRequest holds the non-file fields of a grade-sheet upload
type UploadGradeSheetRequest struct {
	Semester string `form:"semester" binding:"required,semester" example:"1-1"`
}

// UploadGradeSheetResponse reports an ingestion run
type UploadGradeSheetResponse struct {
	ingestion.Summary
	ArchiveKey string `json:"archiveKey,omitempty" example:"1-1/3f1c2a8e-grades.pdf"`
}

// StudentResultsResponse lists a student's records per semester
type StudentResultsResponse struct {
	Roll    string                  `json:"roll" example:"20HN1A0501"`
	Results []models.SemesterResult `json:"results"`
}
