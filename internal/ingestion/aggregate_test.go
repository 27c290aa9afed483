package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/resultsphere/internal/app/models"
)

func subject(code, grade string) models.SubjectRecord {
	return models.SubjectRecord{
		SubjectCode: code,
		SubjectName: "Subject " + code,
		Grade:       grade,
		Credits:     3,
		Status:      StatusFromGrade(grade),
	}
}

func TestAggregatorKeepsFirstSeenOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Add(NormalizedRow{Roll: "20HN1A0502", Branch: models.BranchCSE, Subject: subject("R20CS101", "A")})
	agg.Add(NormalizedRow{Roll: "20HN1A0401", Branch: models.BranchECE, Subject: subject("R20EC101", "B")})
	agg.Add(NormalizedRow{Roll: "20HN1A0502", Branch: models.BranchCSE, Subject: subject("R20CS102", "F")})

	require.Equal(t, 2, agg.Len())
	groups := agg.Groups()
	assert.Equal(t, "20HN1A0502", groups[0].Roll)
	assert.Equal(t, "20HN1A0401", groups[1].Roll)
	assert.Len(t, groups[0].Subjects, 2)
	assert.Equal(t, models.StudentTypeSupplementary, groups[0].StudentType())
}

func TestClassifyStudentType(t *testing.T) {
	assert.Equal(t, models.StudentTypeSupplementary, ClassifyStudentType(0))
	assert.Equal(t, models.StudentTypeSupplementary, ClassifyStudentType(5))
	assert.Equal(t, models.StudentTypeRegular, ClassifyStudentType(6))
	assert.Equal(t, models.StudentTypeRegular, ClassifyStudentType(9))
}

func TestEmailForRoll(t *testing.T) {
	assert.Equal(t, "20HN1A0501@student-email-domain.com", EmailForRoll("20HN1A0501", ""))
	assert.Equal(t, "20HN1A0501@college.edu", EmailForRoll("20HN1A0501", "college.edu"))
}

func TestMergeSubjects(t *testing.T) {
	stored := []models.SubjectRecord{subject("R20CS101", "F"), subject("R20CS102", "A")}
	incoming := []models.SubjectRecord{subject("R20CS101", "B"), subject("R20CS103", "C")}

	merged := MergeSubjects(stored, incoming)

	require.Len(t, merged, 3)
	assert.Equal(t, "R20CS101", merged[0].SubjectCode)
	assert.Equal(t, "B", merged[0].Grade, "known code is replaced in place")
	assert.Equal(t, models.StatusPass, merged[0].Status)
	assert.Equal(t, "R20CS102", merged[1].SubjectCode)
	assert.Equal(t, "R20CS103", merged[2].SubjectCode, "new code is appended")

	assert.Equal(t, "F", stored[0].Grade, "stored slice is not modified")
}

func TestMergeSubjectsDeduplicatesWithinRun(t *testing.T) {
	merged := MergeSubjects(nil, []models.SubjectRecord{subject("R20CS101", "F"), subject("R20CS101", "A")})
	require.Len(t, merged, 1)
	assert.Equal(t, "A", merged[0].Grade)
}

func TestMergeStudentNewRecord(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	group := &StudentGroup{Roll: "20HN1A0501", Branch: models.BranchCSE}
	for _, code := range []string{"R20CS101", "R20CS102", "R20CS103", "R20CS104", "R20CS105", "R20CS106"} {
		group.Subjects = append(group.Subjects, subject(code, "A"))
	}

	rec := MergeStudent(nil, group, "x@y.z", now)

	assert.Equal(t, "20HN1A0501", rec.Roll)
	assert.Equal(t, "x@y.z", rec.Email)
	assert.Equal(t, models.StudentTypeRegular, rec.StudentType)
	assert.Len(t, rec.Subjects, 6)
	assert.Equal(t, now, rec.UpdatedAt)
}

func TestMergeStudentNewRecordKeepsRowsAsIs(t *testing.T) {
	group := &StudentGroup{
		Roll:     "20HN1A0501",
		Branch:   models.BranchCSE,
		Subjects: []models.SubjectRecord{subject("R20CS101", "F"), subject("R20CS101", "A")},
	}

	rec := MergeStudent(nil, group, "x@y.z", time.Now())

	require.Len(t, rec.Subjects, 2, "a first sighting is stored without deduplication")
	assert.Equal(t, "F", rec.Subjects[0].Grade)
	assert.Equal(t, "A", rec.Subjects[1].Grade)

	rec.Subjects[0].Grade = "B"
	assert.Equal(t, "F", group.Subjects[0].Grade, "group slice is not shared")
}

func TestMergeStudentTakesTypeFromRun(t *testing.T) {
	existing := &models.StudentRecord{
		Roll:        "20HN1A0501",
		Email:       "old@example.com",
		StudentType: models.StudentTypeRegular,
	}
	for _, code := range []string{"R20CS101", "R20CS102", "R20CS103", "R20CS104", "R20CS105", "R20CS106"} {
		existing.Subjects = append(existing.Subjects, subject(code, "A"))
	}
	group := &StudentGroup{
		Roll:     "20HN1A0501",
		Branch:   models.BranchCSE,
		Subjects: []models.SubjectRecord{subject("R20CS199", "B")},
	}

	rec := MergeStudent(existing, group, "new@example.com", time.Now())

	assert.Len(t, rec.Subjects, 7)
	assert.Equal(t, models.StudentTypeSupplementary, rec.StudentType, "one subject in this run")
	assert.Equal(t, "new@example.com", rec.Email, "email is overwritten on every run")
	assert.Len(t, existing.Subjects, 6, "existing record is untouched")
}
