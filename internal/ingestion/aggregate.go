package ingestion

import (
	"time"

	"github.com/yigit/resultsphere/internal/app/models"
)

// RegularSubjectThreshold is the subject count from which a student counts as Regular.
const RegularSubjectThreshold = 6

// DefaultEmailDomain is used when no student email domain is configured.
const DefaultEmailDomain = "student-email-domain.com"

// StudentGroup is the run-local working copy of one student's rows.
type StudentGroup struct {
	Roll     string
	Branch   models.Branch
	Subjects []models.SubjectRecord
}

// StudentType classifies the group by the number of subjects seen in this run.
func (g *StudentGroup) StudentType() models.StudentType {
	return ClassifyStudentType(len(g.Subjects))
}

// Aggregator groups normalized rows by roll in first-seen order.
// Subjects are appended as they arrive; duplicates are resolved at merge time.
type Aggregator struct {
	groups []*StudentGroup
	byRoll map[string]*StudentGroup
}

// NewAggregator creates an empty Aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{byRoll: make(map[string]*StudentGroup)}
}

// Add appends the row's subject to its student's group.
func (a *Aggregator) Add(row NormalizedRow) {
	g, ok := a.byRoll[row.Roll]
	if !ok {
		g = &StudentGroup{Roll: row.Roll, Branch: row.Branch}
		a.byRoll[row.Roll] = g
		a.groups = append(a.groups, g)
	}
	g.Subjects = append(g.Subjects, row.Subject)
}

// Groups returns the student groups in the order their rolls were first seen.
func (a *Aggregator) Groups() []*StudentGroup {
	return a.groups
}

// Len returns the number of distinct students.
func (a *Aggregator) Len() int {
	return len(a.groups)
}

// ClassifyStudentType is Regular from RegularSubjectThreshold subjects upwards.
func ClassifyStudentType(subjectCount int) models.StudentType {
	if subjectCount >= RegularSubjectThreshold {
		return models.StudentTypeRegular
	}
	return models.StudentTypeSupplementary
}

// EmailForRoll derives the fallback address of a student.
func EmailForRoll(roll, domain string) string {
	if domain == "" {
		domain = DefaultEmailDomain
	}
	return roll + "@" + domain
}

// MergeSubjects applies incoming subjects to stored ones: a subject with a known code
// replaces the stored entry in place, a new code is appended.
func MergeSubjects(stored, incoming []models.SubjectRecord) []models.SubjectRecord {
	merged := append([]models.SubjectRecord(nil), stored...)
	for _, s := range incoming {
		replaced := false
		for i := range merged {
			if merged[i].SubjectCode == s.SubjectCode {
				merged[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, s)
		}
	}
	return merged
}

// MergeStudent builds the record to persist for a group. existing is nil for a first sighting,
// in which case the group's subjects are stored as they arrived. The student type always comes
// from this run's grouping and the email is overwritten.
func MergeStudent(existing *models.StudentRecord, group *StudentGroup, email string, now time.Time) models.StudentRecord {
	subjects := append([]models.SubjectRecord(nil), group.Subjects...)
	if existing != nil {
		subjects = MergeSubjects(existing.Subjects, group.Subjects)
	}

	return models.StudentRecord{
		Roll:        group.Roll,
		Email:       email,
		StudentType: group.StudentType(),
		Subjects:    subjects,
		UpdatedAt:   now,
	}
}
