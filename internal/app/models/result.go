package models

import "time"

// SubjectRecord is one subject's result for one student in one semester
type SubjectRecord struct {
	SubjectCode string        `json:"subjectCode" dynamodbav:"subjectCode" example:"R20CS101"`
	SubjectName string        `json:"subjectName" dynamodbav:"subjectName" example:"Data Structures"`
	Internal    int           `json:"internal" dynamodbav:"internal" example:"18"`
	Grade       string        `json:"grade" dynamodbav:"grade" example:"A"`
	Credits     float64       `json:"credits" dynamodbav:"credits" example:"3"`
	Status      SubjectStatus `json:"status" dynamodbav:"status" example:"Pass"`
}

// StudentRecord is one student's full result within one semester
type StudentRecord struct {
	Roll        string          `json:"roll" dynamodbav:"roll" example:"20HN1A0501"`
	Email       string          `json:"email" dynamodbav:"email"`
	StudentType StudentType     `json:"studentType" dynamodbav:"studentType" example:"Regular"`
	Subjects    []SubjectRecord `json:"subjects" dynamodbav:"subjects"`
	UpdatedAt   time.Time       `json:"updatedAt" dynamodbav:"updatedAt"`
}

// PassedCount returns how many subjects in the record have status Pass
func (r *StudentRecord) PassedCount() int {
	n := 0
	for _, s := range r.Subjects {
		if s.Status == StatusPass {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so callers can hand the record to another goroutine safely
func (r StudentRecord) Clone() StudentRecord {
	out := r
	out.Subjects = append([]SubjectRecord(nil), r.Subjects...)
	return out
}

// SemesterResult pairs a semester token with the student's record for it
type SemesterResult struct {
	Semester string         `json:"semester" example:"1-1"`
	Record   *StudentRecord `json:"results"`
}
