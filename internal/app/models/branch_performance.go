package models

import "time"

// SubjectPerformance holds pass/fail counts for one subject within one branch
type SubjectPerformance struct {
	SubjectCode    string  `json:"subjectCode" dynamodbav:"subjectCode"`
	SubjectName    string  `json:"subjectName" dynamodbav:"subjectName"`
	TotalStudents  int     `json:"totalStudents" dynamodbav:"totalStudents"`
	Passed         int     `json:"passed" dynamodbav:"passed"`
	Failed         int     `json:"failed" dynamodbav:"failed"`
	PassPercentage float64 `json:"passPercentage" dynamodbav:"passPercentage"`
}

// BranchPerformance holds the Regular-student statistics of one branch
type BranchPerformance struct {
	BranchName     Branch               `json:"branchName" dynamodbav:"branchName"`
	TotalStudents  int                  `json:"totalStudents" dynamodbav:"totalStudents"`
	PassedStudents int                  `json:"passedStudents" dynamodbav:"passedStudents"`
	FailedStudents int                  `json:"failedStudents" dynamodbav:"failedStudents"`
	PassPercentage float64              `json:"passPercentage" dynamodbav:"passPercentage"`
	Subjects       []SubjectPerformance `json:"subjects" dynamodbav:"subjects"`
}

// BranchPerformanceRecord is the per-semester summary, replaced wholesale on every ingestion run
type BranchPerformanceRecord struct {
	Semester     string              `json:"semester" dynamodbav:"semester" example:"1-1"`
	AcademicYear string              `json:"academicYear" dynamodbav:"academicYear" example:"2025"`
	Branches     []BranchPerformance `json:"branches" dynamodbav:"branches"`
	LastUpdated  time.Time           `json:"lastUpdated" dynamodbav:"lastUpdated"`
}

// Branch returns the entry for name, or nil when the record does not track it
func (r *BranchPerformanceRecord) Branch(name Branch) *BranchPerformance {
	for i := range r.Branches {
		if r.Branches[i].BranchName == name {
			return &r.Branches[i]
		}
	}
	return nil
}
