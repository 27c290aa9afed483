package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent RoleType = "STUDENT"
	RoleAdmin   RoleType = "ADMIN"
)

// SubjectStatus is the pass/fail outcome of one subject
type SubjectStatus string

const (
	StatusPass SubjectStatus = "Pass"
	StatusFail SubjectStatus = "Fail"
)

// Valid reports whether the status is one of the two known values
func (s SubjectStatus) Valid() bool {
	return s == StatusPass || s == StatusFail
}

// StudentType classifies a student's record by subject count
type StudentType string

const (
	StudentTypeRegular       StudentType = "Regular"
	StudentTypeSupplementary StudentType = "Supplementary"
)

// Branch is an academic department encoded in the roll number
type Branch string

const (
	BranchCivil   Branch = "CIVIL"
	BranchEEE     Branch = "EEE"
	BranchMech    Branch = "MECH"
	BranchECE     Branch = "ECE"
	BranchCSE     Branch = "CSE"
	BranchUnknown Branch = "UNKNOWN"
)

// TrackedBranches lists the branches that appear in branch performance summaries, in report order.
// UNKNOWN is only used to classify records.
var TrackedBranches = []Branch{BranchCivil, BranchEEE, BranchMech, BranchECE, BranchCSE}
