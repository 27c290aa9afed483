package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yigit/resultsphere/internal/app/models"
)

// rollMarker is present in every genuine roll number and absent from continuation rows.
const rollMarker = "HN"

// branchDigitIndex is the fixed position of the branch digit inside a roll number.
const branchDigitIndex = 7

var regulationPattern = regexp.MustCompile(`^R\d{2}`)

var failingGrades = map[string]struct{}{
	"F":      {},
	"ABSENT": {},
	"MP":     {},
}

// NormalizedRow is a validated subject result together with the student it belongs to.
type NormalizedRow struct {
	Roll       string
	Branch     models.Branch
	Regulation string
	Subject    models.SubjectRecord
}

// NormalizeRow turns one raw data row into a subject result. Rejections come back as *RowError.
func NormalizeRow(index int, raw any, header Header) (NormalizedRow, error) {
	cells, ok := asCells(raw)
	if !ok {
		return NormalizedRow{}, &RowError{Index: index, Reason: ReasonNotTabular}
	}

	offset := header.Offset()
	roll := strings.TrimSpace(CellString(cellAt(cells, offset)))
	if !strings.Contains(roll, rollMarker) {
		return NormalizedRow{}, &RowError{Index: index, Reason: ReasonMissingRoll, Detail: roll}
	}

	grade := strings.ToUpper(strings.TrimSpace(CellString(cellAt(cells, offset+4))))
	subject := models.SubjectRecord{
		SubjectCode: strings.TrimSpace(CellString(cellAt(cells, offset+1))),
		SubjectName: strings.TrimSpace(CellString(cellAt(cells, offset+2))),
		Internal:    ParseInt(cellAt(cells, offset+3)),
		Grade:       grade,
		Credits:     ParseFloat(cellAt(cells, offset+5)),
		Status:      StatusFromGrade(grade),
	}

	if err := ValidateSubject(subject); err != nil {
		return NormalizedRow{}, &RowError{
			Index:  index,
			Reason: ReasonInvalidSubject,
			Detail: fmt.Sprintf("%s: %v", roll, err),
		}
	}

	return NormalizedRow{
		Roll:       roll,
		Branch:     BranchFromRoll(roll),
		Regulation: RegulationFromCode(subject.SubjectCode),
		Subject:    subject,
	}, nil
}

// StatusFromGrade is Fail for F, ABSENT and MP, Pass for every other grade.
func StatusFromGrade(grade string) models.SubjectStatus {
	if _, failed := failingGrades[strings.ToUpper(strings.TrimSpace(grade))]; failed {
		return models.StatusFail
	}
	return models.StatusPass
}

// ValidateSubject checks a coerced subject record.
func ValidateSubject(s models.SubjectRecord) error {
	if s.SubjectCode == "" {
		return fmt.Errorf("subject code is empty")
	}
	if !strings.HasPrefix(s.SubjectCode, "R") {
		return fmt.Errorf("subject code %q is not regulation prefixed", s.SubjectCode)
	}
	if s.SubjectName == "" {
		return fmt.Errorf("subject name is empty")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("unknown status %q", s.Status)
	}
	return nil
}

// BranchFromRoll maps the digit at index 7 of the roll to a branch.
// Rolls too short to carry that digit are UNKNOWN.
func BranchFromRoll(roll string) models.Branch {
	if len(roll) <= branchDigitIndex {
		return models.BranchUnknown
	}
	switch roll[branchDigitIndex] {
	case '1':
		return models.BranchCivil
	case '2':
		return models.BranchEEE
	case '3':
		return models.BranchMech
	case '4':
		return models.BranchECE
	case '5':
		return models.BranchCSE
	default:
		return models.BranchUnknown
	}
}

// RegulationFromCode extracts the curriculum prefix ("R20") of a subject code, or "Unknown".
func RegulationFromCode(code string) string {
	if m := regulationPattern.FindString(code); m != "" {
		return m
	}
	return "Unknown"
}
