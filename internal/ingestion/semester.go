package ingestion

import (
	"fmt"
	"regexp"
	"strings"
)

var semesterPattern = regexp.MustCompile(`^[1-4]-[12]$`)

// Semester is a validated semester token such as "1-1" (year-term).
type Semester struct {
	token string
}

// ParseSemester validates a semester token. Anything other than year 1-4 and term 1-2 is a FormatError.
func ParseSemester(raw string) (Semester, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return Semester{}, &FormatError{Reason: "semester is required"}
	}
	if !semesterPattern.MatchString(token) {
		return Semester{}, &FormatError{Reason: fmt.Sprintf("semester %q must look like 1-1 .. 4-2", raw)}
	}
	return Semester{token: token}, nil
}

// MustParseSemester is ParseSemester for compile-time constants.
func MustParseSemester(raw string) Semester {
	s, err := ParseSemester(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Semester) String() string {
	return s.token
}

// IsZero reports whether the semester was never parsed.
func (s Semester) IsZero() bool {
	return s.token == ""
}

// Collection is the per-semester storage name, e.g. "semester_1_1".
func (s Semester) Collection() string {
	return "semester_" + strings.ReplaceAll(s.token, "-", "_")
}

// KnownSemesters returns every semester of the four-year programme in order.
func KnownSemesters() []Semester {
	out := make([]Semester, 0, 8)
	for year := 1; year <= 4; year++ {
		for term := 1; term <= 2; term++ {
			out = append(out, Semester{token: fmt.Sprintf("%d-%d", year, term)})
		}
	}
	return out
}
