package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

func TestParseSemester(t *testing.T) {
	sem, err := ParseSemester(" 3-2 ")
	require.NoError(t, err)
	assert.Equal(t, "3-2", sem.String())
	assert.Equal(t, "semester_3_2", sem.Collection())
	assert.False(t, sem.IsZero())

	for _, raw := range []string{"", "  ", "5-1", "1-3", "0-1", "1_1", "11", "1-1-1", "all"} {
		_, err := ParseSemester(raw)
		assert.ErrorIs(t, err, apperrors.ErrGradeSheetFormat, "token %q", raw)
	}
}

func TestKnownSemesters(t *testing.T) {
	known := KnownSemesters()
	require.Len(t, known, 8)
	assert.Equal(t, "1-1", known[0].String())
	assert.Equal(t, "4-2", known[7].String())
	for _, s := range known {
		_, err := ParseSemester(s.String())
		assert.NoError(t, err)
	}
}

func TestMustParseSemesterPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseSemester("9-9") })
}
