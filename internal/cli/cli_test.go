package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "resultctl dev\n", out)
}

func TestIngestRejectsInvalidSemester(t *testing.T) {
	_, err := execute(t, "ingest", "--file", "missing.pdf", "--semester", "5-3", "--store", "memory")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGradeSheetFormat)
}

func TestIngestMemoryStoreReportsUnreadablePDF(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret")
	dir := t.TempDir()
	file := filepath.Join(dir, "sheet.pdf")
	require.NoError(t, os.WriteFile(file, []byte("not a pdf"), 0o600))

	out, err := execute(t,
		"--config", filepath.Join(dir, "absent.yaml"),
		"ingest", "--file", file, "--semester", "1-1", "--store", "memory", "--notify=false",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGradeSheetFormat)
	assert.Contains(t, out, `"semester": "1-1"`)
	assert.Contains(t, out, `"success": false`)
}

func TestExtractRequiresFile(t *testing.T) {
	_, err := execute(t, "extract", "--file", filepath.Join(t.TempDir(), "absent.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read pdf")
}
