package filestorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yigit/resultsphere/internal/pkg/logger"
)

// LocalArchive saves grade sheets to the local filesystem.
type LocalArchive struct {
	basePath string // The root directory where files will be stored
}

// NewLocalArchive creates a new LocalArchive instance, creating basePath if needed.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create archive directory")
		return nil, fmt.Errorf("failed to create archive directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local archive directory ensured")

	return &LocalArchive{basePath: basePath}, nil
}

// Store writes the file to <basePath>/<semester>/<uuid><ext> and returns the relative key
func (la *LocalArchive) Store(ctx context.Context, semester, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(semester, filename)
	dstPath := la.GetFullPath(key)

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create semester directory")
		return "", fmt.Errorf("failed to create semester directory: %w", err)
	}

	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to write grade sheet")
		// Attempt to remove the partially written file
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Info().Str("filename", filename).Str("key", key).Int("bytes", len(data)).Msg("Grade sheet archived")
	return key, nil
}

// GetFullPath returns the filesystem path for a key returned by Store
func (la *LocalArchive) GetFullPath(key string) string {
	return filepath.Join(la.basePath, filepath.FromSlash(key))
}

// objectKey builds "<semester>/<uuid><ext>". The semester is reduced to a safe path segment.
func objectKey(semester, filename string) string {
	segment := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, semester)
	if segment == "" {
		segment = "unsorted"
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return segment + "/" + uuid.New().String() + ext
}
