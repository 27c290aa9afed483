package filestorage

import (
	"context"
)

// Archive keeps a copy of every uploaded grade sheet
type Archive interface {
	// Store saves data under the semester and returns the key it was stored as
	Store(ctx context.Context, semester, filename string, data []byte) (string, error)
}

// NopArchive discards everything. It is used when archiving is disabled.
type NopArchive struct{}

// Store implements Archive
func (NopArchive) Store(context.Context, string, string, []byte) (string, error) {
	return "", nil
}
