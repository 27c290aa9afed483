package helpers

import (
	"github.com/yigit/resultsphere/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1 // pages are 1-based
)

// CalculateOffsetLimit turns a 1-based page into an SQL offset and limit.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	if size <= 0 || size > MaxPageSize {
		limit = DefaultPageSize
	} else {
		limit = size
	}
	if page < 1 {
		page = DefaultPage
	}
	offset = uint64((page - 1) * limit)
	return offset, limit
}

// NewPaginationInfo describes page of size out of totalItems.
// An empty result still reports one page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	_, size = CalculateOffsetLimit(page, size)
	if page < 1 {
		page = DefaultPage
	}

	totalPages := 1
	if totalItems > 0 {
		totalPages = int((totalItems + int64(size) - 1) / int64(size))
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}
