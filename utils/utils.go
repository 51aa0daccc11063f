package utils

import (
	"math"
	"strconv"

	"stockcast/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParsePageParams reads page and pageSize query values, falling back to defaults
// for missing or invalid input and capping the page size.
func ParsePageParams(pageStr, pageSizeStr string) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		page = 1 // Default page
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// CreatePagination creates the pagination block of a paginated response.
func CreatePagination(totalItems, page, pageSize int) models.PaginationInfo {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))

	return models.PaginationInfo{
		TotalItems:  totalItems,
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
	}
}
