package utils

import "math"

// PaginationMeta holds pagination response metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

// NormalizePage clamps page to the first page
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// CalculateMeta generates pagination metadata for a fixed page size.
// A non-positive limit means everything fits on one page.
func CalculateMeta(totalCount int64, page, limit int) PaginationMeta {
	if totalCount < 0 {
		totalCount = 0
	}
	if limit <= 0 {
		return PaginationMeta{
			Page:       1,
			Limit:      int(totalCount),
			TotalCount: totalCount,
			TotalPages: 1,
		}
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(limit)))

	return PaginationMeta{
		Page:       NormalizePage(page),
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
