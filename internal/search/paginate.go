package search

import "github.com/eduportal/oferta-api/internal/models"

// Engine-level pagination defaults. Configuration may tighten MaxLimit but
// the engine never serves more rows per page than this.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampPage normalises a requested page number; zero and negatives become
// the first page.
func ClampPage(page int) int {
	if page < 1 {
		return DefaultPage
	}
	return page
}

// ClampLimit normalises a requested page size into [1, max]. Absent (zero
// or negative) values take the default.
func ClampLimit(limit, max int) int {
	if max <= 0 {
		max = MaxLimit
	}
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}

// Offset returns the row offset for a clamped page and limit.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// Paginate computes the pagination block for a result page. Requesting a
// page past the last is not an error; it yields hasNext=false and the
// caller sees an empty row list.
func Paginate(page, limit, total int) models.Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
