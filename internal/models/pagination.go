package models

// Pagination defaults and caps applied to all list endpoints.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageParams are normalized paging inputs.
type PageParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NormalizePageParams clamps raw query values into valid paging inputs.
func NormalizePageParams(page, limit int) PageParams {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageParams{Page: page, Limit: limit}
}

// Normalize clamps the params into valid paging inputs.
func (p PageParams) Normalize() PageParams {
	return NormalizePageParams(p.Page, p.Limit)
}

// Offset returns the row offset for the current page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta is the pagination block carried by every paginated response.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPageMeta derives the pagination block from params and a total row count.
func NewPageMeta(p PageParams, total int64) PageMeta {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return PageMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1 && total > 0,
	}
}

// Paginated pairs a result slice with its pagination block.
type Paginated[T any] struct {
	Items      []T      `json:"items"`
	Pagination PageMeta `json:"pagination"`
}
