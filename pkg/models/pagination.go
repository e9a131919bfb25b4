package models

import "time"

const (
	// APIPrefix is the path prefix under which every API route is mounted.
	APIPrefix = "/api/v1"

	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// DefaultRequestTimeout is the client-side timeout applied when a request
	// does not set one.
	DefaultRequestTimeout = 30 * time.Second
)

// PaginationParams are the page query parameters accepted by list endpoints.
// Absent parameters bind to the defaults; explicit out-of-range values,
// zero included, fail validation.
type PaginationParams struct {
	Page     int `form:"page,default=1" json:"page" binding:"min=1"`
	PageSize int `form:"pageSize,default=20" json:"pageSize" binding:"min=1,max=100"`
}

// Normalize fills zero values with the defaults.
func (p PaginationParams) Normalize() PaginationParams {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// Offset returns the number of items preceding the page.
func (p PaginationParams) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// Page is the paginated payload nested inside a success envelope.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPage builds a page for items out of total results.
func NewPage[T any](items []T, total int, params PaginationParams) Page[T] {
	params = params.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: TotalPages(total, params.PageSize),
	}
}

// TotalPages returns ceil(total / pageSize); zero results yield zero pages.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
