package shared

import (
	"net/url"
	"strconv"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PageRequest holds the page/pageSize pair parsed from a listing query.
type PageRequest struct {
	Page     int
	PageSize int
}

// ParsePageRequest reads page and pageSize, clamping page to >= 1 and
// pageSize to 1..100. Missing or garbage values fall back to 1 and 10.
func ParsePageRequest(q url.Values) PageRequest {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(q.Get("pageSize"))
	if err != nil {
		size = defaultPageSize
	}
	if size < 1 {
		size = 1
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return PageRequest{Page: page, PageSize: size}
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is the listing envelope shared by paginated endpoints.
type Page[T any] struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
	Data     []T `json:"data"`
}
