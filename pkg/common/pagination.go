package common

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// PageParams selects a window over an ordered listing. Listings keep
// their natural order (boards by creation, messages chronologically),
// so there is no sort control here.
type PageParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ExtractPageParams reads page/page_size query parameters, falling back
// to defaults and clamping oversized requests.
func ExtractPageParams(r *http.Request) PageParams {
	params := PageParams{Page: 1, PageSize: defaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 {
			params.Page = p
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if ps, err := strconv.Atoi(raw); err == nil && ps > 0 {
			if ps > maxPageSize {
				ps = maxPageSize
			}
			params.PageSize = ps
		}
	}

	return params
}

// Window returns the half-open index range [start, end) this page covers
// for a listing of the given length. A page past the end yields an empty
// range rather than an error.
func (p PageParams) Window(total int) (int, int) {
	start := (p.Page - 1) * p.PageSize
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	return start, end
}

// Meta describes the window that was served.
func (p PageParams) Meta(total int) *PaginationInfo {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}
	return &PaginationInfo{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}
