package common

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Pagination is the pagination block of list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination fills in the derived page count.
func NewPagination(page, perPage, total int) Pagination {
	pages := 0
	if perPage > 0 && total > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, TotalItems: total, TotalPages: pages}
}

// PageRequest is a validated page and limit pair.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset is the number of rows preceding the page.
func (p PageRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Describe builds the response block for a page out of total rows.
func (p PageRequest) Describe(total int64) Pagination {
	return NewPagination(p.Page, p.Limit, int(total))
}

// PageFromQuery reads page and limit from query values. Absent values take
// page 1 and defaultLimit; a limit above maxLimit is clamped. Malformed or
// non-positive values are a 400 BAD_REQUEST naming the field.
func PageFromQuery(values url.Values, defaultLimit, maxLimit int) (PageRequest, error) {
	req := PageRequest{Page: 1, Limit: defaultLimit}
	var err error
	if req.Page, err = positiveParam(values, "page", req.Page); err != nil {
		return PageRequest{}, err
	}
	if req.Limit, err = positiveParam(values, "limit", req.Limit); err != nil {
		return PageRequest{}, err
	}
	if maxLimit > 0 {
		req.Limit = min(req.Limit, maxLimit)
	}
	return req, nil
}

func positiveParam(values url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &AppError{
			Code:       "BAD_REQUEST",
			Message:    name + " must be a positive integer",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
			Details:    map[string]any{"field": name},
		}
	}
	return n, nil
}
