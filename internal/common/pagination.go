package common

import (
	"net/http"
	"strconv"
	"strings"
)

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalItems int    `json:"total_items"`
	TotalPages int    `json:"total_pages"`
	Sort       string `json:"sort,omitempty"`
	Direction  string `json:"direction,omitempty"`
}

// NewPagination fills in TotalPages from the item count.
func NewPagination(page, perPage, totalItems int) Pagination {
	pages := 0
	if perPage > 0 {
		pages = (totalItems + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, TotalItems: totalItems, TotalPages: pages}
}

// ParsePagination extracts the 1-based page and the page size from query values.
// The size is read from "size" and falls back to the legacy "limit" parameter; it is
// capped at maxPerPage when that is positive.
func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) (page, perPage int, err error) {
	q := r.URL.Query()
	page = 1
	perPage = defaultPerPage
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		p, convErr := strconv.Atoi(raw)
		if convErr != nil || p < 1 {
			return 0, 0, BadRequest("page", "page must be a positive integer", convErr)
		}
		page = p
	}
	raw := strings.TrimSpace(q.Get("size"))
	if raw == "" {
		raw = strings.TrimSpace(q.Get("limit"))
	}
	if raw != "" {
		l, convErr := strconv.Atoi(raw)
		if convErr != nil || l < 1 {
			return 0, 0, BadRequest("size", "size must be a positive integer", convErr)
		}
		perPage = l
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, nil
}
