// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Pager holds prev/next paging data for listings whose total size is unknown.
// The caller fetches PerPage+1 rows; the extra row only signals a next page.
type Pager struct {
	Page    int
	PerPage int
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
}

// BuildPager creates paging data for the given page.
// fetched is the number of rows returned for a PerPage+1 request.
// queryParams are the current query parameters to preserve (e.g., filters).
func BuildPager(page, perPage, fetched int, baseURL string, queryParams url.Values) Pager {
	if page < 1 {
		page = 1
	}
	p := Pager{
		Page:    page,
		PerPage: perPage,
		HasPrev: page > 1,
		HasNext: fetched > perPage,
	}

	buildURL := func(n int) string {
		params := make(url.Values)
		for k, v := range queryParams {
			if k != "page" && len(v) > 0 && v[0] != "" {
				params[k] = v
			}
		}
		if n > 1 {
			params.Set("page", strconv.Itoa(n))
		}
		if len(params) == 0 {
			return baseURL
		}
		return fmt.Sprintf("%s?%s", baseURL, params.Encode())
	}

	if p.HasPrev {
		p.PrevURL = buildURL(page - 1)
	}
	if p.HasNext {
		p.NextURL = buildURL(page + 1)
	}
	return p
}

// Offset returns the row offset of the first item on the current page.
func (p Pager) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// ShouldShow returns true if paging controls should be displayed.
func (p Pager) ShouldShow() bool {
	return p.HasPrev || p.HasNext
}

// Visible trims a PerPage+1 result down to the rows shown on the page.
func Visible[T any](rows []T, perPage int) []T {
	if perPage >= 0 && len(rows) > perPage {
		return rows[:perPage]
	}
	return rows
}

// ParsePageParam parses the "page" query parameter from the request.
// Returns 1 if the parameter is missing, empty, or invalid.
func ParsePageParam(r *http.Request) int {
	return ParseIntParam(r, "page", 1, 1, 0)
}

// ParseIntParam parses an integer query parameter from the request.
// Returns defaultVal if the parameter is missing, empty, or invalid.
// If minVal > 0, values below minVal return defaultVal.
// If maxVal > 0, values above maxVal return defaultVal.
func ParseIntParam(r *http.Request, param string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(param)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if minVal > 0 && val < minVal {
		return defaultVal
	}
	if maxVal > 0 && val > maxVal {
		return defaultVal
	}
	return val
}
