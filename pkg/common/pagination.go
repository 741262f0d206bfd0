package common

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// PaginationParams is an offset window over a ranked list.
type PaginationParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PaginationInfo describes the window that was returned.
type PaginationInfo struct {
	Limit    int  `json:"limit"`
	Offset   int  `json:"offset"`
	Returned int  `json:"returned"`
	Total    int  `json:"total"`
	HasMore  bool `json:"has_more"`
}

// ExtractPaginationParams reads limit and offset. Missing or malformed
// values fall back to the defaults; limit is capped at MaxLimit.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: DefaultLimit}
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		params.Limit = min(v, MaxLimit)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		params.Offset = v
	}
	return params
}

// BuildPaginationMeta reports the window out of total matches.
func BuildPaginationMeta(p PaginationParams, returned, total int) *PaginationInfo {
	return &PaginationInfo{
		Limit:    p.Limit,
		Offset:   p.Offset,
		Returned: returned,
		Total:    total,
		HasMore:  p.Offset+returned < total,
	}
}
