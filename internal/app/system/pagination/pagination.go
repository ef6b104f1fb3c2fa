// Package pagination parses page/limit query parameters for list endpoints
// and builds the pagination block of list responses.
package pagination

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

const (
	// DefaultLimit is used when an endpoint does not choose its own.
	DefaultLimit = 20
	// MaxLimit caps the page size a client may request.
	MaxLimit = 100
	// MaxPage keeps (page-1)*limit within int64 for any accepted limit.
	MaxPage = math.MaxInt64 / MaxLimit
)

// Params is a 1-based page and a page size.
type Params struct {
	Page  int64
	Limit int64
}

// Skip returns the number of documents before the page. It saturates at
// math.MaxInt64 instead of overflowing.
func (p Params) Skip() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt64/p.Limit {
		return math.MaxInt64
	}
	return (p.Page - 1) * p.Limit
}

// FromRequest reads "page" and "limit". Missing or invalid values fall
// back to page 1 and defaultLimit; values above MaxPage and MaxLimit are
// clamped.
func FromRequest(r *http.Request, defaultLimit int64) Params {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	page := parseInt(query.Get(r, "page"), 1)
	limit := parseInt(query.Get(r, "limit"), defaultLimit)
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

func parseInt(raw string, def int64) int64 {
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// Meta is the "pagination" object of a list response.
type Meta struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewMeta computes Pages as ceil(total/limit).
func NewMeta(p Params, total int64) Meta {
	var pages int64
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// Slice returns the page of items described by p, plus the total count.
// It is the in-process counterpart of a skip/limit query.
func Slice[T any](items []T, p Params) ([]T, int64) {
	total := int64(len(items))
	start := p.Skip()
	if start < 0 || start >= total || p.Limit <= 0 {
		return []T{}, total
	}
	end := total
	if p.Limit < total-start {
		end = start + p.Limit
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, total
}
