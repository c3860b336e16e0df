// Package pagination turns raw page/limit query input into a clamped offset window
// and publishes the resolved window as response headers.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

const (
	FirstPage       = 1
	DefaultMinLimit = 10
	DefaultMaxLimit = 100
)

// Bounds limits the page size. The zero value means the defaults.
type Bounds struct {
	MinLimit int
	MaxLimit int
}

func (b Bounds) normalize() Bounds {
	if b.MinLimit < 1 {
		b.MinLimit = DefaultMinLimit
	}
	if b.MaxLimit < 1 {
		b.MaxLimit = DefaultMaxLimit
	}
	if b.MaxLimit < b.MinLimit {
		b.MaxLimit = b.MinLimit
	}
	return b
}

// Pagination is the effective window for one list request. Total is filled in after counting.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
	Total int `json:"total"`
}

// Resolve clamps page to >= 1 and limit into [MinLimit, MaxLimit]. Pages whose offset would not fit
// in an int are capped at the last representable one. Out-of-range input is never an error.
func Resolve(page, limit int, b Bounds) Pagination {
	b = b.normalize()
	if page < FirstPage {
		page = FirstPage
	}
	if limit < b.MinLimit {
		limit = b.MinLimit
	}
	if limit > b.MaxLimit {
		limit = b.MaxLimit
	}
	// keep Skip representable; such a page is past any real collection anyway
	if last := math.MaxInt/limit + 1; page > last {
		page = last
	}
	return Pagination{Page: page, Limit: limit, Skip: (page - 1) * limit}
}

// Parse resolves raw query strings. Absent or non-numeric values fall back to page=1, limit=MinLimit.
func Parse(rawPage, rawLimit string, b Bounds) Pagination {
	b = b.normalize()
	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil {
		page = FirstPage
	}
	limit, err := strconv.Atoi(strings.TrimSpace(rawLimit))
	if err != nil {
		limit = b.MinLimit
	}
	return Resolve(page, limit, b)
}
