// Package paging parses and applies offset pagination for list endpoints.
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultPageSize is used when the request has no usable limit.
	DefaultPageSize = 10
	// MaxPageSize bounds any requested limit.
	MaxPageSize = 100
)

// Params is a 1-based page number with its size.
type Params struct {
	Page     int
	PageSize int
}

// Parse reads "page" and "limit" from the query string. Missing or
// non-numeric values fall back to page 1 and def; sizes above max are
// clamped to max. Non-positive def or max use the package defaults.
func Parse(r *http.Request, def, max int) Params {
	if max <= 0 {
		max = MaxPageSize
	}
	if def <= 0 || def > max {
		def = min(DefaultPageSize, max)
	}
	return Normalize(atoi(query.Get(r, "page")), atoi(query.Get(r, "limit")), def, max)
}

// Normalize applies the same defaults and clamping as Parse to raw values.
func Normalize(page, size, def, max int) Params {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = def
	}
	if size > max {
		size = max
	}
	if last := lastPage(size); page > last {
		page = last
	}
	return Params{Page: page, PageSize: size}
}

// lastPage is the highest page whose skip still fits in an int64.
func lastPage(size int) int {
	n := int64(math.MaxInt64) / int64(size)
	if n > int64(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Skip is the number of documents before this page. It saturates rather
// than overflow for Params built without Normalize.
func (p Params) Skip() int64 {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if int64(p.Page-1) > math.MaxInt64/int64(p.PageSize) {
		return math.MaxInt64
	}
	return int64(p.Page-1) * int64(p.PageSize)
}

// Apply sets skip and limit on a Find.
func (p Params) Apply(find *options.FindOptions) *options.FindOptions {
	return find.SetSkip(p.Skip()).SetLimit(int64(p.PageSize))
}

// TotalPages is ceil(total/pageSize); zero when there are no documents.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
