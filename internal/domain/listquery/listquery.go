// Package listquery turns untrusted list parameters into a validated query and
// shapes paginated results.
package listquery

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Raw holds list parameters exactly as they arrive on the query string.
type Raw struct {
	Search  string `form:"search"`
	PerPage string `form:"per_page"`
	Sort    string `form:"sort"`
	Order   string `form:"order"`
	Page    string `form:"page"`
}

// Query is the normalized form of Raw. Every field holds an allowed value.
type Query struct {
	Search  string    `json:"search"`
	PerPage int       `json:"per_page"`
	Sort    string    `json:"sort"`
	Order   SortOrder `json:"order"`
	Page    int       `json:"page"`
}

// Options describes the allow-lists for one listing. An empty SortFields means
// the sort is fixed to DefaultSort/DefaultOrder and ignores the request.
type Options struct {
	PerPageOptions []int
	DefaultPerPage int
	SortFields     []string
	DefaultSort    string
	DefaultOrder   SortOrder
}

var (
	Domains = Options{
		PerPageOptions: []int{5, 10, 25, 50, 100},
		DefaultPerPage: 10,
		SortFields:     []string{"name", "privilege", "created_at"},
		DefaultSort:    "name",
		DefaultOrder:   Asc,
	}

	Storages = Options{
		PerPageOptions: []int{10, 25, 50, 100},
		DefaultPerPage: 10,
		DefaultSort:    "size",
		DefaultOrder:   Asc,
	}

	Users = Options{
		PerPageOptions: []int{10, 25, 50, 100},
		DefaultPerPage: 10,
		SortFields:     []string{"name", "email", "created_at"},
		DefaultSort:    "name",
		DefaultOrder:   Asc,
	}

	AuditLogs = Options{
		PerPageOptions: []int{20},
		DefaultPerPage: 20,
		DefaultSort:    "created_at",
		DefaultOrder:   Desc,
	}
)

// Normalize never fails: out-of-range values fall back to the defaults.
func (o Options) Normalize(raw Raw) Query {
	q := Query{
		Search:  strings.TrimSpace(raw.Search),
		PerPage: o.DefaultPerPage,
		Sort:    o.DefaultSort,
		Order:   o.DefaultOrder,
		Page:    1,
	}
	if q.Order == "" {
		q.Order = Asc
	}

	if n, err := strconv.Atoi(strings.TrimSpace(raw.PerPage)); err == nil && slices.Contains(o.PerPageOptions, n) {
		q.PerPage = n
	}

	if len(o.SortFields) > 0 {
		if field := strings.TrimSpace(raw.Sort); slices.Contains(o.SortFields, field) {
			q.Sort = field
		}
		q.Order = ParseOrder(raw.Order)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(raw.Page)); err == nil && n > 1 {
		q.Page = min(n, maxPage(q.PerPage))
	}

	return q
}

// maxPage keeps (Page-1)*perPage inside int. Anything beyond it is already
// past the last page of any real table.
func maxPage(perPage int) int {
	if perPage < 1 {
		perPage = 1
	}
	return math.MaxInt/perPage - 1
}

// ParseOrder accepts asc/desc in any case and falls back to Asc.
func ParseOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case Desc:
		return Desc
	default:
		return Asc
	}
}

// Offset is the number of rows skipped before the current page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// Page is one slice of a listing plus the metadata a paginator needs.
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// NewPage wraps items fetched for q. From/To are 1-based and both 0 when the
// page holds nothing, including pages past LastPage.
func NewPage[T any](items []T, q Query, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}

	lastPage := 1
	if q.PerPage > 0 && total > 0 {
		lastPage = int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	}

	p := Page[T]{
		Data:        items,
		CurrentPage: q.Page,
		PerPage:     q.PerPage,
		Total:       total,
		LastPage:    lastPage,
	}
	if len(items) > 0 {
		p.From = q.Offset() + 1
		p.To = q.Offset() + len(items)
	}
	return p
}

// EscapeLike escapes LIKE wildcards so search text matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Contains builds a substring LIKE pattern for s.
func Contains(s string) string {
	return "%" + EscapeLike(s) + "%"
}
