package query

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit applies when the client sends no limit.
	DefaultLimit = 20
	// MaxLimit caps the page size regardless of what the client asks for.
	MaxLimit = 100

	SortAsc  = "asc"
	SortDesc = "desc"

	JoinAnd = "and"
	JoinOr  = "or"
)

// Condition is a single field:value search term.
type Condition struct {
	Field string
	Value string
}

// Params captures the uniform list parameters every collection endpoint
// accepts: search, searchJoin, orderBy, sortedBy, page, limit.
// Pagination and sorting are independent: parsing never resets one based
// on the other.
type Params struct {
	Search     []Condition
	SearchJoin string
	OrderBy    string
	SortedBy   string
	Page       int
	Limit      int
}

// Parse reads list parameters from a URL query.
//
// The search parameter uses the `field:value;field2:value2` form. Malformed
// terms (no colon, empty field or value) are dropped rather than rejected.
func Parse(values url.Values) Params {
	p := Params{
		SearchJoin: JoinAnd,
		SortedBy:   SortDesc,
		Page:       1,
		Limit:      DefaultLimit,
	}

	for _, term := range strings.Split(values.Get("search"), ";") {
		field, value, ok := strings.Cut(term, ":")
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		if !ok || field == "" || value == "" {
			continue
		}
		p.Search = append(p.Search, Condition{Field: field, Value: value})
	}

	if join := strings.ToLower(values.Get("searchJoin")); join == JoinOr {
		p.SearchJoin = JoinOr
	}

	p.OrderBy = strings.TrimSpace(values.Get("orderBy"))
	if sorted := strings.ToLower(values.Get("sortedBy")); sorted == SortAsc {
		p.SortedBy = SortAsc
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		p.Limit = limit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	return p
}

// Offset returns the SQL offset for the current page.
func (p Params) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit
}

// CacheKey renders the params into a stable cache key fragment, so equal
// params always hit the same cached page.
func (p Params) CacheKey() string {
	var b strings.Builder
	for i, cond := range p.Search {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(cond.Field)
		b.WriteByte(':')
		b.WriteString(cond.Value)
	}
	return strings.Join([]string{
		b.String(),
		p.SearchJoin,
		p.OrderBy,
		p.SortedBy,
		strconv.Itoa(p.Page),
		strconv.Itoa(p.Limit),
	}, "|")
}
