package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDefaults(t *testing.T) {
	p := Parse(url.Values{})

	assert.Empty(t, p.Search)
	assert.Equal(t, JoinAnd, p.SearchJoin)
	assert.Equal(t, "", p.OrderBy)
	assert.Equal(t, SortDesc, p.SortedBy)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestParseSearchTerms(t *testing.T) {
	values := url.Values{}
	values.Set("search", "name:algebra;grade:GRADE_10")
	values.Set("searchJoin", "or")

	p := Parse(values)

	assert.Equal(t, []Condition{
		{Field: "name", Value: "algebra"},
		{Field: "grade", Value: "GRADE_10"},
	}, p.Search)
	assert.Equal(t, JoinOr, p.SearchJoin)
}

func TestParseDropsMalformedTerms(t *testing.T) {
	values := url.Values{}
	values.Set("search", "name:;:10;noseparator;code:MATH")

	p := Parse(values)

	assert.Equal(t, []Condition{{Field: "code", Value: "MATH"}}, p.Search)
}

func TestParseSortDoesNotResetPage(t *testing.T) {
	values := url.Values{}
	values.Set("page", "4")
	values.Set("orderBy", "name")
	values.Set("sortedBy", "asc")

	p := Parse(values)

	assert.Equal(t, 4, p.Page)
	assert.Equal(t, "name", p.OrderBy)
	assert.Equal(t, SortAsc, p.SortedBy)

	// flipping the sort direction leaves pagination untouched
	values.Set("sortedBy", "desc")
	p = Parse(values)
	assert.Equal(t, 4, p.Page)
	assert.Equal(t, SortDesc, p.SortedBy)
}

func TestParseClampsLimit(t *testing.T) {
	values := url.Values{}
	values.Set("limit", "5000")

	p := Parse(values)

	assert.Equal(t, MaxLimit, p.Limit)
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, Limit: 20}
	assert.Equal(t, 40, p.Offset())

	p = Params{Page: 0, Limit: 20}
	assert.Equal(t, 0, p.Offset())
}

func TestCacheKeyStable(t *testing.T) {
	values := url.Values{}
	values.Set("search", "name:algebra")
	values.Set("page", "2")

	a := Parse(values)
	b := Parse(values)
	assert.Equal(t, a.CacheKey(), b.CacheKey())

	values.Set("page", "3")
	c := Parse(values)
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestBuildIgnoresUnknownColumns(t *testing.T) {
	cols := Columns{
		Searchable:  map[string]string{"name": "h.name"},
		Sortable:    map[string]string{"name": "h.name", "created_at": "h.created_at"},
		DefaultSort: "h.created_at",
	}

	p := Params{
		Search:     []Condition{{Field: "name", Value: "Main"}, {Field: "drop", Value: "x"}},
		SearchJoin: JoinAnd,
		OrderBy:    "capacity; DROP TABLE halls",
		SortedBy:   SortAsc,
		Page:       1,
		Limit:      20,
	}

	clause := cols.Build(p, 0)

	assert.Equal(t, "(LOWER(h.name::text) LIKE $1)", clause.Where)
	assert.Equal(t, []interface{}{"%main%"}, clause.Args)
	assert.Equal(t, "h.created_at ASC", clause.OrderBy)
}

func TestBuildPlaceholderOffset(t *testing.T) {
	cols := Columns{
		Searchable:  map[string]string{"name": "c.name", "grade": "c.grade"},
		DefaultSort: "c.created_at",
	}

	p := Params{
		Search:     []Condition{{Field: "name", Value: "Algebra"}, {Field: "grade", Value: "GRADE_10"}},
		SearchJoin: JoinOr,
		Limit:      10,
		Page:       2,
	}

	clause := cols.Build(p, 2)

	assert.Equal(t, "(LOWER(c.name::text) LIKE $3 OR LOWER(c.grade::text) LIKE $4)", clause.Where)
	assert.Len(t, clause.Args, 2)
	assert.Equal(t, 10, clause.Offset)
}
