package query

import (
	"fmt"
	"strings"
)

// Columns is the per-resource registry mapping exposed field names to SQL
// column expressions. Only registered fields are searchable or sortable;
// anything else is ignored rather than interpolated into SQL.
type Columns struct {
	Searchable map[string]string
	Sortable   map[string]string
	// DefaultSort is the ORDER BY fallback, e.g. "s.created_at".
	DefaultSort string
}

// Clause is the rendered SQL fragment set for a list query.
type Clause struct {
	Where   string
	Args    []interface{}
	OrderBy string
	Limit   int
	Offset  int
}

// Build renders Params against the column registry. Placeholders start at
// $argStart+1 so callers can prepend their own bound arguments.
func (c Columns) Build(p Params, argStart int) Clause {
	clause := Clause{
		Where:  "1=1",
		Limit:  p.Limit,
		Offset: p.Offset(),
	}
	if clause.Limit <= 0 || clause.Limit > MaxLimit {
		clause.Limit = DefaultLimit
	}

	var terms []string
	for _, cond := range p.Search {
		column, ok := c.Searchable[cond.Field]
		if !ok {
			continue
		}
		argStart++
		terms = append(terms, fmt.Sprintf("LOWER(%s::text) LIKE $%d", column, argStart))
		clause.Args = append(clause.Args, "%"+strings.ToLower(cond.Value)+"%")
	}
	if len(terms) > 0 {
		join := " AND "
		if p.SearchJoin == JoinOr {
			join = " OR "
		}
		clause.Where = "(" + strings.Join(terms, join) + ")"
	}

	column, ok := c.Sortable[p.OrderBy]
	if !ok {
		column = c.DefaultSort
	}
	direction := "DESC"
	if p.SortedBy == SortAsc {
		direction = "ASC"
	}
	clause.OrderBy = column + " " + direction

	return clause
}
