package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// ApiMethod enumerates the HTTP methods an Api catalog entry can declare.
type ApiMethod string

const (
	ApiMethodGet    ApiMethod = "GET"
	ApiMethodPost   ApiMethod = "POST"
	ApiMethodPut    ApiMethod = "PUT"
	ApiMethodPatch  ApiMethod = "PATCH"
	ApiMethodDelete ApiMethod = "DELETE"
)

// Api is one entry of the authorizable endpoint catalog. Roles are granted
// subsets of this catalog; the audit middleware also resolves module and
// summary for recorded requests from it.
type Api struct {
	ID        string         `db:"id" json:"id"`
	Path      string         `db:"path" json:"path"`
	Method    ApiMethod      `db:"method" json:"method"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	Summary   string         `db:"summary" json:"summary"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// NormalizeRoute maps both gin templates (/students/:id) and catalog
// templates (/students/{id}) onto a single comparable form. Authorization
// and audit metadata resolution both compare routes through it.
func NormalizeRoute(path string) string {
	if path == "" {
		return path
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			segments[i] = "{}"
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			segments[i] = "{}"
		}
	}
	return strings.TrimSuffix(strings.Join(segments, "/"), "/")
}
