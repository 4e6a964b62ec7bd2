package models

import "time"

// Role is a named permission holder. The key is derived from the name
// (lowercase, whitespace to underscores) and is what users reference.
type Role struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Key         string    `db:"key" json:"key"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ApiInfo is one authorized (method, path) pair in a role's authorization
// set. Saves replace the full set rather than diffing.
type ApiInfo struct {
	Method string `db:"method" json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE"`
	Path   string `db:"path" json:"path" validate:"required"`
}
