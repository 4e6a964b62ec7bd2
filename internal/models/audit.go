package models

import "time"

// AuditLog records one handled API request. Rows are written by the audit
// middleware through the background queue and are read-only over HTTP.
type AuditLog struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Summary      string    `db:"summary" json:"summary"`
	Module       string    `db:"module" json:"module"`
	Method       string    `db:"method" json:"method"`
	Path         string    `db:"path" json:"path"`
	Status       int       `db:"status" json:"status"`
	ResponseTime float64   `db:"response_time" json:"response_time"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
