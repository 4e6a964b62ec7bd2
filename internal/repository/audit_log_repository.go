package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/query"
)

var auditLogColumns = query.Columns{
	Searchable: map[string]string{
		"username": "l.username",
		"module":   "l.module",
		"method":   "l.method",
		"path":     "l.path",
		"status":   "l.status",
	},
	Sortable: map[string]string{
		"username":      "l.username",
		"module":        "l.module",
		"status":        "l.status",
		"response_time": "l.response_time",
		"created_at":    "l.created_at",
	},
	DefaultSort: "l.created_at",
}

// AuditLogRepository manages persistence for request audit logs.
type AuditLogRepository struct {
	db *sqlx.DB
}

// NewAuditLogRepository constructs an AuditLogRepository.
func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// List returns audit log rows matching the list params.
func (r *AuditLogRepository) List(ctx context.Context, params query.Params) ([]models.AuditLog, int, error) {
	clause := auditLogColumns.Build(params, 0)

	q := fmt.Sprintf("SELECT l.id, l.username, l.summary, l.module, l.method, l.path, l.status, l.response_time, l.created_at FROM audit_logs l WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	logs := []models.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_logs l WHERE %s", clause.Where)
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	return logs, total, nil
}

// Create inserts an audit log row. Called from the background queue, never
// from a request handler directly.
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	log.ID = uuid.NewString()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO audit_logs (id, username, summary, module, method, path, status, response_time, created_at)
        VALUES (:id, :username, :summary, :module, :method, :path, :status, :response_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
