package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/query"
)

var apiColumns = query.Columns{
	Searchable: map[string]string{
		"path":    "a.path",
		"method":  "a.method",
		"summary": "a.summary",
	},
	Sortable: map[string]string{
		"path":       "a.path",
		"method":     "a.method",
		"created_at": "a.created_at",
	},
	DefaultSort: "a.path",
}

const apiSelect = "SELECT a.id, a.path, a.method, a.tags, a.summary, a.created_at, a.updated_at FROM apis a"

// ApiRepository manages the authorizable endpoint catalog.
type ApiRepository struct {
	db *sqlx.DB
}

// NewApiRepository constructs an ApiRepository.
func NewApiRepository(db *sqlx.DB) *ApiRepository {
	return &ApiRepository{db: db}
}

// List returns catalog entries matching the list params.
func (r *ApiRepository) List(ctx context.Context, params query.Params) ([]models.Api, int, error) {
	clause := apiColumns.Build(params, 0)

	q := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		apiSelect, clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	apis := []models.Api{}
	if err := r.db.SelectContext(ctx, &apis, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list apis: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM apis a WHERE %s", clause.Where)
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count apis: %w", err)
	}
	return apis, total, nil
}

// ListAll returns the full catalog, for the role authorization screen and
// audit metadata resolution.
func (r *ApiRepository) ListAll(ctx context.Context) ([]models.Api, error) {
	apis := []models.Api{}
	if err := r.db.SelectContext(ctx, &apis, apiSelect+" ORDER BY a.path, a.method"); err != nil {
		return nil, fmt.Errorf("list all apis: %w", err)
	}
	return apis, nil
}

// FindByID fetches a catalog entry by id.
func (r *ApiRepository) FindByID(ctx context.Context, id string) (*models.Api, error) {
	var api models.Api
	if err := r.db.GetContext(ctx, &api, apiSelect+" WHERE a.id = $1", id); err != nil {
		return nil, err
	}
	return &api, nil
}

// ExistsByMethodPath reports whether a (method, path) pair is already
// catalogued, excluding the id when updating.
func (r *ApiRepository) ExistsByMethodPath(ctx context.Context, method, path, excludeID string) (bool, error) {
	var id string
	err := r.db.GetContext(ctx, &id, "SELECT id FROM apis WHERE method = $1 AND path = $2 AND id <> $3", method, path, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check api: %w", err)
	}
	return true, nil
}

// Create inserts a catalog entry.
func (r *ApiRepository) Create(ctx context.Context, api *models.Api) error {
	api.ID = uuid.NewString()
	now := time.Now().UTC()
	api.CreatedAt = now
	api.UpdatedAt = now

	const q = `INSERT INTO apis (id, path, method, tags, summary, created_at, updated_at)
        VALUES (:id, :path, :method, :tags, :summary, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, api); err != nil {
		return fmt.Errorf("create api: %w", err)
	}
	return nil
}

// Update rewrites a catalog entry.
func (r *ApiRepository) Update(ctx context.Context, api *models.Api) error {
	api.UpdatedAt = time.Now().UTC()

	const q = `UPDATE apis SET path = :path, method = :method, tags = :tags, summary = :summary, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, q, api)
	if err != nil {
		return fmt.Errorf("update api: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a catalog entry and any role grants pointing at it.
func (r *ApiRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete api: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const clearGrants = `DELETE FROM role_apis WHERE (method, path) IN (SELECT method, path FROM apis WHERE id = $1)`
	if _, err := tx.ExecContext(ctx, clearGrants, id); err != nil {
		return fmt.Errorf("clear api grants: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM apis WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete api: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
