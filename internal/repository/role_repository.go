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

var roleColumns = query.Columns{
	Searchable: map[string]string{
		"name": "r.name",
		"key":  "r.key",
	},
	Sortable: map[string]string{
		"name":       "r.name",
		"key":        "r.key",
		"created_at": "r.created_at",
	},
	DefaultSort: "r.name",
}

// RoleRepository manages persistence for roles and their authorized
// endpoint sets.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository constructs a RoleRepository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List returns roles matching the list params.
func (r *RoleRepository) List(ctx context.Context, params query.Params) ([]models.Role, int, error) {
	clause := roleColumns.Build(params, 0)

	q := fmt.Sprintf("SELECT r.id, r.name, r.key, r.description, r.created_at, r.updated_at FROM roles r WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	roles := []models.Role{}
	if err := r.db.SelectContext(ctx, &roles, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM roles r WHERE %s", clause.Where)
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}
	return roles, total, nil
}

// FindByID fetches a role by id.
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	if err := r.db.GetContext(ctx, &role, "SELECT id, name, key, description, created_at, updated_at FROM roles WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &role, nil
}

// ExistsByKey reports whether a role with the given key exists, excluding
// the id when updating.
func (r *RoleRepository) ExistsByKey(ctx context.Context, key, excludeID string) (bool, error) {
	var id string
	err := r.db.GetContext(ctx, &id, "SELECT id FROM roles WHERE key = $1 AND id <> $2", key, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check role key: %w", err)
	}
	return true, nil
}

// Create inserts a role.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	role.ID = uuid.NewString()
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	const q = `INSERT INTO roles (id, name, key, description, created_at, updated_at)
        VALUES (:id, :name, :key, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, role); err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// Update rewrites a role's mutable fields.
func (r *RoleRepository) Update(ctx context.Context, role *models.Role) error {
	role.UpdatedAt = time.Now().UTC()

	const q = `UPDATE roles SET name = :name, key = :key, description = :description, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, q, role)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a role and its authorization set.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete role: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_apis WHERE role_id = $1", id); err != nil {
		return fmt.Errorf("delete role apis: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM roles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// CountUsers reports how many users currently hold the role.
func (r *RoleRepository) CountUsers(ctx context.Context, roleID string) (int, error) {
	var count int
	const q = "SELECT COUNT(*) FROM users u JOIN roles r ON r.key = u.role_key WHERE r.id = $1"
	if err := r.db.GetContext(ctx, &count, q, roleID); err != nil {
		return 0, fmt.Errorf("count role users: %w", err)
	}
	return count, nil
}

// ListAuthorized returns the (method, path) pairs granted to a role.
func (r *RoleRepository) ListAuthorized(ctx context.Context, roleID string) ([]models.ApiInfo, error) {
	apis := []models.ApiInfo{}
	const q = "SELECT method, path FROM role_apis WHERE role_id = $1 ORDER BY path, method"
	if err := r.db.SelectContext(ctx, &apis, q, roleID); err != nil {
		return nil, fmt.Errorf("list role apis: %w", err)
	}
	return apis, nil
}

// AuthorizedSetByKey returns the grants of the role identified by key. The
// authorization middleware resolves role keys carried in tokens through it.
func (r *RoleRepository) AuthorizedSetByKey(ctx context.Context, roleKey string) ([]models.ApiInfo, error) {
	apis := []models.ApiInfo{}
	const q = `SELECT ra.method, ra.path FROM role_apis ra JOIN roles r ON r.id = ra.role_id WHERE r.key = $1`
	if err := r.db.SelectContext(ctx, &apis, q, roleKey); err != nil {
		return nil, fmt.Errorf("list role apis by key: %w", err)
	}
	return apis, nil
}

// ReplaceApis swaps a role's full authorization set in one
// transaction. Pairs not in the new set lose access immediately.
func (r *RoleRepository) ReplaceApis(ctx context.Context, roleID string, apis []models.ApiInfo) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace role apis: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_apis WHERE role_id = $1", roleID); err != nil {
		return fmt.Errorf("clear role apis: %w", err)
	}

	const q = "INSERT INTO role_apis (id, role_id, method, path, created_at) VALUES ($1, $2, $3, $4, $5)"
	now := time.Now().UTC()
	for _, api := range apis {
		if _, err := tx.ExecContext(ctx, q, uuid.NewString(), roleID, api.Method, api.Path, now); err != nil {
			return fmt.Errorf("grant role api: %w", err)
		}
	}
	return tx.Commit()
}
