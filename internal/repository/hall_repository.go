package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/query"
)

var hallColumns = query.Columns{
	Searchable: map[string]string{
		"name": "h.name",
	},
	Sortable: map[string]string{
		"name":       "h.name",
		"capacity":   "h.capacity",
		"created_at": "h.created_at",
	},
	DefaultSort: "h.created_at",
}

// HallRepository manages persistence for halls.
type HallRepository struct {
	db *sqlx.DB
}

// NewHallRepository constructs a HallRepository.
func NewHallRepository(db *sqlx.DB) *HallRepository {
	return &HallRepository{db: db}
}

// List returns halls matching the uniform list parameters.
func (r *HallRepository) List(ctx context.Context, params query.Params) ([]models.Hall, int, error) {
	clause := hallColumns.Build(params, 0)

	q := fmt.Sprintf(`SELECT h.id, h.name, h.capacity, h.created_at, h.updated_at
        FROM halls h WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	halls := []models.Hall{}
	if err := r.db.SelectContext(ctx, &halls, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list halls: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM halls h WHERE %s", clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count halls: %w", err)
	}
	return halls, total, nil
}

// FindByID fetches a hall by ID.
func (r *HallRepository) FindByID(ctx context.Context, id string) (*models.Hall, error) {
	const q = `SELECT h.id, h.name, h.capacity, h.created_at, h.updated_at FROM halls h WHERE h.id = $1`
	var hall models.Hall
	if err := r.db.GetContext(ctx, &hall, q, id); err != nil {
		return nil, err
	}
	return &hall, nil
}

// ExistsByName checks for a duplicate hall name, optionally excluding an ID.
func (r *HallRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	q := "SELECT 1 FROM halls WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		q += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, q+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check hall name: %w", err)
	}
	return true, nil
}

// Create inserts a new hall.
func (r *HallRepository) Create(ctx context.Context, hall *models.Hall) error {
	if hall.ID == "" {
		hall.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	hall.CreatedAt = now
	hall.UpdatedAt = now
	const q = `INSERT INTO halls (id, name, capacity, created_at, updated_at)
        VALUES (:id, :name, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, hall); err != nil {
		return fmt.Errorf("create hall: %w", err)
	}
	return nil
}

// Update modifies an existing hall.
func (r *HallRepository) Update(ctx context.Context, hall *models.Hall) error {
	hall.UpdatedAt = time.Now().UTC()
	const q = `UPDATE halls SET name = :name, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, q, hall); err != nil {
		return fmt.Errorf("update hall: %w", err)
	}
	return nil
}

// Delete removes a hall.
func (r *HallRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM halls WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete hall: %w", err)
	}
	return nil
}
