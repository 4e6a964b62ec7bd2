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

var guardianColumns = query.Columns{
	Searchable: map[string]string{
		"first_name":   "g.first_name",
		"last_name":    "g.last_name",
		"nic_number":   "g.nic_number",
		"phone_number": "g.phone_number",
	},
	Sortable: map[string]string{
		"first_name": "g.first_name",
		"last_name":  "g.last_name",
		"created_at": "g.created_at",
	},
	DefaultSort: "g.created_at",
}

// GuardianRepository manages persistence for guardians.
type GuardianRepository struct {
	db *sqlx.DB
}

// NewGuardianRepository constructs a GuardianRepository.
func NewGuardianRepository(db *sqlx.DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

// List returns guardians matching the uniform list parameters.
func (r *GuardianRepository) List(ctx context.Context, params query.Params) ([]models.Guardian, int, error) {
	clause := guardianColumns.Build(params, 0)

	q := fmt.Sprintf(`SELECT g.id, g.first_name, g.last_name, g.nic_number, g.phone_number, g.gender, g.created_at, g.updated_at
        FROM guardians g WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	guardians := []models.Guardian{}
	if err := r.db.SelectContext(ctx, &guardians, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list guardians: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM guardians g WHERE %s", clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count guardians: %w", err)
	}
	return guardians, total, nil
}

// FindByID fetches a guardian by ID.
func (r *GuardianRepository) FindByID(ctx context.Context, id string) (*models.Guardian, error) {
	var guardian models.Guardian
	if err := r.db.GetContext(ctx, &guardian, "SELECT * FROM guardians WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &guardian, nil
}

// ExistsByNIC checks if a NIC number is already registered.
func (r *GuardianRepository) ExistsByNIC(ctx context.Context, nic, excludeID string) (bool, error) {
	q := "SELECT 1 FROM guardians WHERE UPPER(nic_number) = UPPER($1)"
	args := []interface{}{nic}
	if excludeID != "" {
		q += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, q+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check nic number: %w", err)
	}
	return true, nil
}

// Create inserts a new guardian.
func (r *GuardianRepository) Create(ctx context.Context, guardian *models.Guardian) error {
	if guardian.ID == "" {
		guardian.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	guardian.CreatedAt = now
	guardian.UpdatedAt = now
	const q = `INSERT INTO guardians (id, first_name, last_name, nic_number, phone_number, gender, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :nic_number, :phone_number, :gender, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, guardian); err != nil {
		return fmt.Errorf("create guardian: %w", err)
	}
	return nil
}

// Update modifies an existing guardian.
func (r *GuardianRepository) Update(ctx context.Context, guardian *models.Guardian) error {
	guardian.UpdatedAt = time.Now().UTC()
	const q = `UPDATE guardians SET first_name = :first_name, last_name = :last_name, nic_number = :nic_number,
        phone_number = :phone_number, gender = :gender, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, q, guardian); err != nil {
		return fmt.Errorf("update guardian: %w", err)
	}
	return nil
}

// Delete removes a guardian.
func (r *GuardianRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM guardians WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete guardian: %w", err)
	}
	return nil
}
