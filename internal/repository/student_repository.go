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

var studentColumns = query.Columns{
	Searchable: map[string]string{
		"student_number": "s.student_number",
		"grade":          "s.grade",
		"username":       "u.username",
		"email":          "u.email",
	},
	Sortable: map[string]string{
		"student_number": "s.student_number",
		"grade":          "s.grade",
		"created_at":     "s.created_at",
	},
	DefaultSort: "s.created_at",
}

const studentDetailSelect = `SELECT s.id, s.student_number, s.grade, s.user_id, s.created_at, s.updated_at,
        u.id AS "user.id", u.username AS "user.username", u.email AS "user.email",
        u.first_name AS "user.first_name", u.last_name AS "user.last_name"
        FROM students s JOIN users u ON u.id = s.user_id`

// StudentRepository manages persistence for students and their linked
// credential users.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students with their user resolved.
func (r *StudentRepository) List(ctx context.Context, params query.Params) ([]models.StudentDetail, int, error) {
	clause := studentColumns.Build(params, 0)

	q := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		studentDetailSelect, clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	students := []models.StudentDetail{}
	if err := r.db.SelectContext(ctx, &students, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students s JOIN users u ON u.id = s.user_id WHERE %s", clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student with the linked user.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, studentDetailSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByNumber checks if a student number is taken, optionally excluding an ID.
func (r *StudentRepository) ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error) {
	q := "SELECT 1 FROM students WHERE student_number = $1"
	args := []interface{}{number}
	if excludeID != "" {
		q += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, q+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student number: %w", err)
	}
	return true, nil
}

// Create inserts the credential user and the student in one transaction.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := createUser(ctx, tx, user); err != nil {
		return err
	}

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.UserID = user.ID
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const q = `INSERT INTO students (id, student_number, grade, user_id, created_at, updated_at)
        VALUES (:id, :student_number, :grade, :user_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, q, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	return tx.Commit()
}

// Update modifies a student and the linked user's profile fields. The
// student number is deliberately absent from the statement.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	student.UpdatedAt = now
	const q = `UPDATE students SET grade = :grade, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, q, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	user.UpdatedAt = now
	const uq = `UPDATE users SET username = :username, email = :email, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, uq, user); err != nil {
		return fmt.Errorf("update student user: %w", err)
	}

	return tx.Commit()
}

// Delete removes a student and the linked credential user.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var userID string
	if err := tx.GetContext(ctx, &userID, "SELECT user_id FROM students WHERE id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
		return fmt.Errorf("delete student user: %w", err)
	}

	return tx.Commit()
}
