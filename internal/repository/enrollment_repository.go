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

var enrollmentColumns = query.Columns{
	Searchable: map[string]string{
		"status":         "e.status",
		"student_number": "s.student_number",
		"course":         "c.name",
		"course_code":    "c.code",
	},
	Sortable: map[string]string{
		"status":             "e.status",
		"last_payment_month": "e.last_payment_month",
		"created_at":         "e.created_at",
	},
	DefaultSort: "e.created_at",
}

const enrollmentDetailSelect = `SELECT e.id, e.student_id, e.course_id, e.status, e.last_payment_month, e.last_payment_year, e.created_at, e.updated_at,
        s.id AS "student.id", s.student_number AS "student.student_number", s.grade AS "student.grade",
        c.id AS "course.id", c.name AS "course.name", c.code AS "course.code", c.fee AS "course.fee"
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id`

// EnrollmentRepository manages persistence for enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments with student and course resolved.
func (r *EnrollmentRepository) List(ctx context.Context, params query.Params) ([]models.EnrollmentDetail, int, error) {
	clause := enrollmentColumns.Build(params, 0)

	q := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		enrollmentDetailSelect, clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	enrollments := []models.EnrollmentDetail{}
	if err := r.db.SelectContext(ctx, &enrollments, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id WHERE %s`, clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID fetches an enrollment with relations.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, enrollmentDetailSelect+" WHERE e.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindActiveByIDs loads active enrollments for a student by ID set, with
// course fees resolved. Used to price course payments.
func (r *EnrollmentRepository) FindActiveByIDs(ctx context.Context, studentID string, ids []string) ([]models.EnrollmentDetail, error) {
	q, args, err := sqlx.In(enrollmentDetailSelect+" WHERE e.student_id = ? AND e.status = ? AND e.id IN (?)",
		studentID, models.EnrollmentStatusActive, ids)
	if err != nil {
		return nil, fmt.Errorf("build enrollment id query: %w", err)
	}
	q = r.db.Rebind(q)

	enrollments := []models.EnrollmentDetail{}
	if err := r.db.SelectContext(ctx, &enrollments, q, args...); err != nil {
		return nil, fmt.Errorf("find enrollments by ids: %w", err)
	}
	return enrollments, nil
}

// ExistsActive checks whether the student already has a live enrollment in
// the course.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, courseID, excludeID string) (bool, error) {
	q := "SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = $3"
	args := []interface{}{studentID, courseID, models.EnrollmentStatusActive}
	if excludeID != "" {
		q += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, q+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const q = `INSERT INTO enrollments (id, student_id, course_id, status, last_payment_month, last_payment_year, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :status, :last_payment_month, :last_payment_year, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update modifies an enrollment's course and status.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const q = `UPDATE enrollments SET course_id = :course_id, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, q, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM enrollments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

// ListPayments returns the payment rows recorded against an enrollment.
func (r *EnrollmentRepository) ListPayments(ctx context.Context, enrollmentID string) ([]models.EnrollmentPaymentDetail, error) {
	const q = `SELECT ep.id, ep.payment_id, ep.enrollment_id, ep.fee, ep.created_at,
        c.id AS "course.id", c.name AS "course.name", c.code AS "course.code", c.fee AS "course.fee"
        FROM enrollment_payments ep
        JOIN enrollments e ON e.id = ep.enrollment_id
        JOIN courses c ON c.id = e.course_id
        WHERE ep.enrollment_id = $1 ORDER BY ep.created_at DESC`
	payments := []models.EnrollmentPaymentDetail{}
	if err := r.db.SelectContext(ctx, &payments, q, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment payments: %w", err)
	}
	return payments, nil
}
