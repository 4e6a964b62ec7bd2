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

var paymentColumns = query.Columns{
	Searchable: map[string]string{
		"payment_type":   "p.payment_type",
		"student_number": "s.student_number",
	},
	Sortable: map[string]string{
		"amount":     "p.amount",
		"created_at": "p.created_at",
	},
	DefaultSort: "p.created_at",
}

const paymentDetailSelect = `SELECT p.id, p.student_id, p.payment_type, p.amount, p.month_number, p.year_number, p.created_at, p.updated_at,
        s.id AS "student.id", s.student_number AS "student.student_number", s.grade AS "student.grade"
        FROM payments p JOIN students s ON s.id = p.student_id`

// PaymentRepository manages persistence for payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments with the paying student resolved, optionally
// filtered to one payment type.
func (r *PaymentRepository) List(ctx context.Context, paymentType models.PaymentType, params query.Params) ([]models.PaymentDetail, int, error) {
	filter := "1=1"
	baseArgs := []interface{}{}
	argStart := 0
	if paymentType != "" {
		filter = "p.payment_type = $1"
		baseArgs = append(baseArgs, paymentType)
		argStart = 1
	}
	clause := paymentColumns.Build(params, argStart)
	args := append(baseArgs, clause.Args...)

	q := fmt.Sprintf("%s WHERE %s AND %s ORDER BY %s LIMIT %d OFFSET %d",
		paymentDetailSelect, filter, clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	payments := []models.PaymentDetail{}
	if err := r.db.SelectContext(ctx, &payments, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments p JOIN students s ON s.id = p.student_id WHERE %s AND %s", filter, clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID fetches a payment with the paying student.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	var detail models.PaymentDetail
	if err := r.db.GetContext(ctx, &detail, paymentDetailSelect+" WHERE p.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListCoveredCourses returns the course rows a course payment covered.
func (r *PaymentRepository) ListCoveredCourses(ctx context.Context, paymentID string) ([]models.CourseRef, error) {
	const q = `SELECT c.id, c.name, c.code, ep.fee AS fee
        FROM enrollment_payments ep
        JOIN enrollments e ON e.id = ep.enrollment_id
        JOIN courses c ON c.id = e.course_id
        WHERE ep.payment_id = $1 ORDER BY c.name`
	courses := []models.CourseRef{}
	if err := r.db.SelectContext(ctx, &courses, q, paymentID); err != nil {
		return nil, fmt.Errorf("list covered courses: %w", err)
	}
	return courses, nil
}

// CreateAdmission inserts an admission payment.
func (r *PaymentRepository) CreateAdmission(ctx context.Context, payment *models.Payment) error {
	stampPayment(payment)
	if _, err := r.db.NamedExecContext(ctx, insertPaymentQuery, payment); err != nil {
		return fmt.Errorf("create admission payment: %w", err)
	}
	return nil
}

// CreateCourse inserts a course payment, its per-enrollment rows, and
// stamps each covered enrollment's last paid month in one transaction.
func (r *PaymentRepository) CreateCourse(ctx context.Context, payment *models.Payment, covered []models.EnrollmentPayment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course payment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stampPayment(payment)
	if _, err := tx.NamedExecContext(ctx, insertPaymentQuery, payment); err != nil {
		return fmt.Errorf("create course payment: %w", err)
	}

	const epQuery = `INSERT INTO enrollment_payments (id, payment_id, enrollment_id, fee, created_at)
        VALUES (:id, :payment_id, :enrollment_id, :fee, :created_at)`
	const stampQuery = `UPDATE enrollments SET last_payment_month = $2, last_payment_year = $3, updated_at = $4 WHERE id = $1`
	now := time.Now().UTC()
	for i := range covered {
		covered[i].ID = uuid.NewString()
		covered[i].PaymentID = payment.ID
		covered[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, epQuery, covered[i]); err != nil {
			return fmt.Errorf("create enrollment payment: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stampQuery, covered[i].EnrollmentID, payment.MonthNumber, payment.YearNumber, now); err != nil {
			return fmt.Errorf("stamp enrollment payment: %w", err)
		}
	}

	return tx.Commit()
}

const insertPaymentQuery = `INSERT INTO payments (id, student_id, payment_type, amount, month_number, year_number, created_at, updated_at)
        VALUES (:id, :student_id, :payment_type, :amount, :month_number, :year_number, :created_at, :updated_at)`

func stampPayment(payment *models.Payment) {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
}
