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

var courseColumns = query.Columns{
	Searchable: map[string]string{
		"name":        "c.name",
		"code":        "c.code",
		"grade":       "c.grade",
		"course_type": "c.course_type",
		"subject":     "sub.name",
		"teacher":     "t.username",
	},
	Sortable: map[string]string{
		"name":       "c.name",
		"code":       "c.code",
		"grade":      "c.grade",
		"batch":      "c.batch",
		"fee":        "c.fee",
		"created_at": "c.created_at",
	},
	DefaultSort: "c.created_at",
}

const courseDetailSelect = `SELECT c.id, c.subject_id, c.teacher_id, c.grade, c.batch, c.course_type, c.name, c.code, c.fee, c.enabled, c.created_at, c.updated_at,
        sub.id AS "subject.id", sub.name AS "subject.name", sub.code AS "subject.code",
        t.id AS "teacher.id", t.username AS "teacher.username", t.email AS "teacher.email",
        t.first_name AS "teacher.first_name", t.last_name AS "teacher.last_name"
        FROM courses c
        JOIN subjects sub ON sub.id = c.subject_id
        JOIN users t ON t.id = c.teacher_id`

// CourseRepository manages persistence for courses and their topics.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses with subject and teacher resolved.
func (r *CourseRepository) List(ctx context.Context, params query.Params) ([]models.CourseDetail, int, error) {
	clause := courseColumns.Build(params, 0)

	q := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		courseDetailSelect, clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	courses := []models.CourseDetail{}
	if err := r.db.SelectContext(ctx, &courses, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM courses c
        JOIN subjects sub ON sub.id = c.subject_id
        JOIN users t ON t.id = c.teacher_id WHERE %s`, clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// AvailableForStudent returns enabled courses for the student's grade that
// the student has no active enrollment in yet. This backs the dependent
// course select on the enrollment screen.
func (r *CourseRepository) AvailableForStudent(ctx context.Context, studentID string, params query.Params) ([]models.CourseDetail, int, error) {
	clause := courseColumns.Build(params, 2)

	filter := `c.enabled
        AND c.grade = (SELECT grade FROM students WHERE id = $1)
        AND NOT EXISTS (
            SELECT 1 FROM enrollments e
            WHERE e.course_id = c.id AND e.student_id = $1 AND e.status = $2
        )`
	args := append([]interface{}{studentID, models.EnrollmentStatusActive}, clause.Args...)

	q := fmt.Sprintf("%s WHERE %s AND %s ORDER BY %s LIMIT %d OFFSET %d",
		courseDetailSelect, filter, clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	courses := []models.CourseDetail{}
	if err := r.db.SelectContext(ctx, &courses, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list available courses: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM courses c
        JOIN subjects sub ON sub.id = c.subject_id
        JOIN users t ON t.id = c.teacher_id WHERE %s AND %s`, filter, clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count available courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course with relations.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, courseDetailSelect+" WHERE c.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByCode checks for a duplicate course code.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	q := "SELECT 1 FROM courses WHERE UPPER(code) = UPPER($1)"
	args := []interface{}{code}
	if excludeID != "" {
		q += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, q+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const q = `INSERT INTO courses (id, subject_id, teacher_id, grade, batch, course_type, name, code, fee, enabled, created_at, updated_at)
        VALUES (:id, :subject_id, :teacher_id, :grade, :batch, :course_type, :name, :code, :fee, :enabled, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const q = `UPDATE courses SET subject_id = :subject_id, teacher_id = :teacher_id, grade = :grade, batch = :batch,
        course_type = :course_type, name = :name, code = :code, fee = :fee, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, q, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SetEnabled flips the course's enabled flag.
func (r *CourseRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	const q = `UPDATE courses SET enabled = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id, enabled, time.Now().UTC()); err != nil {
		return fmt.Errorf("set course enabled: %w", err)
	}
	return nil
}

// Delete removes a course.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ListTopics returns a course's topics ordered for display.
func (r *CourseRepository) ListTopics(ctx context.Context, courseID string) ([]models.CourseTopic, error) {
	const q = `SELECT id, course_id, title, sort_order, created_at, updated_at
        FROM course_topics WHERE course_id = $1 ORDER BY sort_order, created_at`
	topics := []models.CourseTopic{}
	if err := r.db.SelectContext(ctx, &topics, q, courseID); err != nil {
		return nil, fmt.Errorf("list course topics: %w", err)
	}
	return topics, nil
}

// ReplaceTopics swaps a course's topic set in one transaction.
func (r *CourseRepository) ReplaceTopics(ctx context.Context, courseID string, topics []models.CourseTopic) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace topics: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM course_topics WHERE course_id = $1", courseID); err != nil {
		return fmt.Errorf("clear course topics: %w", err)
	}

	now := time.Now().UTC()
	const q = `INSERT INTO course_topics (id, course_id, title, sort_order, created_at, updated_at)
        VALUES (:id, :course_id, :title, :sort_order, :created_at, :updated_at)`
	for i := range topics {
		topics[i].ID = uuid.NewString()
		topics[i].CourseID = courseID
		topics[i].CreatedAt = now
		topics[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, q, topics[i]); err != nil {
			return fmt.Errorf("insert course topic: %w", err)
		}
	}

	return tx.Commit()
}
