package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/query"
)

type enrollmentRepository interface {
	List(ctx context.Context, params query.Params) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsActive(ctx context.Context, studentID, courseID, excludeID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id string) error
	ListPayments(ctx context.Context, enrollmentID string) ([]models.EnrollmentPaymentDetail, error)
}

type enrollmentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

// CreateEnrollmentRequest holds the payload for enrolling a student.
type CreateEnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	CourseID  string `json:"course_id" validate:"required,uuid"`
}

// UpdateEnrollmentRequest changes an enrollment's status.
type UpdateEnrollmentRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,oneof=ACTIVE LOCKED"`
}

// EnrollmentService handles enrollment use-cases.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  enrollmentStudentRepository
	courses   enrollmentCourseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, students enrollmentStudentRepository, courses enrollmentCourseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, cache: cache, validator: validate, logger: logger}
}

type enrollmentPage struct {
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
	Meta        *models.Paginator         `json:"meta"`
}

// List returns enrollments and pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, params query.Params) ([]models.EnrollmentDetail, *models.Paginator, error) {
	key := ListKey("enrollments", params)
	var cached enrollmentPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Enrollments, cached.Meta, nil
	}

	enrollments, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, enrollmentPage{Enrollments: enrollments, Meta: meta}, 0)
	return enrollments, meta, nil
}

// Get returns one enrollment with the student and course resolved.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Create enrolls a student into a course. The student can hold only one
// active enrollment per course, and the course must be enabled.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.FieldError("student_id", "Student does not exist!")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.FieldError("course_id", "Course does not exist!")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Enabled {
		return nil, appErrors.FieldError("course_id", "Course is not open for enrollment!")
	}

	exists, err := s.repo.ExistsActive(ctx, req.StudentID, req.CourseID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.FieldConflict("course_id", "Student is already enrolled in this course!")
	}

	enrollment := &models.Enrollment{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Status:    models.EnrollmentStatusActive,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("enrollments"))

	return &models.EnrollmentDetail{
		Enrollment: *enrollment,
		Student:    models.StudentRef{ID: student.ID, StudentNumber: student.StudentNumber, Grade: student.Grade},
		Course:     models.CourseRef{ID: course.ID, Name: course.Name, Code: course.Code, Fee: course.Fee},
	}, nil
}

// Update changes an enrollment's status.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	detail.Status = req.Status
	if err := s.repo.Update(ctx, &detail.Enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("enrollments"))
	return detail, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("enrollments"))
	return nil
}

// ListPayments returns the course payments recorded against an enrollment.
func (s *EnrollmentService) ListPayments(ctx context.Context, id string) ([]models.EnrollmentPaymentDetail, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment payments")
	}
	return payments, nil
}
