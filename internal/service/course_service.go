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

type courseRepository interface {
	List(ctx context.Context, params query.Params) ([]models.CourseDetail, int, error)
	AvailableForStudent(ctx context.Context, studentID string, params query.Params) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
	ListTopics(ctx context.Context, courseID string) ([]models.CourseTopic, error)
	ReplaceTopics(ctx context.Context, courseID string, topics []models.CourseTopic) error
}

type courseSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type courseTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type courseStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// CourseRequest holds the payload for creating or updating courses. Name
// and code are absent on purpose: the server derives both.
type CourseRequest struct {
	SubjectID  string            `json:"subject_id" validate:"required,uuid"`
	TeacherID  string            `json:"teacher_id" validate:"required,uuid"`
	Grade      models.GradeType  `json:"grade" validate:"required,oneof=GRADE_6 GRADE_7 GRADE_8 GRADE_9 GRADE_10 GRADE_11 GRADE_12 GRADE_13"`
	Batch      int               `json:"batch" validate:"required,gte=1"`
	CourseType models.CourseType `json:"course_type" validate:"required,oneof=THEORY REVISION PAPER"`
	Fee        *float64          `json:"fee" validate:"omitempty,gte=0"`
}

// CourseTopicRequest is one syllabus entry in a bulk topics save.
type CourseTopicRequest struct {
	Title     string `json:"title" validate:"required"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

// CourseTopicsRequest replaces a course's full topic list.
type CourseTopicsRequest struct {
	Topics []CourseTopicRequest `json:"topics" validate:"required,dive"`
}

// CourseService handles course use-cases including the derived name/code
// and the per-student available listing.
type CourseService struct {
	repo      courseRepository
	subjects  courseSubjectRepository
	teachers  courseTeacherRepository
	students  courseStudentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, subjects courseSubjectRepository, teachers courseTeacherRepository, students courseStudentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, subjects: subjects, teachers: teachers, students: students, cache: cache, validator: validate, logger: logger}
}

type coursePage struct {
	Courses []models.CourseDetail `json:"courses"`
	Meta    *models.Paginator     `json:"meta"`
}

// List returns courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, params query.Params) ([]models.CourseDetail, *models.Paginator, error) {
	key := ListKey("courses", params)
	var cached coursePage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Courses, cached.Meta, nil
	}

	courses, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, coursePage{Courses: courses, Meta: meta}, 0)
	return courses, meta, nil
}

// AvailableForStudent returns the enabled courses of the student's grade
// that the student has no active enrollment in. The result depends on the
// student, so it is never served without one.
func (s *CourseService) AvailableForStudent(ctx context.Context, studentID string, params query.Params) ([]models.CourseDetail, *models.Paginator, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	courses, total, err := s.repo.AvailableForStudent(ctx, studentID, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}
	return courses, models.NewPaginator(params.Page, params.Limit, total), nil
}

// Get returns one course with subject and teacher resolved.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a course. Name and code come from the derivation, never
// from the request.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	subject, teacher, err := s.resolveParts(ctx, req)
	if err != nil {
		return nil, err
	}

	name := CourseName(req.Grade, subject.Name, teacher.FirstName, teacher.LastName, req.Batch)
	code := CourseCode(req.Grade, subject.Code, teacher.FirstName, teacher.LastName, req.Batch)
	exists, err := s.repo.ExistsByCode(ctx, code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.FieldConflict("batch", "A course with the same subject, teacher, grade and batch already exists!")
	}

	course := &models.Course{
		SubjectID:  req.SubjectID,
		TeacherID:  req.TeacherID,
		Grade:      req.Grade,
		Batch:      req.Batch,
		CourseType: req.CourseType,
		Name:       name,
		Code:       code,
		Fee:        req.Fee,
		Enabled:    true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("courses"))

	return &models.CourseDetail{
		Course:  *course,
		Subject: models.SubjectRef{ID: subject.ID, Name: subject.Name, Code: subject.Code},
		Teacher: models.UserRef{ID: teacher.ID, Username: teacher.Username, Email: teacher.Email, FirstName: teacher.FirstName, LastName: teacher.LastName},
	}, nil
}

// Update modifies a course. The derived name and code are recomputed from
// the updated parts; any submitted values are ignored because the request
// carries none.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	subject, teacher, err := s.resolveParts(ctx, req)
	if err != nil {
		return nil, err
	}

	code := CourseCode(req.Grade, subject.Code, teacher.FirstName, teacher.LastName, req.Batch)
	exists, err := s.repo.ExistsByCode(ctx, code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.FieldConflict("batch", "A course with the same subject, teacher, grade and batch already exists!")
	}

	course := detail.Course
	course.SubjectID = req.SubjectID
	course.TeacherID = req.TeacherID
	course.Grade = req.Grade
	course.Batch = req.Batch
	course.CourseType = req.CourseType
	course.Fee = req.Fee
	course.Name = CourseName(req.Grade, subject.Name, teacher.FirstName, teacher.LastName, req.Batch)
	course.Code = code
	if err := s.repo.Update(ctx, &course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("courses"))

	return &models.CourseDetail{
		Course:  course,
		Subject: models.SubjectRef{ID: subject.ID, Name: subject.Name, Code: subject.Code},
		Teacher: models.UserRef{ID: teacher.ID, Username: teacher.Username, Email: teacher.Email, FirstName: teacher.FirstName, LastName: teacher.LastName},
	}, nil
}

// SetEnabled flips a course on or off for new enrollments.
func (s *CourseService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.SetEnabled(ctx, id, enabled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("courses"))
	return nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("courses"))
	return nil
}

// ListTopics returns a course's syllabus entries.
func (s *CourseService) ListTopics(ctx context.Context, courseID string) ([]models.CourseTopic, error) {
	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	topics, err := s.repo.ListTopics(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course topics")
	}
	return topics, nil
}

// SaveTopics replaces a course's full topic list.
func (s *CourseService) SaveTopics(ctx context.Context, courseID string, req CourseTopicsRequest) ([]models.CourseTopic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	topics := make([]models.CourseTopic, len(req.Topics))
	for i, t := range req.Topics {
		topics[i] = models.CourseTopic{CourseID: courseID, Title: t.Title, SortOrder: t.SortOrder}
	}
	if err := s.repo.ReplaceTopics(ctx, courseID, topics); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course topics")
	}
	return topics, nil
}

func (s *CourseService) resolveParts(ctx context.Context, req CourseRequest) (*models.Subject, *models.User, error) {
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.FieldError("subject_id", "Subject does not exist!")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.FieldError("teacher_id", "Teacher does not exist!")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.RoleKey != models.RoleKeyTeacher {
		return nil, nil, appErrors.FieldError("teacher_id", "Selected user is not a teacher!")
	}
	return subject, teacher, nil
}
