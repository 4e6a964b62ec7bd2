package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/query"
)

type studentRepository interface {
	List(ctx context.Context, params query.Params) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student, user *models.User) error
	Update(ctx context.Context, student *models.Student, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type studentUserRepository interface {
	ExistsByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (bool, bool, error)
}

// StudentUserCreate is the inline credentials payload attached to a new
// student.
type StudentUserCreate struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateStudentRequest holds the payload for registering students.
type CreateStudentRequest struct {
	StudentNumber string            `json:"student_number" validate:"required"`
	Grade         models.GradeType  `json:"grade" validate:"required,oneof=GRADE_6 GRADE_7 GRADE_8 GRADE_9 GRADE_10 GRADE_11 GRADE_12 GRADE_13"`
	UserCreate    StudentUserCreate `json:"user_create" validate:"required"`
}

// UpdateStudentRequest holds the payload for updating students. The student
// number is absent: it cannot change after creation.
type UpdateStudentRequest struct {
	Grade    models.GradeType `json:"grade" validate:"required,oneof=GRADE_6 GRADE_7 GRADE_8 GRADE_9 GRADE_10 GRADE_11 GRADE_12 GRADE_13"`
	Username string           `json:"username" validate:"required,min=3"`
	Email    string           `json:"email" validate:"required,email"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	users     studentUserRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, users studentUserRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, users: users, cache: cache, validator: validate, logger: logger}
}

type studentPage struct {
	Students []models.StudentDetail `json:"students"`
	Meta     *models.Paginator      `json:"meta"`
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, params query.Params) ([]models.StudentDetail, *models.Paginator, error) {
	key := ListKey("students", params)
	var cached studentPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Students, cached.Meta, nil
	}

	students, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, studentPage{Students: students, Meta: meta}, 0)
	return students, meta, nil
}

// Get returns one student with the linked user.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student together with the credential user, in one
// transaction.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	taken, err := s.repo.ExistsByNumber(ctx, req.StudentNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student number")
	}
	if taken {
		return nil, appErrors.FieldConflict("student_number", "Student Number already exists!")
	}

	usernameTaken, emailTaken, err := s.users.ExistsByUsernameOrEmail(ctx, req.UserCreate.Username, req.UserCreate.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate user")
	}
	if usernameTaken {
		return nil, appErrors.FieldConflict("username", "Username already exists!")
	}
	if emailTaken {
		return nil, appErrors.FieldConflict("email", "Email already exists!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.UserCreate.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.UserCreate.Username,
		Email:        req.UserCreate.Email,
		PasswordHash: string(hash),
		RoleKey:      models.RoleKeyStudent,
		Active:       true,
	}
	student := &models.Student{
		StudentNumber: req.StudentNumber,
		Grade:         req.Grade,
	}
	if err := s.repo.Create(ctx, student, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("students"))

	return &models.StudentDetail{
		Student: *student,
		User:    models.UserRef{ID: user.ID, Username: user.Username, Email: user.Email},
	}, nil
}

// Update modifies a student's grade and the linked user profile. The stored
// student number always wins; the field is not part of the request.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	usernameTaken, emailTaken, err := s.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, detail.User.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate user")
	}
	if usernameTaken {
		return nil, appErrors.FieldConflict("username", "Username already exists!")
	}
	if emailTaken {
		return nil, appErrors.FieldConflict("email", "Email already exists!")
	}

	student := detail.Student
	student.Grade = req.Grade
	user := &models.User{ID: detail.User.ID, Username: req.Username, Email: req.Email}
	if err := s.repo.Update(ctx, &student, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("students"))

	return &models.StudentDetail{
		Student: student,
		User:    models.UserRef{ID: user.ID, Username: user.Username, Email: user.Email},
	}, nil
}

// Delete removes a student and the linked credential user.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("students"))
	return nil
}
