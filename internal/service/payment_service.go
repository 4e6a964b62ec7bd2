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

type paymentRepository interface {
	List(ctx context.Context, paymentType models.PaymentType, params query.Params) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	ListCoveredCourses(ctx context.Context, paymentID string) ([]models.CourseRef, error)
	CreateAdmission(ctx context.Context, payment *models.Payment) error
	CreateCourse(ctx context.Context, payment *models.Payment, covered []models.EnrollmentPayment) error
}

type paymentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type paymentEnrollmentRepository interface {
	FindActiveByIDs(ctx context.Context, studentID string, ids []string) ([]models.EnrollmentDetail, error)
}

// CreateAdmissionPaymentRequest records a one-off admission fee.
type CreateAdmissionPaymentRequest struct {
	StudentID   string  `json:"student_id" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	MonthNumber int     `json:"month_number" validate:"required,gte=1,lte=12"`
	YearNumber  int     `json:"year_number" validate:"required,gte=2000"`
}

// CreateCoursePaymentRequest records a monthly course payment. The amount
// field is accepted for interface compatibility and always ignored: the
// charge is the sum of the selected enrollments' course fees.
type CreateCoursePaymentRequest struct {
	StudentID     string   `json:"student_id" validate:"required,uuid"`
	EnrollmentIDs []string `json:"enrollment_ids" validate:"required,min=1,dive,uuid"`
	Amount        float64  `json:"amount"`
	MonthNumber   int      `json:"month_number" validate:"required,gte=1,lte=12"`
	YearNumber    int      `json:"year_number" validate:"required,gte=2000"`
}

// PaymentReceipt is the full payment view used by detail responses and the
// receipt export.
type PaymentReceipt struct {
	models.PaymentDetail
	Courses []models.CourseRef `json:"courses,omitempty"`
}

// PaymentService handles admission and course payment use-cases.
type PaymentService struct {
	repo        paymentRepository
	students    paymentStudentRepository
	enrollments paymentEnrollmentRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, students paymentStudentRepository, enrollments paymentEnrollmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, students: students, enrollments: enrollments, cache: cache, validator: validate, logger: logger}
}

type paymentPage struct {
	Payments []models.PaymentDetail `json:"payments"`
	Meta     *models.Paginator      `json:"meta"`
}

// List returns payments of one type, or all when paymentType is empty.
func (s *PaymentService) List(ctx context.Context, paymentType models.PaymentType, params query.Params) ([]models.PaymentDetail, *models.Paginator, error) {
	resource := "payments"
	if paymentType != "" {
		resource = "payments:" + string(paymentType)
	}
	key := ListKey(resource, params)
	var cached paymentPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Payments, cached.Meta, nil
	}

	payments, total, err := s.repo.List(ctx, paymentType, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, paymentPage{Payments: payments, Meta: meta}, 0)
	return payments, meta, nil
}

// Get returns one payment with the covered courses resolved for course
// payments.
func (s *PaymentService) Get(ctx context.Context, id string) (*PaymentReceipt, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	receipt := &PaymentReceipt{PaymentDetail: *payment}
	if payment.PaymentType == models.PaymentTypeCourse {
		courses, err := s.repo.ListCoveredCourses(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load covered courses")
		}
		receipt.Courses = courses
	}
	return receipt, nil
}

// CreateAdmission records an admission payment.
func (s *PaymentService) CreateAdmission(ctx context.Context, req CreateAdmissionPaymentRequest) (*models.PaymentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	student, err := s.findStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		StudentID:   req.StudentID,
		PaymentType: models.PaymentTypeAdmission,
		Amount:      req.Amount,
		MonthNumber: req.MonthNumber,
		YearNumber:  req.YearNumber,
	}
	if err := s.repo.CreateAdmission(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("payments"))

	return &models.PaymentDetail{
		Payment: *payment,
		Student: models.StudentRef{ID: student.ID, StudentNumber: student.StudentNumber, Grade: student.Grade},
	}, nil
}

// CreateCourse records a monthly course payment. The charged amount is
// always the sum of the selected enrollments' course fees; whatever the
// client submitted is discarded. Each covered enrollment gets its last
// paid month stamped.
func (s *PaymentService) CreateCourse(ctx context.Context, req CreateCoursePaymentRequest) (*PaymentReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	student, err := s.findStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.FindActiveByIDs(ctx, req.StudentID, req.EnrollmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if len(enrollments) != len(req.EnrollmentIDs) {
		return nil, appErrors.FieldError("enrollment_ids", "One or more enrollments do not belong to this student or are not active!")
	}

	var amount float64
	covered := make([]models.EnrollmentPayment, len(enrollments))
	courses := make([]models.CourseRef, len(enrollments))
	for i, e := range enrollments {
		var fee float64
		if e.Course.Fee != nil {
			fee = *e.Course.Fee
		}
		amount += fee
		covered[i] = models.EnrollmentPayment{EnrollmentID: e.ID, Fee: fee}
		courses[i] = e.Course
	}

	payment := &models.Payment{
		StudentID:   req.StudentID,
		PaymentType: models.PaymentTypeCourse,
		Amount:      amount,
		MonthNumber: req.MonthNumber,
		YearNumber:  req.YearNumber,
	}
	if err := s.repo.CreateCourse(ctx, payment, covered); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("payments"))
	_ = s.cache.Invalidate(ctx, ResourcePattern("enrollments"))

	return &PaymentReceipt{
		PaymentDetail: models.PaymentDetail{
			Payment: *payment,
			Student: models.StudentRef{ID: student.ID, StudentNumber: student.StudentNumber, Grade: student.Grade},
		},
		Courses: courses,
	}, nil
}

func (s *PaymentService) findStudent(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.FieldError("student_id", "Student does not exist!")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
