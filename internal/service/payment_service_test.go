package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/query"
)

const (
	testEnrollmentA = "4f9f3b46-8f61-4f03-9a3c-0a4ad7a2f201"
	testEnrollmentB = "4f9f3b46-8f61-4f03-9a3c-0a4ad7a2f202"
)

type mockPaymentRepo struct {
	payments    map[string]models.PaymentDetail
	covered     map[string][]models.CourseRef
	lastCovered []models.EnrollmentPayment
}

func (m *mockPaymentRepo) List(ctx context.Context, paymentType models.PaymentType, params query.Params) ([]models.PaymentDetail, int, error) {
	out := make([]models.PaymentDetail, 0, len(m.payments))
	for _, p := range m.payments {
		if paymentType != "" && p.PaymentType != paymentType {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) ListCoveredCourses(ctx context.Context, paymentID string) ([]models.CourseRef, error) {
	return m.covered[paymentID], nil
}

func (m *mockPaymentRepo) CreateAdmission(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.PaymentDetail)
	}
	if payment.ID == "" {
		payment.ID = "generated"
	}
	m.payments[payment.ID] = models.PaymentDetail{Payment: *payment}
	return nil
}

func (m *mockPaymentRepo) CreateCourse(ctx context.Context, payment *models.Payment, covered []models.EnrollmentPayment) error {
	m.lastCovered = covered
	return m.CreateAdmission(ctx, payment)
}

type mockPaymentStudentRepo struct {
	students map[string]models.StudentDetail
}

func (m *mockPaymentStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockPaymentEnrollmentRepo struct {
	active map[string]models.EnrollmentDetail
}

func (m *mockPaymentEnrollmentRepo) FindActiveByIDs(ctx context.Context, studentID string, ids []string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, id := range ids {
		if e, ok := m.active[id]; ok && e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func feeOf(v float64) *float64 { return &v }

func newPaymentService() (*PaymentService, *mockPaymentRepo) {
	repo := &mockPaymentRepo{}
	students := &mockPaymentStudentRepo{students: map[string]models.StudentDetail{
		testStudentID: {Student: models.Student{ID: testStudentID, StudentNumber: "STU-001", Grade: models.Grade10}},
	}}
	enrollments := &mockPaymentEnrollmentRepo{active: map[string]models.EnrollmentDetail{
		testEnrollmentA: {
			Enrollment: models.Enrollment{ID: testEnrollmentA, StudentID: testStudentID, Status: models.EnrollmentStatusActive},
			Course:     models.CourseRef{ID: "c1", Name: "Grade 10 Mathematics - john.doe (Batch 2)", Fee: feeOf(1500)},
		},
		testEnrollmentB: {
			Enrollment: models.Enrollment{ID: testEnrollmentB, StudentID: testStudentID, Status: models.EnrollmentStatusActive},
			Course:     models.CourseRef{ID: "c2", Name: "Grade 10 Physics - anne.perera (Batch 1)", Fee: feeOf(2000)},
		},
	}}
	return NewPaymentService(repo, students, enrollments, nil, NewValidator(), zap.NewNop()), repo
}

func TestPaymentServiceCourseAmountIsSumOfFees(t *testing.T) {
	svc, repo := newPaymentService()

	receipt, err := svc.CreateCourse(context.Background(), CreateCoursePaymentRequest{
		StudentID:     testStudentID,
		EnrollmentIDs: []string{testEnrollmentA, testEnrollmentB},
		Amount:        5, // ignored
		MonthNumber:   3,
		YearNumber:    2026,
	})
	require.NoError(t, err)
	assert.Equal(t, 3500.0, receipt.Amount)
	assert.Len(t, receipt.Courses, 2)
	require.Len(t, repo.lastCovered, 2)
	assert.Equal(t, 1500.0, repo.lastCovered[0].Fee)
	assert.Equal(t, 2000.0, repo.lastCovered[1].Fee)
}

func TestPaymentServiceCourseRejectsForeignEnrollment(t *testing.T) {
	svc, _ := newPaymentService()

	_, err := svc.CreateCourse(context.Background(), CreateCoursePaymentRequest{
		StudentID:     testStudentID,
		EnrollmentIDs: []string{testEnrollmentA, "4f9f3b46-8f61-4f03-9a3c-0a4ad7a2f299"},
		MonthNumber:   3,
		YearNumber:    2026,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Validation["enrollment_ids"], "One or more enrollments do not belong to this student or are not active!")
}

func TestPaymentServiceAdmission(t *testing.T) {
	svc, repo := newPaymentService()

	payment, err := svc.CreateAdmission(context.Background(), CreateAdmissionPaymentRequest{
		StudentID:   testStudentID,
		Amount:      5000,
		MonthNumber: 1,
		YearNumber:  2026,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentTypeAdmission, payment.PaymentType)
	assert.Equal(t, 5000.0, payment.Amount)
	assert.Equal(t, "STU-001", payment.Student.StudentNumber)
	assert.Len(t, repo.payments, 1)
}

func TestPaymentServiceAdmissionUnknownStudent(t *testing.T) {
	svc, _ := newPaymentService()

	_, err := svc.CreateAdmission(context.Background(), CreateAdmissionPaymentRequest{
		StudentID:   "4f9f3b46-8f61-4f03-9a3c-0a4ad7a2f999",
		Amount:      5000,
		MonthNumber: 1,
		YearNumber:  2026,
	})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Validation["student_id"], "Student does not exist!")
}

func TestPaymentServiceGetResolvesCoveredCourses(t *testing.T) {
	svc, repo := newPaymentService()
	repo.payments = map[string]models.PaymentDetail{
		"p1": {Payment: models.Payment{ID: "p1", PaymentType: models.PaymentTypeCourse, Amount: 3500}},
	}
	repo.covered = map[string][]models.CourseRef{
		"p1": {{ID: "c1", Name: "Grade 10 Mathematics - john.doe (Batch 2)"}},
	}

	receipt, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, receipt.Courses, 1)
}
