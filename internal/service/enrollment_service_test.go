package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/query"
)

const testCourseID = "4f9f3b46-8f61-4f03-9a3c-0a4ad7a2f301"

type mockEnrollmentRepo struct {
	enrollments map[string]models.EnrollmentDetail
	payments    map[string][]models.EnrollmentPaymentDetail
	deletes     []string
}

func (m *mockEnrollmentRepo) List(ctx context.Context, params query.Params) ([]models.EnrollmentDetail, int, error) {
	out := make([]models.EnrollmentDetail, 0, len(m.enrollments))
	for _, e := range m.enrollments {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, courseID, excludeID string) (bool, error) {
	for id, e := range m.enrollments {
		if excludeID != "" && id == excludeID {
			continue
		}
		if e.StudentID == studentID && e.CourseID == courseID && e.Status == models.EnrollmentStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.EnrollmentDetail)
	}
	if enrollment.ID == "" {
		enrollment.ID = fmt.Sprintf("enr-%d", len(m.enrollments)+1)
	}
	m.enrollments[enrollment.ID] = models.EnrollmentDetail{Enrollment: *enrollment}
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	detail := m.enrollments[enrollment.ID]
	detail.Enrollment = *enrollment
	m.enrollments[enrollment.ID] = detail
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrollments, id)
	m.deletes = append(m.deletes, id)
	return nil
}

func (m *mockEnrollmentRepo) ListPayments(ctx context.Context, enrollmentID string) ([]models.EnrollmentPaymentDetail, error) {
	return m.payments[enrollmentID], nil
}

type mockEnrollStudentRepo struct {
	students map[string]models.StudentDetail
}

func (m *mockEnrollStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollCourseRepo struct {
	courses map[string]models.CourseDetail
}

func (m *mockEnrollCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentService() (*EnrollmentService, *mockEnrollmentRepo, *mockEnrollCourseRepo) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.EnrollmentDetail{}}
	fee := 1500.0
	students := &mockEnrollStudentRepo{students: map[string]models.StudentDetail{
		testStudentID: {Student: models.Student{ID: testStudentID, StudentNumber: "STU-001", Grade: models.Grade10}},
	}}
	courses := &mockEnrollCourseRepo{courses: map[string]models.CourseDetail{
		testCourseID: {Course: models.Course{
			ID:      testCourseID,
			Name:    "Grade 10 Mathematics - john.doe (Batch 2)",
			Code:    "G10-MATH-JD-B2",
			Fee:     &fee,
			Enabled: true,
		}},
	}}
	return NewEnrollmentService(repo, students, courses, nil, NewValidator(), zap.NewNop()), repo, courses
}

func TestEnrollmentServiceCreate(t *testing.T) {
	svc, _, _ := newEnrollmentService()

	detail, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: testStudentID, CourseID: testCourseID})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, detail.Status)
	assert.Equal(t, "STU-001", detail.Student.StudentNumber)
	assert.Equal(t, "G10-MATH-JD-B2", detail.Course.Code)
}

func TestEnrollmentServiceCreateDisabledCourse(t *testing.T) {
	svc, repo, courses := newEnrollmentService()
	course := courses.courses[testCourseID]
	course.Enabled = false
	courses.courses[testCourseID] = course

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: testStudentID, CourseID: testCourseID})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Validation["course_id"], "Course is not open for enrollment!")
	assert.Empty(t, repo.enrollments)
}

func TestEnrollmentServiceCreateDuplicateActive(t *testing.T) {
	svc, _, _ := newEnrollmentService()

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: testStudentID, CourseID: testCourseID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: testStudentID, CourseID: testCourseID})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Contains(t, appErr.Validation["course_id"], "Student is already enrolled in this course!")
}

func TestEnrollmentServiceCreateUnknownStudent(t *testing.T) {
	svc, _, _ := newEnrollmentService()

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: testEnrollmentA, CourseID: testCourseID})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Validation["student_id"], "Student does not exist!")
}

func TestEnrollmentServiceUpdateStatus(t *testing.T) {
	svc, repo, _ := newEnrollmentService()
	created, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: testStudentID, CourseID: testCourseID})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateEnrollmentRequest{Status: models.EnrollmentStatusLocked})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusLocked, updated.Status)
	assert.Equal(t, models.EnrollmentStatusLocked, repo.enrollments[created.ID].Status)

	// A locked enrollment no longer blocks a fresh one.
	_, err = svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: testStudentID, CourseID: testCourseID})
	require.NoError(t, err)
}

func TestEnrollmentServiceDelete(t *testing.T) {
	svc, repo, _ := newEnrollmentService()
	created, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: testStudentID, CourseID: testCourseID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Equal(t, []string{created.ID}, repo.deletes)

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
