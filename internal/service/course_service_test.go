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
	testSubjectID = "4f9f3b46-8f61-4f03-9a3c-0a4ad7a2f101"
	testTeacherID = "4f9f3b46-8f61-4f03-9a3c-0a4ad7a2f102"
	testStudentID = "4f9f3b46-8f61-4f03-9a3c-0a4ad7a2f103"
)

type mockCourseRepo struct {
	courses map[string]models.CourseDetail
	byCode  map[string]string
	deletes []string
	enabled map[string]bool
	topics  map[string][]models.CourseTopic
}

func (m *mockCourseRepo) List(ctx context.Context, params query.Params) ([]models.CourseDetail, int, error) {
	out := make([]models.CourseDetail, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) AvailableForStudent(ctx context.Context, studentID string, params query.Params) ([]models.CourseDetail, int, error) {
	return m.List(ctx, params)
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	if id, ok := m.byCode[code]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]models.CourseDetail)
	}
	if course.ID == "" {
		course.ID = "generated"
	}
	m.courses[course.ID] = models.CourseDetail{Course: *course}
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	detail := m.courses[course.ID]
	detail.Course = *course
	m.courses[course.ID] = detail
	return nil
}

func (m *mockCourseRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if m.enabled == nil {
		m.enabled = make(map[string]bool)
	}
	m.enabled[id] = enabled
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	m.deletes = append(m.deletes, id)
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) ListTopics(ctx context.Context, courseID string) ([]models.CourseTopic, error) {
	return m.topics[courseID], nil
}

func (m *mockCourseRepo) ReplaceTopics(ctx context.Context, courseID string, topics []models.CourseTopic) error {
	if m.topics == nil {
		m.topics = make(map[string][]models.CourseTopic)
	}
	m.topics[courseID] = topics
	return nil
}

type mockCourseSubjectRepo struct {
	subjects map[string]models.Subject
}

func (m *mockCourseSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseTeacherRepo struct {
	users map[string]models.User
}

func (m *mockCourseTeacherRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseStudentRepo struct {
	students map[string]models.StudentDetail
}

func (m *mockCourseStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func newCourseService(repo *mockCourseRepo) (*CourseService, *mockCourseTeacherRepo) {
	subjects := &mockCourseSubjectRepo{subjects: map[string]models.Subject{
		testSubjectID: {ID: testSubjectID, Name: "Mathematics", Code: "MATH"},
	}}
	teachers := &mockCourseTeacherRepo{users: map[string]models.User{
		testTeacherID: {ID: testTeacherID, Username: "john.doe", FirstName: "John", LastName: "Doe", RoleKey: models.RoleKeyTeacher},
	}}
	students := &mockCourseStudentRepo{students: map[string]models.StudentDetail{
		testStudentID: {Student: models.Student{ID: testStudentID}},
	}}
	return NewCourseService(repo, subjects, teachers, students, nil, NewValidator(), zap.NewNop()), teachers
}

func TestCourseServiceCreateDerivesNameAndCode(t *testing.T) {
	repo := &mockCourseRepo{byCode: map[string]string{}}
	svc, _ := newCourseService(repo)

	course, err := svc.Create(context.Background(), CourseRequest{
		SubjectID:  testSubjectID,
		TeacherID:  testTeacherID,
		Grade:      models.Grade10,
		Batch:      2,
		CourseType: models.CourseTypeTheory,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grade 10 Mathematics - John Doe (Batch 2)", course.Name)
	assert.Equal(t, "G10-MATH-JD-B2", course.Code)
	assert.True(t, course.Enabled)
}

func TestCourseServiceCreateRejectsNonTeacher(t *testing.T) {
	repo := &mockCourseRepo{byCode: map[string]string{}}
	svc, teachers := newCourseService(repo)
	teachers.users[testTeacherID] = models.User{ID: testTeacherID, Username: "john.doe", RoleKey: models.RoleKeyStudent}

	_, err := svc.Create(context.Background(), CourseRequest{
		SubjectID:  testSubjectID,
		TeacherID:  testTeacherID,
		Grade:      models.Grade10,
		Batch:      1,
		CourseType: models.CourseTypeTheory,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Validation["teacher_id"], "Selected user is not a teacher!")
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	repo := &mockCourseRepo{byCode: map[string]string{"G10-MATH-JD-B2": "existing"}}
	svc, _ := newCourseService(repo)

	_, err := svc.Create(context.Background(), CourseRequest{
		SubjectID:  testSubjectID,
		TeacherID:  testTeacherID,
		Grade:      models.Grade10,
		Batch:      2,
		CourseType: models.CourseTypeTheory,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Status, appErr.Status)
}

func TestCourseServiceUpdateRecomputesCode(t *testing.T) {
	repo := &mockCourseRepo{
		courses: map[string]models.CourseDetail{"c1": {Course: models.Course{
			ID: "c1", SubjectID: testSubjectID, TeacherID: testTeacherID,
			Grade: models.Grade10, Batch: 2, CourseType: models.CourseTypeTheory,
			Name: "Grade 10 Mathematics - John Doe (Batch 2)", Code: "G10-MATH-JD-B2",
		}}},
		byCode: map[string]string{"G10-MATH-JD-B2": "c1"},
	}
	svc, _ := newCourseService(repo)

	course, err := svc.Update(context.Background(), "c1", CourseRequest{
		SubjectID:  testSubjectID,
		TeacherID:  testTeacherID,
		Grade:      models.Grade11,
		Batch:      3,
		CourseType: models.CourseTypeRevision,
	})
	require.NoError(t, err)
	assert.Equal(t, "G11-MATH-JD-B3", course.Code)
	assert.Equal(t, "Grade 11 Mathematics - John Doe (Batch 3)", course.Name)
}

func TestCourseServiceAvailableForUnknownStudent(t *testing.T) {
	repo := &mockCourseRepo{}
	svc, _ := newCourseService(repo)

	_, _, err := svc.AvailableForStudent(context.Background(), "missing", query.Params{Page: 1, Limit: 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)
}

func TestCourseServiceSaveTopicsReplaces(t *testing.T) {
	repo := &mockCourseRepo{
		courses: map[string]models.CourseDetail{"c1": {Course: models.Course{ID: "c1"}}},
		topics:  map[string][]models.CourseTopic{"c1": {{CourseID: "c1", Title: "Old"}}},
	}
	svc, _ := newCourseService(repo)

	topics, err := svc.SaveTopics(context.Background(), "c1", CourseTopicsRequest{Topics: []CourseTopicRequest{
		{Title: "Algebra", SortOrder: 0},
		{Title: "Geometry", SortOrder: 1},
	}})
	require.NoError(t, err)
	assert.Len(t, topics, 2)
	assert.Len(t, repo.topics["c1"], 2)
	assert.Equal(t, "Algebra", repo.topics["c1"][0].Title)
}
