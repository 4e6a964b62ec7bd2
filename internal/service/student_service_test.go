package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/query"
)

type mockStudentRepo struct {
	students map[string]models.StudentDetail
	byNumber map[string]string
	lastUser *models.User
	deletes  []string
}

func (m *mockStudentRepo) List(ctx context.Context, params query.Params) ([]models.StudentDetail, int, error) {
	out := make([]models.StudentDetail, 0, len(m.students))
	for _, d := range m.students {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if d, ok := m.students[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error) {
	if id, ok := m.byNumber[number]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student, user *models.User) error {
	if m.students == nil {
		m.students = make(map[string]models.StudentDetail)
	}
	if m.byNumber == nil {
		m.byNumber = make(map[string]string)
	}
	if user.ID == "" {
		user.ID = "user-" + student.StudentNumber
	}
	if student.ID == "" {
		student.ID = "student-" + student.StudentNumber
	}
	student.UserID = user.ID
	m.lastUser = user
	m.students[student.ID] = models.StudentDetail{
		Student: *student,
		User:    models.UserRef{ID: user.ID, Username: user.Username, Email: user.Email},
	}
	m.byNumber[student.StudentNumber] = student.ID
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student, user *models.User) error {
	m.lastUser = user
	m.students[student.ID] = models.StudentDetail{
		Student: *student,
		User:    models.UserRef{ID: user.ID, Username: user.Username, Email: user.Email},
	}
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	d, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	delete(m.byNumber, d.StudentNumber)
	m.deletes = append(m.deletes, id)
	return nil
}

type mockStudentUserRepo struct {
	usernames map[string]string
	emails    map[string]string
}

func (m *mockStudentUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (bool, bool, error) {
	usernameTaken := false
	if id, ok := m.usernames[username]; ok && (excludeID == "" || id != excludeID) {
		usernameTaken = true
	}
	emailTaken := false
	if id, ok := m.emails[email]; ok && (excludeID == "" || id != excludeID) {
		emailTaken = true
	}
	return usernameTaken, emailTaken, nil
}

func newStudentService() (*StudentService, *mockStudentRepo, *mockStudentUserRepo) {
	repo := &mockStudentRepo{
		students: map[string]models.StudentDetail{},
		byNumber: map[string]string{},
	}
	users := &mockStudentUserRepo{usernames: map[string]string{}, emails: map[string]string{}}
	return NewStudentService(repo, users, nil, NewValidator(), zap.NewNop()), repo, users
}

func studentCreateReq() CreateStudentRequest {
	return CreateStudentRequest{
		StudentNumber: "STU-001",
		Grade:         models.Grade10,
		UserCreate: StudentUserCreate{
			Username: "kasun.silva",
			Email:    "kasun@example.com",
			Password: "s3cret-pass",
		},
	}
}

func TestStudentServiceCreate(t *testing.T) {
	svc, repo, _ := newStudentService()

	detail, err := svc.Create(context.Background(), studentCreateReq())
	require.NoError(t, err)
	assert.Equal(t, "STU-001", detail.StudentNumber)
	assert.Equal(t, models.Grade10, detail.Grade)
	assert.Equal(t, "kasun.silva", detail.User.Username)

	require.NotNil(t, repo.lastUser)
	assert.Equal(t, models.RoleKeyStudent, repo.lastUser.RoleKey)
	assert.True(t, repo.lastUser.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.lastUser.PasswordHash), []byte("s3cret-pass")))
}

func TestStudentServiceCreateDuplicateNumber(t *testing.T) {
	svc, _, _ := newStudentService()
	_, err := svc.Create(context.Background(), studentCreateReq())
	require.NoError(t, err)

	req := studentCreateReq()
	req.UserCreate.Username = "other.user"
	req.UserCreate.Email = "other@example.com"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Contains(t, appErr.Validation["student_number"], "Student Number already exists!")
}

func TestStudentServiceCreateDuplicateCredentials(t *testing.T) {
	svc, _, users := newStudentService()
	users.usernames["kasun.silva"] = "user-existing"
	users.emails["someone@example.com"] = "user-existing"

	_, err := svc.Create(context.Background(), studentCreateReq())
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Validation["username"], "Username already exists!")

	req := studentCreateReq()
	req.UserCreate.Username = "fresh.name"
	req.UserCreate.Email = "someone@example.com"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Validation["email"], "Email already exists!")
}

func TestStudentServiceUpdateKeepsStudentNumber(t *testing.T) {
	svc, repo, _ := newStudentService()
	created, err := svc.Create(context.Background(), studentCreateReq())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateStudentRequest{
		Grade:    models.Grade11,
		Username: "kasun.renamed",
		Email:    "kasun.renamed@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "STU-001", updated.StudentNumber)
	assert.Equal(t, models.Grade11, updated.Grade)
	assert.Equal(t, "kasun.renamed", updated.User.Username)

	stored := repo.students[created.ID]
	assert.Equal(t, "STU-001", stored.StudentNumber)
}

func TestStudentServiceUpdateUnknownStudent(t *testing.T) {
	svc, _, _ := newStudentService()
	_, err := svc.Update(context.Background(), "missing", UpdateStudentRequest{
		Grade:    models.Grade11,
		Username: "nobody",
		Email:    "nobody@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestStudentServiceDelete(t *testing.T) {
	svc, repo, _ := newStudentService()
	created, err := svc.Create(context.Background(), studentCreateReq())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Equal(t, []string{created.ID}, repo.deletes)

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
