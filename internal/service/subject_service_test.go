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

type mockSubjectRepo struct {
	subjects map[string]models.Subject
	byCode   map[string]string
}

func (m *mockSubjectRepo) List(ctx context.Context, params query.Params) ([]models.Subject, int, error) {
	out := make([]models.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	if id, ok := m.byCode[code]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	if m.subjects == nil {
		m.subjects = make(map[string]models.Subject)
	}
	if m.byCode == nil {
		m.byCode = make(map[string]string)
	}
	if subject.ID == "" {
		subject.ID = "generated"
	}
	m.subjects[subject.ID] = *subject
	m.byCode[subject.Code] = subject.ID
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id string) error {
	s, ok := m.subjects[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.subjects, id)
	delete(m.byCode, s.Code)
	return nil
}

func TestSubjectServiceCreateDerivesCode(t *testing.T) {
	repo := &mockSubjectRepo{}
	svc := NewSubjectService(repo, nil, NewValidator(), zap.NewNop())

	subject, err := svc.Create(context.Background(), SubjectRequest{Name: "Pure Mathematics"})
	require.NoError(t, err)
	assert.Equal(t, "PURE-MATHEMATICS", subject.Code)
}

func TestSubjectServiceCreateDuplicateCode(t *testing.T) {
	repo := &mockSubjectRepo{}
	svc := NewSubjectService(repo, nil, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), SubjectRequest{Name: "Physics"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), SubjectRequest{Name: "Physics"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Contains(t, appErr.Validation["name"], "A subject with this name already exists!")
}

func TestSubjectServiceUpdateKeepsCode(t *testing.T) {
	repo := &mockSubjectRepo{}
	svc := NewSubjectService(repo, nil, NewValidator(), zap.NewNop())

	created, err := svc.Create(context.Background(), SubjectRequest{Name: "I.C.T"})
	require.NoError(t, err)
	require.Equal(t, "ICT", created.Code)

	updated, err := svc.Update(context.Background(), created.ID, SubjectRequest{Name: "Information Technology"})
	require.NoError(t, err)
	assert.Equal(t, "Information Technology", updated.Name)
	assert.Equal(t, "ICT", updated.Code)
	assert.Equal(t, "ICT", repo.subjects[created.ID].Code)
}

func TestSubjectServiceUpdateUnknown(t *testing.T) {
	repo := &mockSubjectRepo{}
	svc := NewSubjectService(repo, nil, NewValidator(), zap.NewNop())

	_, err := svc.Update(context.Background(), "missing", SubjectRequest{Name: "Physics"})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
