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

type mockHallRepo struct {
	halls    map[string]models.Hall
	byName   map[string]string
	deletes  []string
	listErr  error
	lastList query.Params
}

func (m *mockHallRepo) List(ctx context.Context, params query.Params) ([]models.Hall, int, error) {
	m.lastList = params
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	out := make([]models.Hall, 0, len(m.halls))
	for _, h := range m.halls {
		out = append(out, h)
	}
	return out, len(out), nil
}

func (m *mockHallRepo) FindByID(ctx context.Context, id string) (*models.Hall, error) {
	if h, ok := m.halls[id]; ok {
		return &h, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHallRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	if id, ok := m.byName[name]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockHallRepo) Create(ctx context.Context, hall *models.Hall) error {
	if m.halls == nil {
		m.halls = make(map[string]models.Hall)
	}
	if hall.ID == "" {
		hall.ID = "generated"
	}
	m.halls[hall.ID] = *hall
	return nil
}

func (m *mockHallRepo) Update(ctx context.Context, hall *models.Hall) error {
	m.halls[hall.ID] = *hall
	return nil
}

func (m *mockHallRepo) Delete(ctx context.Context, id string) error {
	m.deletes = append(m.deletes, id)
	delete(m.halls, id)
	return nil
}

func TestHallServiceCreate(t *testing.T) {
	repo := &mockHallRepo{byName: map[string]string{}}
	svc := NewHallService(repo, nil, NewValidator(), zap.NewNop())

	hall, err := svc.Create(context.Background(), HallRequest{Name: "Main Hall", Capacity: 120})
	require.NoError(t, err)
	assert.NotEmpty(t, hall.ID)
	assert.Equal(t, 120, hall.Capacity)
}

func TestHallServiceCreateValidation(t *testing.T) {
	repo := &mockHallRepo{}
	svc := NewHallService(repo, nil, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), HallRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Validation["name"], "Name is required!")
	assert.Empty(t, repo.halls)
}

func TestHallServiceCreateDuplicateName(t *testing.T) {
	repo := &mockHallRepo{byName: map[string]string{"Main Hall": "other"}}
	svc := NewHallService(repo, nil, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), HallRequest{Name: "Main Hall", Capacity: 50})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Status, appErr.Status)
	assert.Contains(t, appErr.Validation["name"], "Hall name already exists!")
}

func TestHallServiceUpdateKeepsOwnName(t *testing.T) {
	repo := &mockHallRepo{
		halls:  map[string]models.Hall{"h1": {ID: "h1", Name: "Main Hall", Capacity: 80}},
		byName: map[string]string{"Main Hall": "h1"},
	}
	svc := NewHallService(repo, nil, NewValidator(), zap.NewNop())

	hall, err := svc.Update(context.Background(), "h1", HallRequest{Name: "Main Hall", Capacity: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, hall.Capacity)
}

func TestHallServiceDeleteCallsRepoOnce(t *testing.T) {
	repo := &mockHallRepo{halls: map[string]models.Hall{"h1": {ID: "h1", Name: "Main Hall"}}}
	svc := NewHallService(repo, nil, NewValidator(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "h1"))
	assert.Equal(t, []string{"h1"}, repo.deletes)

	err := svc.Delete(context.Background(), "h1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)
	assert.Len(t, repo.deletes, 1)
}
