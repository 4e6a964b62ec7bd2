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

type mockRoleRepo struct {
	roles       map[string]models.Role
	byKey       map[string]string
	users       map[string]int
	apis        map[string][]models.ApiInfo
	deletes     []string
	lastReplace struct {
		roleID string
		apis   []models.ApiInfo
	}
}

func (m *mockRoleRepo) List(ctx context.Context, params query.Params) ([]models.Role, int, error) {
	out := make([]models.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockRoleRepo) FindByID(ctx context.Context, id string) (*models.Role, error) {
	if r, ok := m.roles[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoleRepo) ExistsByKey(ctx context.Context, key, excludeID string) (bool, error) {
	if id, ok := m.byKey[key]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRoleRepo) Create(ctx context.Context, role *models.Role) error {
	if m.roles == nil {
		m.roles = make(map[string]models.Role)
	}
	if m.byKey == nil {
		m.byKey = make(map[string]string)
	}
	if role.ID == "" {
		role.ID = "generated"
	}
	m.roles[role.ID] = *role
	m.byKey[role.Key] = role.ID
	return nil
}

func (m *mockRoleRepo) Update(ctx context.Context, role *models.Role) error {
	old := m.roles[role.ID]
	delete(m.byKey, old.Key)
	m.roles[role.ID] = *role
	m.byKey[role.Key] = role.ID
	return nil
}

func (m *mockRoleRepo) Delete(ctx context.Context, id string) error {
	r, ok := m.roles[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.roles, id)
	delete(m.byKey, r.Key)
	m.deletes = append(m.deletes, id)
	return nil
}

func (m *mockRoleRepo) CountUsers(ctx context.Context, roleID string) (int, error) {
	return m.users[roleID], nil
}

func (m *mockRoleRepo) ListAuthorized(ctx context.Context, roleID string) ([]models.ApiInfo, error) {
	return m.apis[roleID], nil
}

func (m *mockRoleRepo) AuthorizedSetByKey(ctx context.Context, roleKey string) ([]models.ApiInfo, error) {
	if id, ok := m.byKey[roleKey]; ok {
		return m.apis[id], nil
	}
	return nil, nil
}

func (m *mockRoleRepo) ReplaceApis(ctx context.Context, roleID string, apis []models.ApiInfo) error {
	if m.apis == nil {
		m.apis = make(map[string][]models.ApiInfo)
	}
	m.apis[roleID] = apis
	m.lastReplace.roleID = roleID
	m.lastReplace.apis = apis
	return nil
}

func seededRoleRepo() *mockRoleRepo {
	return &mockRoleRepo{
		roles: map[string]models.Role{
			"role-super": {ID: "role-super", Name: "Super Admin", Key: models.RoleKeySuperAdmin},
			"role-desk":  {ID: "role-desk", Name: "Front Desk", Key: "front_desk"},
		},
		byKey: map[string]string{
			models.RoleKeySuperAdmin: "role-super",
			"front_desk":             "role-desk",
		},
		users: map[string]int{},
		apis:  map[string][]models.ApiInfo{},
	}
}

func TestRoleServiceCreateDerivesKey(t *testing.T) {
	repo := seededRoleRepo()
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	role, err := svc.Create(context.Background(), RoleRequest{Name: "Class Coordinator", Description: "Handles schedules"})
	require.NoError(t, err)
	assert.Equal(t, "class_coordinator", role.Key)
	assert.Equal(t, "Class Coordinator", role.Name)
}

func TestRoleServiceCreateDuplicateName(t *testing.T) {
	repo := seededRoleRepo()
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), RoleRequest{Name: "Front Desk"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Contains(t, appErr.Validation["name"], "A role with this name already exists!")
}

func TestRoleServiceUpdateRefusesSuperAdmin(t *testing.T) {
	repo := seededRoleRepo()
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	_, err := svc.Update(context.Background(), "role-super", RoleRequest{Name: "Renamed"})
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
	assert.Equal(t, models.RoleKeySuperAdmin, repo.roles["role-super"].Key)
}

func TestRoleServiceUpdateRederivesKey(t *testing.T) {
	repo := seededRoleRepo()
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	role, err := svc.Update(context.Background(), "role-desk", RoleRequest{Name: "Reception Desk"})
	require.NoError(t, err)
	assert.Equal(t, "reception_desk", role.Key)
	assert.Equal(t, "role-desk", repo.byKey["reception_desk"])
	_, stale := repo.byKey["front_desk"]
	assert.False(t, stale)
}

func TestRoleServiceDeleteRefusesSuperAdmin(t *testing.T) {
	repo := seededRoleRepo()
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	err := svc.Delete(context.Background(), "role-super")
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
	assert.Empty(t, repo.deletes)
}

func TestRoleServiceDeleteRefusesAssignedRole(t *testing.T) {
	repo := seededRoleRepo()
	repo.users["role-desk"] = 3
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	err := svc.Delete(context.Background(), "role-desk")
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
	assert.Empty(t, repo.deletes)

	repo.users["role-desk"] = 0
	require.NoError(t, svc.Delete(context.Background(), "role-desk"))
	assert.Equal(t, []string{"role-desk"}, repo.deletes)
}

func TestRoleServiceSaveApisReplacesSet(t *testing.T) {
	repo := seededRoleRepo()
	repo.apis["role-desk"] = []models.ApiInfo{
		{Method: "GET", Path: "/api/v1/students"},
		{Method: "POST", Path: "/api/v1/students"},
	}
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	next := []models.ApiInfo{{Method: "GET", Path: "/api/v1/halls"}}
	err := svc.SaveApis(context.Background(), "role-desk", SaveRoleApisRequest{Apis: next})
	require.NoError(t, err)

	assert.Equal(t, "role-desk", repo.lastReplace.roleID)
	assert.Equal(t, next, repo.lastReplace.apis)
	assert.Len(t, repo.apis["role-desk"], 1)
}

func TestRoleServiceSaveApisUnknownRole(t *testing.T) {
	repo := seededRoleRepo()
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	err := svc.SaveApis(context.Background(), "missing", SaveRoleApisRequest{})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestRoleServiceAuthorizedSet(t *testing.T) {
	repo := seededRoleRepo()
	repo.apis["role-desk"] = []models.ApiInfo{{Method: "GET", Path: "/api/v1/students"}}
	svc := NewRoleService(repo, nil, NewValidator(), zap.NewNop())

	apis, err := svc.AuthorizedSet(context.Background(), "front_desk")
	require.NoError(t, err)
	require.Len(t, apis, 1)
	assert.Equal(t, "/api/v1/students", apis[0].Path)
}
