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

type roleRepository interface {
	List(ctx context.Context, params query.Params) ([]models.Role, int, error)
	FindByID(ctx context.Context, id string) (*models.Role, error)
	ExistsByKey(ctx context.Context, key, excludeID string) (bool, error)
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error
	CountUsers(ctx context.Context, roleID string) (int, error)
	ListAuthorized(ctx context.Context, roleID string) ([]models.ApiInfo, error)
	AuthorizedSetByKey(ctx context.Context, roleKey string) ([]models.ApiInfo, error)
	ReplaceApis(ctx context.Context, roleID string, apis []models.ApiInfo) error
}

// RoleRequest holds the payload for creating or updating roles. The key is
// derived from the name and cannot be set directly.
type RoleRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// SaveRoleApisRequest replaces a role's full authorization set.
type SaveRoleApisRequest struct {
	Apis []models.ApiInfo `json:"apis" validate:"dive"`
}

// RoleService handles role and authorization-set use-cases.
type RoleService struct {
	repo      roleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoleService constructs the role service.
func NewRoleService(repo roleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RoleService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type rolePage struct {
	Roles []models.Role     `json:"roles"`
	Meta  *models.Paginator `json:"meta"`
}

// List returns roles and pagination metadata.
func (s *RoleService) List(ctx context.Context, params query.Params) ([]models.Role, *models.Paginator, error) {
	key := ListKey("roles", params)
	var cached rolePage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Roles, cached.Meta, nil
	}

	roles, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, rolePage{Roles: roles, Meta: meta}, 0)
	return roles, meta, nil
}

// Get returns one role.
func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	return role, nil
}

// Create registers a role with its derived key.
func (s *RoleService) Create(ctx context.Context, req RoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	key := RoleKey(req.Name)
	if key == "" {
		return nil, appErrors.FieldError("name", "Name is required!")
	}
	exists, err := s.repo.ExistsByKey(ctx, key, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate role key")
	}
	if exists {
		return nil, appErrors.FieldConflict("name", "A role with this name already exists!")
	}
	role := &models.Role{Name: req.Name, Key: key, Description: req.Description}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create role")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("roles"))
	return role, nil
}

// Update renames a role. The key follows the new name; the super_admin
// role is fixed and cannot be renamed.
func (s *RoleService) Update(ctx context.Context, id string, req RoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	if role.Key == models.RoleKeySuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "the super admin role cannot be modified")
	}

	oldKey := role.Key
	key := RoleKey(req.Name)
	exists, err := s.repo.ExistsByKey(ctx, key, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate role key")
	}
	if exists {
		return nil, appErrors.FieldConflict("name", "A role with this name already exists!")
	}

	role.Name = req.Name
	role.Key = key
	role.Description = req.Description
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("roles"))
	_ = s.cache.Forget(ctx, AuthzKey(oldKey))
	_ = s.cache.Forget(ctx, AuthzKey(key))
	return role, nil
}

// Delete removes a role. The super_admin role and roles still held by
// users are protected.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	if role.Key == models.RoleKeySuperAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "the super admin role cannot be deleted")
	}
	count, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count role users")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "role is still assigned to users")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete role")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("roles"))
	_ = s.cache.Forget(ctx, AuthzKey(role.Key))
	return nil
}

// ListApis returns the authorization set granted to a role.
func (s *RoleService) ListApis(ctx context.Context, id string) ([]models.ApiInfo, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	apis, err := s.repo.ListAuthorized(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list role apis")
	}
	return apis, nil
}

// SaveApis replaces a role's full authorization set and drops the cached
// set so the next request re-reads it.
func (s *RoleService) SaveApis(ctx context.Context, id string, req SaveRoleApisRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	if err := s.repo.ReplaceApis(ctx, id, req.Apis); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save role apis")
	}
	_ = s.cache.Forget(ctx, AuthzKey(role.Key))
	return nil
}

// AuthorizedSet resolves a role's grants by key, read through the cache.
// The authorization middleware calls this on every guarded request.
func (s *RoleService) AuthorizedSet(ctx context.Context, roleKey string) ([]models.ApiInfo, error) {
	key := AuthzKey(roleKey)
	var cached []models.ApiInfo
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	apis, err := s.repo.AuthorizedSetByKey(ctx, roleKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role grants")
	}
	_ = s.cache.Set(ctx, key, apis, 0)
	return apis, nil
}
