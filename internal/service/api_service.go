package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/query"
)

type apiRepository interface {
	List(ctx context.Context, params query.Params) ([]models.Api, int, error)
	ListAll(ctx context.Context) ([]models.Api, error)
	FindByID(ctx context.Context, id string) (*models.Api, error)
	ExistsByMethodPath(ctx context.Context, method, path, excludeID string) (bool, error)
	Create(ctx context.Context, api *models.Api) error
	Update(ctx context.Context, api *models.Api) error
	Delete(ctx context.Context, id string) error
}

// ApiRequest holds the payload for creating or updating catalog entries.
type ApiRequest struct {
	Path    string           `json:"path" validate:"required"`
	Method  models.ApiMethod `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE"`
	Tags    []string         `json:"tags"`
	Summary string           `json:"summary" validate:"required"`
}

// ApiService manages the authorizable endpoint catalog.
type ApiService struct {
	repo      apiRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApiService constructs the api catalog service.
func NewApiService(repo apiRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ApiService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApiService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type apiPage struct {
	Apis []models.Api      `json:"apis"`
	Meta *models.Paginator `json:"meta"`
}

// List returns catalog entries and pagination metadata.
func (s *ApiService) List(ctx context.Context, params query.Params) ([]models.Api, *models.Paginator, error) {
	key := ListKey("apis", params)
	var cached apiPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Apis, cached.Meta, nil
	}

	apis, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list apis")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, apiPage{Apis: apis, Meta: meta}, 0)
	return apis, meta, nil
}

// ListAll returns the full catalog for the authorization screen.
func (s *ApiService) ListAll(ctx context.Context) ([]models.Api, error) {
	apis, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list apis")
	}
	return apis, nil
}

// Get returns one catalog entry.
func (s *ApiService) Get(ctx context.Context, id string) (*models.Api, error) {
	api, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "api not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load api")
	}
	return api, nil
}

// Create registers a catalog entry.
func (s *ApiService) Create(ctx context.Context, req ApiRequest) (*models.Api, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	exists, err := s.repo.ExistsByMethodPath(ctx, string(req.Method), req.Path, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate api")
	}
	if exists {
		return nil, appErrors.FieldConflict("path", "This method and path are already catalogued!")
	}
	api := &models.Api{Path: req.Path, Method: req.Method, Tags: pq.StringArray(req.Tags), Summary: req.Summary}
	if err := s.repo.Create(ctx, api); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create api")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("apis"))
	return api, nil
}

// Update rewrites a catalog entry.
func (s *ApiService) Update(ctx context.Context, id string, req ApiRequest) (*models.Api, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	api, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "api not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load api")
	}
	exists, err := s.repo.ExistsByMethodPath(ctx, string(req.Method), req.Path, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate api")
	}
	if exists {
		return nil, appErrors.FieldConflict("path", "This method and path are already catalogued!")
	}
	api.Path = req.Path
	api.Method = req.Method
	api.Tags = pq.StringArray(req.Tags)
	api.Summary = req.Summary
	if err := s.repo.Update(ctx, api); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update api")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("apis"))
	return api, nil
}

// Delete removes a catalog entry along with any role grants for it.
func (s *ApiService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "api not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load api")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete api")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("apis"))
	// Grants changed underneath every role; drop all cached sets.
	_ = s.cache.Invalidate(ctx, cacheKeyPrefix+":authz:*")
	return nil
}
