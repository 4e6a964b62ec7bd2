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

type hallRepository interface {
	List(ctx context.Context, params query.Params) ([]models.Hall, int, error)
	FindByID(ctx context.Context, id string) (*models.Hall, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, hall *models.Hall) error
	Update(ctx context.Context, hall *models.Hall) error
	Delete(ctx context.Context, id string) error
}

// HallRequest holds the payload for creating or updating halls.
type HallRequest struct {
	Name     string `json:"name" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}

// HallService handles hall use-cases.
type HallService struct {
	repo      hallRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHallService constructs the hall service.
func NewHallService(repo hallRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *HallService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HallService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type hallPage struct {
	Halls []models.Hall     `json:"halls"`
	Meta  *models.Paginator `json:"meta"`
}

// List returns halls and pagination metadata, read through the cache.
func (s *HallService) List(ctx context.Context, params query.Params) ([]models.Hall, *models.Paginator, error) {
	key := ListKey("halls", params)
	var cached hallPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Halls, cached.Meta, nil
	}

	halls, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list halls")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, hallPage{Halls: halls, Meta: meta}, 0)
	return halls, meta, nil
}

// Get returns one hall.
func (s *HallService) Get(ctx context.Context, id string) (*models.Hall, error) {
	hall, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hall not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hall")
	}
	return hall, nil
}

// Create registers a new hall.
func (s *HallService) Create(ctx context.Context, req HallRequest) (*models.Hall, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate hall name")
	}
	if exists {
		return nil, appErrors.FieldConflict("name", "Hall name already exists!")
	}
	hall := &models.Hall{Name: req.Name, Capacity: req.Capacity}
	if err := s.repo.Create(ctx, hall); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hall")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("halls"))
	return hall, nil
}

// Update modifies an existing hall.
func (s *HallService) Update(ctx context.Context, id string, req HallRequest) (*models.Hall, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	hall, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hall not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hall")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate hall name")
	}
	if exists {
		return nil, appErrors.FieldConflict("name", "Hall name already exists!")
	}
	hall.Name = req.Name
	hall.Capacity = req.Capacity
	if err := s.repo.Update(ctx, hall); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hall")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("halls"))
	return hall, nil
}

// Delete removes a hall.
func (s *HallService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "hall not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hall")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete hall")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("halls"))
	return nil
}
