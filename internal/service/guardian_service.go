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

type guardianRepository interface {
	List(ctx context.Context, params query.Params) ([]models.Guardian, int, error)
	FindByID(ctx context.Context, id string) (*models.Guardian, error)
	ExistsByNIC(ctx context.Context, nic, excludeID string) (bool, error)
	Create(ctx context.Context, guardian *models.Guardian) error
	Update(ctx context.Context, guardian *models.Guardian) error
	Delete(ctx context.Context, id string) error
}

// GuardianRequest holds the payload for creating or updating guardians.
type GuardianRequest struct {
	FirstName   string            `json:"first_name" validate:"required"`
	LastName    string            `json:"last_name" validate:"required"`
	NICNumber   string            `json:"nic_number" validate:"required,nic"`
	PhoneNumber string            `json:"phone_number" validate:"required,phone10"`
	Gender      models.GenderType `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
}

// GuardianService handles guardian use-cases.
type GuardianService struct {
	repo      guardianRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGuardianService constructs the guardian service.
func NewGuardianService(repo guardianRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GuardianService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuardianService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type guardianPage struct {
	Guardians []models.Guardian `json:"guardians"`
	Meta      *models.Paginator `json:"meta"`
}

// List returns guardians and pagination metadata.
func (s *GuardianService) List(ctx context.Context, params query.Params) ([]models.Guardian, *models.Paginator, error) {
	key := ListKey("guardians", params)
	var cached guardianPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Guardians, cached.Meta, nil
	}

	guardians, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list guardians")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, guardianPage{Guardians: guardians, Meta: meta}, 0)
	return guardians, meta, nil
}

// Get returns one guardian.
func (s *GuardianService) Get(ctx context.Context, id string) (*models.Guardian, error) {
	guardian, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
	}
	return guardian, nil
}

// Create registers a new guardian.
func (s *GuardianService) Create(ctx context.Context, req GuardianRequest) (*models.Guardian, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	exists, err := s.repo.ExistsByNIC(ctx, req.NICNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nic number")
	}
	if exists {
		return nil, appErrors.FieldConflict("nic_number", "NIC number already exists!")
	}
	guardian := &models.Guardian{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		NICNumber:   req.NICNumber,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
	}
	if err := s.repo.Create(ctx, guardian); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create guardian")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("guardians"))
	return guardian, nil
}

// Update modifies an existing guardian.
func (s *GuardianService) Update(ctx context.Context, id string, req GuardianRequest) (*models.Guardian, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	guardian, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
	}
	exists, err := s.repo.ExistsByNIC(ctx, req.NICNumber, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nic number")
	}
	if exists {
		return nil, appErrors.FieldConflict("nic_number", "NIC number already exists!")
	}
	guardian.FirstName = req.FirstName
	guardian.LastName = req.LastName
	guardian.NICNumber = req.NICNumber
	guardian.PhoneNumber = req.PhoneNumber
	guardian.Gender = req.Gender
	if err := s.repo.Update(ctx, guardian); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update guardian")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("guardians"))
	return guardian, nil
}

// Delete removes a guardian.
func (s *GuardianService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete guardian")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("guardians"))
	return nil
}
