package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/query"
)

type userRepository interface {
	List(ctx context.Context, params query.Params) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (bool, bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type userRoleRepository interface {
	ExistsByKey(ctx context.Context, key, excludeID string) (bool, error)
}

// CreateUserRequest holds the payload for creating users.
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
	RoleKey   string `json:"role_key" validate:"required"`
}

// UpdateUserRequest holds the payload for updating users.
type UpdateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	RoleKey   string `json:"role_key" validate:"required"`
	Active    bool   `json:"active"`
}

// UserService handles user administration use-cases.
type UserService struct {
	repo      userRepository
	roles     userRoleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userRepository, roles userRoleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, roles: roles, cache: cache, validator: validate, logger: logger}
}

type userPage struct {
	Users []models.User     `json:"users"`
	Meta  *models.Paginator `json:"meta"`
}

// List returns users and pagination metadata.
func (s *UserService) List(ctx context.Context, params query.Params) ([]models.User, *models.Paginator, error) {
	key := ListKey("users", params)
	var cached userPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Users, cached.Meta, nil
	}

	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	meta := models.NewPaginator(params.Page, params.Limit, total)
	_ = s.cache.Set(ctx, key, userPage{Users: users, Meta: meta}, 0)
	return users, meta, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create registers a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.checkRole(ctx, req.RoleKey); err != nil {
		return nil, err
	}
	usernameTaken, emailTaken, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate user")
	}
	if usernameTaken {
		return nil, appErrors.FieldConflict("username", "Username already exists!")
	}
	if emailTaken {
		return nil, appErrors.FieldConflict("email", "Email already exists!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		RoleKey:      req.RoleKey,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("users"))
	return user, nil
}

// Update modifies an existing user.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.checkRole(ctx, req.RoleKey); err != nil {
		return nil, err
	}
	usernameTaken, emailTaken, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate user")
	}
	if usernameTaken {
		return nil, appErrors.FieldConflict("username", "Username already exists!")
	}
	if emailTaken {
		return nil, appErrors.FieldConflict("email", "Email already exists!")
	}

	user.Username = req.Username
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.RoleKey = req.RoleKey
	user.Active = req.Active
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("users"))
	return user, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	_ = s.cache.Invalidate(ctx, ResourcePattern("users"))
	return nil
}

func (s *UserService) checkRole(ctx context.Context, roleKey string) error {
	exists, err := s.roles.ExistsByKey(ctx, roleKey, "")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate role")
	}
	if !exists {
		return appErrors.FieldError("role_key", "Role does not exist!")
	}
	return nil
}
