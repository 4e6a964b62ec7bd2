package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/internal/service"
	"github.com/classora/classora-api/pkg/query"
)

type stubRoleRepo struct {
	grants map[string][]models.ApiInfo
}

func (s *stubRoleRepo) List(ctx context.Context, params query.Params) ([]models.Role, int, error) {
	return nil, 0, nil
}

func (s *stubRoleRepo) FindByID(ctx context.Context, id string) (*models.Role, error) {
	return nil, nil
}

func (s *stubRoleRepo) ExistsByKey(ctx context.Context, key, excludeID string) (bool, error) {
	return false, nil
}

func (s *stubRoleRepo) Create(ctx context.Context, role *models.Role) error { return nil }

func (s *stubRoleRepo) Update(ctx context.Context, role *models.Role) error { return nil }

func (s *stubRoleRepo) Delete(ctx context.Context, id string) error { return nil }

func (s *stubRoleRepo) CountUsers(ctx context.Context, roleID string) (int, error) { return 0, nil }

func (s *stubRoleRepo) ListAuthorized(ctx context.Context, roleID string) ([]models.ApiInfo, error) {
	return nil, nil
}

func (s *stubRoleRepo) AuthorizedSetByKey(ctx context.Context, roleKey string) ([]models.ApiInfo, error) {
	return s.grants[roleKey], nil
}

func (s *stubRoleRepo) ReplaceApis(ctx context.Context, roleID string, apis []models.ApiInfo) error {
	return nil
}

func authorizeRouter(roleKey string, grants map[string][]models.ApiInfo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	roles := service.NewRoleService(&stubRoleRepo{grants: grants}, nil, nil, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if roleKey != "" {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", RoleKey: roleKey})
		}
	})
	router.Use(Authorize(roles))
	router.GET("/api/v1/students/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.DELETE("/api/v1/students/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuthorizeGrantsCataloguedRoute(t *testing.T) {
	grants := map[string][]models.ApiInfo{
		"front_desk": {{Method: "GET", Path: "/api/v1/students/{id}"}},
	}
	router := authorizeRouter("front_desk", grants)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/42", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestAuthorizeRejectsUngrantedMethod(t *testing.T) {
	grants := map[string][]models.ApiInfo{
		"front_desk": {{Method: "GET", Path: "/api/v1/students/{id}"}},
	}
	router := authorizeRouter("front_desk", grants)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/students/42", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestAuthorizeSuperAdminBypass(t *testing.T) {
	router := authorizeRouter(models.RoleKeySuperAdmin, nil)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/students/42", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestAuthorizeMissingClaims(t *testing.T) {
	router := authorizeRouter("", nil)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/42", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}
