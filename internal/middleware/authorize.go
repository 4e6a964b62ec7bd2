package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/internal/service"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/response"
)

// Authorize checks the caller's role against the catalogued (method, path)
// grants. The super admin role bypasses the check entirely.
func Authorize(roles *service.RoleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if claims.RoleKey == models.RoleKeySuperAdmin {
			c.Next()
			return
		}

		granted, err := roles.AuthorizedSet(c.Request.Context(), claims.RoleKey)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		route := models.NormalizeRoute(c.FullPath())
		method := c.Request.Method
		for _, api := range granted {
			if strings.EqualFold(api.Method, method) && models.NormalizeRoute(api.Path) == route {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
