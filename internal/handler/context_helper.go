package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/middleware"
	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/query"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func listParams(c *gin.Context) query.Params {
	return query.Parse(c.Request.URL.Query())
}
