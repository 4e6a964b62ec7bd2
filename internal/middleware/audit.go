package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/internal/service"
)

// Audit enqueues one audit-log row per handled request. The row carries the
// route template so the background worker can resolve module and summary
// from the endpoint catalog; persistence is asynchronous and best-effort.
func Audit(audits *service.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		username := "anonymous"
		if claimsValue, ok := c.Get(ContextUserKey); ok {
			if claims, ok := claimsValue.(*models.JWTClaims); ok && claims.Username != "" {
				username = claims.Username
			}
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		audits.Record(models.AuditLog{
			Username:     username,
			Method:       c.Request.Method,
			Path:         path,
			Status:       c.Writer.Status(),
			ResponseTime: time.Since(start).Seconds(),
			CreatedAt:    start,
		})
	}
}
