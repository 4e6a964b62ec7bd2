package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/service"
	"github.com/classora/classora-api/pkg/response"
)

// AuditLogHandler exposes the read-only audit trail.
type AuditLogHandler struct {
	audits *service.AuditService
}

// NewAuditLogHandler constructs AuditLogHandler.
func NewAuditLogHandler(audits *service.AuditService) *AuditLogHandler {
	return &AuditLogHandler{audits: audits}
}

// List godoc
// @Summary List audit logs
// @Tags AuditLogs
// @Produce json
// @Param search query string false "field:value;field2:value2"
// @Param orderBy query string false "Sort column"
// @Param sortedBy query string false "asc|desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /auditlogs [get]
func (h *AuditLogHandler) List(c *gin.Context) {
	logs, meta, err := h.audits.List(c.Request.Context(), listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, meta)
}
