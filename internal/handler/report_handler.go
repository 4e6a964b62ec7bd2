package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/service"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/response"
)

// ReportHandler renders downloadable audit-log and payment reports.
type ReportHandler struct {
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(exports *service.ExportService) *ReportHandler {
	return &ReportHandler{exports: exports}
}

// ExportAuditLogs godoc
// @Summary Export audit logs as CSV or PDF
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body service.ExportRequest true "Export format"
// @Param search query string false "field:value;field2:value2"
// @Success 200 {object} response.Envelope
// @Router /reports/auditlogs [post]
func (h *ReportHandler) ExportAuditLogs(c *gin.Context) {
	var req service.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.exports.ExportAuditLogs(c.Request.Context(), req, listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportPayments godoc
// @Summary Export payments as CSV or PDF
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body service.ExportRequest true "Export format"
// @Param type query string false "ADMISSION|COURSE"
// @Param search query string false "field:value;field2:value2"
// @Success 200 {object} response.Envelope
// @Router /reports/payments [post]
func (h *ReportHandler) ExportPayments(c *gin.Context) {
	paymentType, err := paymentTypeFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.exports.ExportPayments(c.Request.Context(), paymentType, req, listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a generated report via signed token
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, err := h.exports.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report no longer available"))
		return
	}

	name := filepath.Base(file.Name())
	mimeType := "text/csv"
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		mimeType = "application/pdf"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, file, nil)
}
