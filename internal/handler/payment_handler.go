package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/internal/service"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/response"
)

// PaymentHandler exposes payment endpoints and receipt export.
type PaymentHandler struct {
	payments *service.PaymentService
	exports  *service.ExportService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, exports *service.ExportService) *PaymentHandler {
	return &PaymentHandler{payments: payments, exports: exports}
}

func paymentTypeFilter(c *gin.Context) (models.PaymentType, error) {
	raw := strings.ToUpper(strings.TrimSpace(c.Query("type")))
	switch models.PaymentType(raw) {
	case "", models.PaymentTypeAdmission, models.PaymentTypeCourse:
		return models.PaymentType(raw), nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "type must be ADMISSION or COURSE")
	}
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param type query string false "ADMISSION|COURSE"
// @Param search query string false "field:value;field2:value2"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	paymentType, err := paymentTypeFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	payments, meta, err := h.payments.List(c.Request.Context(), paymentType, listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, meta)
}

// Get godoc
// @Summary Get payment detail with covered courses
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	receipt, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// CreateAdmission godoc
// @Summary Record admission payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreateAdmissionPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments/students/admission [post]
func (h *PaymentHandler) CreateAdmission(c *gin.Context) {
	var req service.CreateAdmissionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.CreateAdmission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// CreateCourse godoc
// @Summary Record monthly course payment
// @Description The amount is computed from the selected enrollments' course fees; any submitted amount is ignored.
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreateCoursePaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments/students/course [post]
func (h *PaymentHandler) CreateCourse(c *gin.Context) {
	var req service.CreateCoursePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	receipt, err := h.payments.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// Receipt godoc
// @Summary Export payment receipt as PDF
// @Description Renders the receipt, stores it and returns a signed download token.
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	receipt, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.ExportReceipt(receipt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
