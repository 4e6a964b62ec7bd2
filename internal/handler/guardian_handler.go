package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/service"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/response"
)

// GuardianHandler exposes guardian endpoints.
type GuardianHandler struct {
	guardians *service.GuardianService
}

// NewGuardianHandler constructs GuardianHandler.
func NewGuardianHandler(guardians *service.GuardianService) *GuardianHandler {
	return &GuardianHandler{guardians: guardians}
}

// List godoc
// @Summary List guardians
// @Tags Guardians
// @Produce json
// @Param search query string false "field:value;field2:value2"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /guardians [get]
func (h *GuardianHandler) List(c *gin.Context) {
	guardians, meta, err := h.guardians.List(c.Request.Context(), listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guardians, meta)
}

// Get godoc
// @Summary Get guardian detail
// @Tags Guardians
// @Produce json
// @Param id path string true "Guardian ID"
// @Success 200 {object} response.Envelope
// @Router /guardians/{id} [get]
func (h *GuardianHandler) Get(c *gin.Context) {
	guardian, err := h.guardians.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guardian, nil)
}

// Create godoc
// @Summary Create guardian
// @Tags Guardians
// @Accept json
// @Produce json
// @Param payload body service.GuardianRequest true "Guardian payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /guardians [post]
func (h *GuardianHandler) Create(c *gin.Context) {
	var req service.GuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guardian, err := h.guardians.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, guardian)
}

// Update godoc
// @Summary Update guardian
// @Tags Guardians
// @Accept json
// @Produce json
// @Param id path string true "Guardian ID"
// @Param payload body service.GuardianRequest true "Guardian payload"
// @Success 200 {object} response.Envelope
// @Router /guardians/{id} [put]
func (h *GuardianHandler) Update(c *gin.Context) {
	var req service.GuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guardian, err := h.guardians.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guardian, nil)
}

// Delete godoc
// @Summary Delete guardian
// @Tags Guardians
// @Produce json
// @Param id path string true "Guardian ID"
// @Success 204
// @Router /guardians/{id} [delete]
func (h *GuardianHandler) Delete(c *gin.Context) {
	if err := h.guardians.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
