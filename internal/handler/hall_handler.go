package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/service"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/response"
)

// HallHandler exposes hall endpoints.
type HallHandler struct {
	halls *service.HallService
}

// NewHallHandler constructs HallHandler.
func NewHallHandler(halls *service.HallService) *HallHandler {
	return &HallHandler{halls: halls}
}

// List godoc
// @Summary List halls
// @Tags Halls
// @Produce json
// @Param search query string false "field:value;field2:value2"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /halls [get]
func (h *HallHandler) List(c *gin.Context) {
	halls, meta, err := h.halls.List(c.Request.Context(), listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, halls, meta)
}

// Get godoc
// @Summary Get hall detail
// @Tags Halls
// @Produce json
// @Param id path string true "Hall ID"
// @Success 200 {object} response.Envelope
// @Router /halls/{id} [get]
func (h *HallHandler) Get(c *gin.Context) {
	hall, err := h.halls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hall, nil)
}

// Create godoc
// @Summary Create hall
// @Tags Halls
// @Accept json
// @Produce json
// @Param payload body service.HallRequest true "Hall payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /halls [post]
func (h *HallHandler) Create(c *gin.Context) {
	var req service.HallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hall, err := h.halls.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hall)
}

// Update godoc
// @Summary Update hall
// @Tags Halls
// @Accept json
// @Produce json
// @Param id path string true "Hall ID"
// @Param payload body service.HallRequest true "Hall payload"
// @Success 200 {object} response.Envelope
// @Router /halls/{id} [put]
func (h *HallHandler) Update(c *gin.Context) {
	var req service.HallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hall, err := h.halls.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hall, nil)
}

// Delete godoc
// @Summary Delete hall
// @Tags Halls
// @Produce json
// @Param id path string true "Hall ID"
// @Success 204
// @Router /halls/{id} [delete]
func (h *HallHandler) Delete(c *gin.Context) {
	if err := h.halls.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
