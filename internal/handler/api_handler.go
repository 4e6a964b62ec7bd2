package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/service"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/response"
)

// ApiHandler exposes the authorizable endpoint catalog.
type ApiHandler struct {
	apis *service.ApiService
}

// NewApiHandler constructs ApiHandler.
func NewApiHandler(apis *service.ApiService) *ApiHandler {
	return &ApiHandler{apis: apis}
}

// List godoc
// @Summary List catalogued endpoints
// @Tags Apis
// @Produce json
// @Param all query bool false "Return the full unpaginated catalog"
// @Param search query string false "field:value;field2:value2"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /apis [get]
func (h *ApiHandler) List(c *gin.Context) {
	if c.Query("all") == "true" {
		apis, err := h.apis.ListAll(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, apis, nil)
		return
	}

	apis, meta, err := h.apis.List(c.Request.Context(), listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apis, meta)
}

// Get godoc
// @Summary Get catalogued endpoint
// @Tags Apis
// @Produce json
// @Param id path string true "Api ID"
// @Success 200 {object} response.Envelope
// @Router /apis/{id} [get]
func (h *ApiHandler) Get(c *gin.Context) {
	api, err := h.apis.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, api, nil)
}

// Create godoc
// @Summary Catalog an endpoint
// @Tags Apis
// @Accept json
// @Produce json
// @Param payload body service.ApiRequest true "Api payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /apis [post]
func (h *ApiHandler) Create(c *gin.Context) {
	var req service.ApiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	api, err := h.apis.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, api)
}

// Update godoc
// @Summary Update catalogued endpoint
// @Tags Apis
// @Accept json
// @Produce json
// @Param id path string true "Api ID"
// @Param payload body service.ApiRequest true "Api payload"
// @Success 200 {object} response.Envelope
// @Router /apis/{id} [put]
func (h *ApiHandler) Update(c *gin.Context) {
	var req service.ApiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	api, err := h.apis.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, api, nil)
}

// Delete godoc
// @Summary Remove endpoint from catalog
// @Description Also revokes the endpoint from every role that referenced it.
// @Tags Apis
// @Produce json
// @Param id path string true "Api ID"
// @Success 204
// @Router /apis/{id} [delete]
func (h *ApiHandler) Delete(c *gin.Context) {
	if err := h.apis.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
