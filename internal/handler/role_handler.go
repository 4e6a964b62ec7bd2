package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/service"
	appErrors "github.com/classora/classora-api/pkg/errors"
	"github.com/classora/classora-api/pkg/response"
)

// RoleHandler exposes role endpoints including the authorization editor.
type RoleHandler struct {
	roles *service.RoleService
}

// NewRoleHandler constructs RoleHandler.
func NewRoleHandler(roles *service.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// List godoc
// @Summary List roles
// @Tags Roles
// @Produce json
// @Param search query string false "field:value;field2:value2"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	roles, meta, err := h.roles.List(c.Request.Context(), listParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles, meta)
}

// Get godoc
// @Summary Get role detail
// @Tags Roles
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {object} response.Envelope
// @Router /roles/{id} [get]
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.roles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

// Create godoc
// @Summary Create role
// @Description The role key is derived from the name.
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body service.RoleRequest true "Role payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	var req service.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	role, err := h.roles.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, role)
}

// Update godoc
// @Summary Update role
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param payload body service.RoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Router /roles/{id} [put]
func (h *RoleHandler) Update(c *gin.Context) {
	var req service.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	role, err := h.roles.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, role, nil)
}

// Delete godoc
// @Summary Delete role
// @Tags Roles
// @Produce json
// @Param id path string true "Role ID"
// @Success 204
// @Router /roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.roles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAuthorized godoc
// @Summary List the role's authorized endpoints
// @Tags Roles
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {object} response.Envelope
// @Router /roles/{id}/authorized [get]
func (h *RoleHandler) ListAuthorized(c *gin.Context) {
	apis, err := h.roles.ListApis(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apis, nil)
}

// SaveAuthorized godoc
// @Summary Replace the role's authorized endpoints
// @Description The submitted set replaces the stored set entirely.
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param payload body service.SaveRoleApisRequest true "Authorization set"
// @Success 204
// @Router /roles/{id}/authorized [post]
func (h *RoleHandler) SaveAuthorized(c *gin.Context) {
	var req service.SaveRoleApisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.roles.SaveApis(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
