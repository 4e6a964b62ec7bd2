package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classora/classora-api/internal/models"
	appErrors "github.com/classora/classora-api/pkg/errors"
)

// Envelope is the common response contract: single reads return {data},
// list reads return {data, meta}, failures return {error}.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Meta  *models.Paginator `json:"meta,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
}

// JSON sends a success response with optional paginator metadata.
func JSON(c *gin.Context, status int, data interface{}, meta *models.Paginator) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Data: data, Meta: meta})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
