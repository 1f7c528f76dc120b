// Package handlers implements the portal's HTTP endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/af3-portal/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps an error to its HTTP status and writes {code, message}.
// The message is the one the UI shows; errors without a code are masked.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := errors.GetCode(err)
	if code == errors.CodeUnknown || code == errors.ErrCodeInternal {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
		})
		return
	}
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), ErrorResponse{
		Code:    string(code),
		Message: errors.MessageOf(err),
	})
}

// bindJSON decodes the request body into v, writing a 400 on failure.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeAppError(c, errors.InvalidParam("invalid request body").WithCause(err))
		return false
	}
	return true
}

// NotFound answers requests that match no route.
func NotFound(c *gin.Context) {
	writeAppError(c, errors.NotFound(errors.DefaultMessageForCode(errors.ErrCodeNotFound)).
		WithDetail("path="+c.Request.URL.Path))
}
