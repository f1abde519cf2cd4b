// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an application error onto its HTTP status and writes the
// standard error body.  Server-side errors are masked.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code)}
	if errors.IsClientError(code) {
		resp.Message = err.Error()
		if appErr, ok := err.(*errors.AppError); ok {
			resp.Detail = appErr.Detail
		}
	} else {
		resp.Message = errors.DefaultMessageForCode(code)
	}

	c.AbortWithStatusJSON(status, resp)
}

// respondOK writes a 200 with the given body.
func respondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
