// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"

	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/gin-gonic/gin"
)

// errorBody is the error half of the wire envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// respondData writes the success envelope.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data, "error": nil})
}

// respondError maps an application error onto the envelope. Unclassified
// errors surface as a generic internal error so driver messages never leak.
func respondError(c *gin.Context, err error) {
	body := errorBody{Code: apperr.Code(err), Message: err.Error()}
	if body.Code == string(apperr.KindInternal) {
		body.Message = "internal server error"
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body.Details = appErr.Details
	}
	c.JSON(apperr.StatusCode(err), gin.H{"data": nil, "error": body})
}

// respondBindError reports a request body that failed binding.
func respondBindError(c *gin.Context, err error) {
	respondError(c, apperr.Validation("invalid request body: "+err.Error()))
}
