package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songkhoe/backend/internal/service"
	"github.com/songkhoe/backend/internal/store"
	"github.com/songkhoe/backend/internal/vitals"
	"github.com/songkhoe/backend/pkg/api"
)

// Error codes returned in api.ErrorResponse
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
	CodeStorage    = "STORAGE_ERROR"
)

// respondError writes the standard error body
func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	resp := api.ErrorResponse{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		resp.Details = &details
	}
	c.JSON(status, resp)
}

// respondServiceError maps service errors onto status codes. Rejected
// measurements are the caller's fault, a failed write to the durable slot is
// reported separately from other failures.
func respondServiceError(c *gin.Context, err error, message string) {
	var validationErr *vitals.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, CodeValidation, "Invalid measurements",
			map[string]interface{}{"fields": validationErr.Fields})
	case errors.Is(err, store.ErrPersist):
		respondError(c, http.StatusInternalServerError, CodeStorage, message,
			map[string]interface{}{"error": err.Error()})
	default:
		respondError(c, http.StatusInternalServerError, CodeInternal, message,
			map[string]interface{}{"error": err.Error()})
	}
}

// requestMeta identifies the caller for the audit trail
func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
