// Package api holds the HTTP contract of the service: the OpenAPI document,
// its wire types and the gin binding of every operation.
package api

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	"github.com/songkhoe/backend/pkg/model"
)

// Spec is the OpenAPI document requests are validated against
//
//go:embed openapi.yaml
var Spec []byte

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details *map[string]interface{} `json:"details,omitempty"`
}

// RecordList defines model for RecordList.
type RecordList struct {
	Records []model.HealthRecord `json:"records"`
	Count   int                  `json:"count"`
}

// AdvisoryState defines model for AdvisoryState.
type AdvisoryState struct {
	Advisories []model.AdvisoryEntry `json:"advisories"`
	Sequence   uint64                `json:"sequence"`
	UpdatedAt  *time.Time            `json:"updatedAt,omitempty"`
	Discarded  bool                  `json:"discarded"`
	Configured bool                  `json:"configured"`
}

// HealthStatus defines model for HealthStatus.
type HealthStatus struct {
	Status             string `json:"status"`
	Storage            string `json:"storage"`
	AdvisoryConfigured bool   `json:"advisoryConfigured"`
	RecordCount        int    `json:"recordCount"`
}

// ListRecordsParams defines parameters for ListRecords.
type ListRecordsParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Record history, newest first
	// (GET /api/v1/records)
	ListRecords(c *gin.Context, params ListRecordsParams)
	// Add a daily record
	// (POST /api/v1/records)
	CreateRecord(c *gin.Context)
	// Remove every record
	// (DELETE /api/v1/records)
	ClearRecords(c *gin.Context)
	// Values the entry form starts with
	// (GET /api/v1/records/defaults)
	GetRecordDefaults(c *gin.Context)
	// Remove one record
	// (DELETE /api/v1/records/{id})
	DeleteRecord(c *gin.Context, id string)
	// Dashboard summary of the latest records
	// (GET /api/v1/dashboard)
	GetDashboard(c *gin.Context)
	// Advisories currently on display
	// (GET /api/v1/advisories)
	GetAdvisories(c *gin.Context)
	// Request a fresh analysis of the most recent records
	// (POST /api/v1/advisories/refresh)
	RefreshAdvisories(c *gin.Context)
	// (GET /api/v1/export/json)
	ExportJSON(c *gin.Context)
	// (GET /api/v1/export/pdf)
	ExportPDF(c *gin.Context)
	// (GET /api/v1/export/xlsx)
	ExportXLSX(c *gin.Context)
	// Liveness and component status
	// (GET /api/v1/health)
	GetHealth(c *gin.Context)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler      ServerInterface
	ErrorHandler func(*gin.Context, error, int)
}

// ListRecords operation middleware
func (siw *ServerInterfaceWrapper) ListRecords(c *gin.Context) {
	var err error

	var params ListRecordsParams

	err = runtime.BindQueryParameter("form", true, false, "limit", c.Request.URL.Query(), &params.Limit)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter limit: %w", err), http.StatusBadRequest)
		return
	}

	siw.Handler.ListRecords(c, params)
}

// DeleteRecord operation middleware
func (siw *ServerInterfaceWrapper) DeleteRecord(c *gin.Context) {
	var err error

	var id string

	err = runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter id: %w", err), http.StatusBadRequest)
		return
	}

	siw.Handler.DeleteRecord(c, id)
}

// GinServerOptions provides options for the Gin server.
type GinServerOptions struct {
	BaseURL      string
	Middlewares  []gin.HandlerFunc
	ErrorHandler func(*gin.Context, error, int)
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, GinServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, options GinServerOptions) {
	errorHandler := options.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(c *gin.Context, err error, statusCode int) {
			c.JSON(statusCode, ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			})
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:      si,
		ErrorHandler: errorHandler,
	}

	base := options.BaseURL
	group := router.Group(base, options.Middlewares...)

	group.GET("/api/v1/records", wrapper.ListRecords)
	group.POST("/api/v1/records", si.CreateRecord)
	group.DELETE("/api/v1/records", si.ClearRecords)
	group.GET("/api/v1/records/defaults", si.GetRecordDefaults)
	group.DELETE("/api/v1/records/:id", wrapper.DeleteRecord)
	group.GET("/api/v1/dashboard", si.GetDashboard)
	group.GET("/api/v1/advisories", si.GetAdvisories)
	group.POST("/api/v1/advisories/refresh", si.RefreshAdvisories)
	group.GET("/api/v1/export/json", si.ExportJSON)
	group.GET("/api/v1/export/pdf", si.ExportPDF)
	group.GET("/api/v1/export/xlsx", si.ExportXLSX)
	group.GET("/api/v1/health", si.GetHealth)
}
