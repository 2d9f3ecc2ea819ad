package handler

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/songkhoe/backend/internal/middleware"
	"github.com/songkhoe/backend/pkg/api"
	"go.uber.org/zap"
)

// Server implements api.ServerInterface by delegating to the individual handlers
type Server struct {
	Records   *RecordHandler
	Dashboard *DashboardHandler
	Advisory  *AdvisoryHandler
	Export    *ExportHandler
	Health    *HealthHandler
}

var _ api.ServerInterface = (*Server)(nil)

// Record endpoints
func (s *Server) ListRecords(c *gin.Context, params api.ListRecordsParams) {
	s.Records.ListRecords(c, params)
}

func (s *Server) CreateRecord(c *gin.Context) {
	s.Records.CreateRecord(c)
}

func (s *Server) ClearRecords(c *gin.Context) {
	s.Records.ClearRecords(c)
}

func (s *Server) GetRecordDefaults(c *gin.Context) {
	s.Records.GetRecordDefaults(c)
}

func (s *Server) DeleteRecord(c *gin.Context, id string) {
	s.Records.DeleteRecord(c, id)
}

// Dashboard endpoint
func (s *Server) GetDashboard(c *gin.Context) {
	s.Dashboard.GetDashboard(c)
}

// Advisory endpoints
func (s *Server) GetAdvisories(c *gin.Context) {
	s.Advisory.GetAdvisories(c)
}

func (s *Server) RefreshAdvisories(c *gin.Context) {
	s.Advisory.RefreshAdvisories(c)
}

// Export endpoints
func (s *Server) ExportJSON(c *gin.Context) {
	s.Export.ExportJSON(c)
}

func (s *Server) ExportPDF(c *gin.Context) {
	s.Export.ExportPDF(c)
}

func (s *Server) ExportXLSX(c *gin.Context) {
	s.Export.ExportXLSX(c)
}

// Health endpoint
func (s *Server) GetHealth(c *gin.Context) {
	s.Health.GetHealth(c)
}

// RouterOptions configures NewRouter
type RouterOptions struct {
	AllowedOrigins []string
}

// NewRouter builds the gin engine with the middleware chain and every API route
func NewRouter(server *Server, opts RouterOptions, logger *zap.Logger) (*gin.Engine, error) {
	r := gin.New()

	// Recovery must be first
	r.Use(middleware.RecoveryMiddleware(logger))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader, ArchivePathHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	r.Use(cors.New(corsConfig))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	validator, err := middleware.OpenAPIValidationMiddleware(api.Spec, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build request validator: %w", err)
	}
	r.Use(validator)

	api.RegisterHandlersWithOptions(r, server, api.GinServerOptions{
		ErrorHandler: func(c *gin.Context, err error, status int) {
			respondError(c, status, CodeValidation, err.Error(), nil)
		},
	})

	return r, nil
}
