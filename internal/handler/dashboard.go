package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songkhoe/backend/internal/service"
	"go.uber.org/zap"
)

// DashboardHandler implements dashboard API endpoints
type DashboardHandler struct {
	service *service.DashboardService
	logger  *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
	}
}

// GetDashboard retrieves the dashboard summary
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	summary := h.service.Summary()

	h.logger.Debug("dashboard summary retrieved",
		zap.Int("record_count", summary.RecordCount),
		zap.Bool("empty", summary.Empty),
	)

	c.JSON(http.StatusOK, summary)
}
