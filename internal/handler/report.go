package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songkhoe/backend/internal/service"
	"go.uber.org/zap"
)

// ArchivePathHeader carries the blob an exported report was archived to
const ArchivePathHeader = "X-Archive-Path"

// ExportHandler implements the download endpoints
type ExportHandler struct {
	service *service.ExportService
	logger  *zap.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(service *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger,
	}
}

// ExportJSON downloads every record as JSON
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	export, err := h.service.ExportJSON(c.Request.Context(), requestMeta(c))
	h.send(c, export, err)
}

// ExportPDF downloads the history report
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	export, err := h.service.ExportPDF(c.Request.Context(), requestMeta(c))
	h.send(c, export, err)
}

// ExportXLSX downloads the history spreadsheet
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	export, err := h.service.ExportXLSX(c.Request.Context(), requestMeta(c))
	h.send(c, export, err)
}

func (h *ExportHandler) send(c *gin.Context, export *service.Export, err error) {
	if err != nil {
		h.logger.Error("export failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		respondServiceError(c, err, "Failed to export health records")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	if export.ArchivePath != "" {
		c.Header(ArchivePathHeader, export.ArchivePath)
	}
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
