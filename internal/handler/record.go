package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songkhoe/backend/internal/service"
	"github.com/songkhoe/backend/pkg/api"
	"go.uber.org/zap"
)

// RecordHandler implements health record API endpoints
type RecordHandler struct {
	service *service.RecordService
	logger  *zap.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(service *service.RecordService, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		service: service,
		logger:  logger,
	}
}

// ListRecords returns the history, newest first
func (h *RecordHandler) ListRecords(c *gin.Context, params api.ListRecordsParams) {
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	records := h.service.History(limit)
	c.JSON(http.StatusOK, api.RecordList{
		Records: records,
		Count:   len(records),
	})
}

// CreateRecord adds a record. Fields missing from the body keep the form defaults.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	in := h.service.Defaults()
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		respondError(c, http.StatusBadRequest, CodeValidation, "Invalid request body",
			map[string]interface{}{"error": err.Error()})
		return
	}

	record, err := h.service.Create(c.Request.Context(), in, requestMeta(c))
	if err != nil {
		respondServiceError(c, err, "Failed to save health record")
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetRecordDefaults returns the values the entry form starts with
func (h *RecordHandler) GetRecordDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Defaults())
}

// DeleteRecord removes one record
func (h *RecordHandler) DeleteRecord(c *gin.Context, id string) {
	if err := h.service.Delete(c.Request.Context(), id, requestMeta(c)); err != nil {
		respondServiceError(c, err, "Failed to delete health record")
		return
	}

	c.Status(http.StatusNoContent)
}

// ClearRecords removes every record
func (h *RecordHandler) ClearRecords(c *gin.Context) {
	if err := h.service.ClearAll(c.Request.Context(), requestMeta(c)); err != nil {
		respondServiceError(c, err, "Failed to clear health records")
		return
	}

	c.Status(http.StatusNoContent)
}
