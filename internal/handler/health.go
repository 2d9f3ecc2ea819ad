package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songkhoe/backend/pkg/api"
)

// StatusSource reports the state of the health log store
type StatusSource interface {
	Backend() string
	Len() int
}

// HealthHandler implements the liveness endpoint
type HealthHandler struct {
	store      StatusSource
	configured func() bool
}

// NewHealthHandler creates a new HealthHandler. configured reports whether
// advisories can reach a model.
func NewHealthHandler(store StatusSource, configured func() bool) *HealthHandler {
	return &HealthHandler{
		store:      store,
		configured: configured,
	}
}

// GetHealth reports liveness and component status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthStatus{
		Status:             "healthy",
		Storage:            h.store.Backend(),
		AdvisoryConfigured: h.configured(),
		RecordCount:        h.store.Len(),
	})
}
