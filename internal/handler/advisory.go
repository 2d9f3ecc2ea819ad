package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songkhoe/backend/internal/advisory"
	"github.com/songkhoe/backend/pkg/api"
	"go.uber.org/zap"
)

// AdvisoryHandler implements advisory API endpoints
type AdvisoryHandler struct {
	board  *advisory.Board
	source advisory.RecordSource
	logger *zap.Logger
}

// NewAdvisoryHandler creates a new AdvisoryHandler
func NewAdvisoryHandler(board *advisory.Board, source advisory.RecordSource, logger *zap.Logger) *AdvisoryHandler {
	return &AdvisoryHandler{
		board:  board,
		source: source,
		logger: logger,
	}
}

// GetAdvisories returns the advisories currently on display
func (h *AdvisoryHandler) GetAdvisories(c *gin.Context) {
	c.JSON(http.StatusOK, h.toAPIState(h.board.Current()))
}

// RefreshAdvisories runs one advisory request over the records present now.
// The request outlives a disconnecting caller so its result still reaches the board.
func (h *AdvisoryHandler) RefreshAdvisories(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	state := h.board.Refresh(ctx, h.source)

	h.logger.Info("advisories refreshed",
		zap.Uint64("sequence", state.Sequence),
		zap.Int("advisory_count", len(state.Advisories)),
		zap.Bool("discarded", state.Discarded),
	)

	c.JSON(http.StatusOK, h.toAPIState(state))
}

func (h *AdvisoryHandler) toAPIState(state advisory.State) api.AdvisoryState {
	return api.AdvisoryState{
		Advisories: state.Advisories,
		Sequence:   state.Sequence,
		UpdatedAt:  state.UpdatedAt,
		Discarded:  state.Discarded,
		Configured: h.board.Configured(),
	}
}
