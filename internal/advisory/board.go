package advisory

import (
	"context"
	"sync"
	"time"

	"github.com/songkhoe/backend/pkg/model"
	"go.uber.org/zap"
)

// RecordSource supplies the records an advisory request analyzes
type RecordSource interface {
	Records() []model.HealthRecord
}

// State is what the board currently displays
type State struct {
	Advisories []model.AdvisoryEntry `json:"advisories"`
	// Sequence is the token of the request whose result is displayed
	Sequence  uint64     `json:"sequence"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	// Discarded is set on the state returned by Refresh when that request's
	// result was dropped because a newer one had already been applied
	Discarded bool `json:"discarded"`
}

// Board holds the displayed advisories. Every refresh takes a sequence token
// when it starts; a result is applied only if no later request has been
// applied first, so responses are never shown out of order.
type Board struct {
	client *Client
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	issued    uint64
	applied   uint64
	current   []model.AdvisoryEntry
	updatedAt time.Time
}

// NewBoard creates an empty board
func NewBoard(client *Client, logger *zap.Logger) *Board {
	return &Board{
		client:  client,
		logger:  logger,
		now:     time.Now,
		current: []model.AdvisoryEntry{},
	}
}

// Refresh requests advisories for the records present right now and applies
// the result unless it has gone stale. The token is taken before the records
// are read, so a Reset racing with the read discards this request.
func (b *Board) Refresh(ctx context.Context, source RecordSource) State {
	b.mu.Lock()
	b.issued++
	token := b.issued
	b.mu.Unlock()

	records := source.Records()

	entries := b.client.RequestAdvisories(ctx, records)

	b.mu.Lock()
	defer b.mu.Unlock()

	if token <= b.applied {
		b.logger.Info("discarding stale advisory response",
			zap.Uint64("sequence", token),
			zap.Uint64("applied", b.applied),
		)
		state := b.stateLocked()
		state.Discarded = true
		return state
	}

	b.applied = token
	b.current = entries
	b.updatedAt = b.now()
	return b.stateLocked()
}

// Current returns the displayed advisories
func (b *Board) Current() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.stateLocked()
}

// Reset empties the board. Requests started before the reset are discarded
// when they complete.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.applied = b.issued
	b.current = []model.AdvisoryEntry{}
	b.updatedAt = time.Time{}
}

// Configured reports whether the underlying client can reach a model
func (b *Board) Configured() bool {
	return b.client.Configured()
}

func (b *Board) stateLocked() State {
	entries := make([]model.AdvisoryEntry, len(b.current))
	copy(entries, b.current)

	state := State{
		Advisories: entries,
		Sequence:   b.applied,
	}
	if !b.updatedAt.IsZero() {
		t := b.updatedAt
		state.UpdatedAt = &t
	}
	return state
}
