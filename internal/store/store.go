// Package store holds the health log collection and keeps it in sync with a
// durable slot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/songkhoe/backend/internal/slot"
	"github.com/songkhoe/backend/pkg/model"
	"go.uber.org/zap"
)

// DefaultKey is the slot key the collection is stored under
const DefaultKey = "health_logs_v1"

// ErrPersist is returned when a mutation could not be written to the slot.
// The in-memory collection is left as it was before the mutation.
var ErrPersist = errors.New("failed to persist health logs")

// HealthLogStore owns the ordered collection of health records
type HealthLogStore struct {
	mu      sync.RWMutex
	records []model.HealthRecord
	slot    slot.Slot
	logger  *zap.Logger
}

// NewHealthLogStore creates an empty store backed by s. Call Load to read
// previously persisted records.
func NewHealthLogStore(s slot.Slot, logger *zap.Logger) *HealthLogStore {
	return &HealthLogStore{
		records: []model.HealthRecord{},
		slot:    s,
		logger:  logger,
	}
}

// Load reads the slot and replaces the in-memory collection. A missing,
// undecryptable or undecodable value yields an empty collection. Only a
// failure to reach the slot is returned as an error.
func (s *HealthLogStore) Load(ctx context.Context) ([]model.HealthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.slot.Read(ctx)
	if err != nil {
		if errors.Is(err, slot.ErrNotFound) {
			s.records = []model.HealthRecord{}
			return []model.HealthRecord{}, nil
		}
		if errors.Is(err, slot.ErrCorrupt) {
			s.logger.Warn("stored health logs are unreadable, starting empty",
				zap.String("slot", s.slot.Describe()),
				zap.Error(err),
			)
			s.records = []model.HealthRecord{}
			return []model.HealthRecord{}, nil
		}
		return nil, fmt.Errorf("failed to load health logs from %s: %w", s.slot.Describe(), err)
	}

	var records []model.HealthRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("stored health logs are unreadable, starting empty",
			zap.String("slot", s.slot.Describe()),
			zap.Error(err),
		)
		records = nil
	}
	if records == nil {
		records = []model.HealthRecord{}
	}

	s.records = records
	s.logger.Info("health logs loaded",
		zap.String("slot", s.slot.Describe()),
		zap.Int("count", len(records)),
	)

	return cloneRecords(records), nil
}

// Append adds record at the end of the collection and persists it
func (s *HealthLogStore) Append(ctx context.Context, record model.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.HealthRecord, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, record)

	return s.commit(ctx, next, "append")
}

// Delete removes the first record with the given id. Deleting an id that is
// not present succeeds without changing anything.
func (s *HealthLogStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}

	next := make([]model.HealthRecord, 0, len(s.records))
	next = append(next, s.records...)
	if idx >= 0 {
		next = append(next[:idx], next[idx+1:]...)
	}

	return s.commit(ctx, next, "delete")
}

// Clear removes every record
func (s *HealthLogStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, []model.HealthRecord{}, "clear")
}

// Records returns a copy of the collection in insertion order
func (s *HealthLogStore) Records() []model.HealthRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneRecords(s.records)
}

// Recent returns the last n records in insertion order
func (s *HealthLogStore) Recent(n int) []model.HealthRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return []model.HealthRecord{}
	}
	start := len(s.records) - n
	if start < 0 {
		start = 0
	}
	return cloneRecords(s.records[start:])
}

// Len returns the number of records
func (s *HealthLogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Backend names the slot the store persists to
func (s *HealthLogStore) Backend() string {
	return s.slot.Describe()
}

// commit writes next to the slot and swaps it in only on success.
// Callers hold the write lock.
func (s *HealthLogStore) commit(ctx context.Context, next []model.HealthRecord, op string) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}

	if err := s.slot.Write(ctx, data); err != nil {
		s.logger.Error("failed to persist health logs",
			zap.String("operation", op),
			zap.String("slot", s.slot.Describe()),
			zap.Int("count", len(next)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.records = next
	s.logger.Debug("health logs persisted",
		zap.String("operation", op),
		zap.Int("count", len(next)),
	)
	return nil
}

func cloneRecords(records []model.HealthRecord) []model.HealthRecord {
	out := make([]model.HealthRecord, len(records))
	copy(out, records)
	return out
}
