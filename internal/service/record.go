package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/songkhoe/backend/internal/audit"
	"github.com/songkhoe/backend/internal/store"
	"github.com/songkhoe/backend/internal/vitals"
	"github.com/songkhoe/backend/pkg/model"
	"go.uber.org/zap"
)

// RecordService manages health record intake and history
type RecordService struct {
	store  RecordStoreInterface
	board  AdvisoryBoardInterface
	audit  AuditLoggerInterface
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewRecordService creates a new RecordService
func NewRecordService(st RecordStoreInterface, board AdvisoryBoardInterface, auditLogger AuditLoggerInterface, logger *zap.Logger) *RecordService {
	return &RecordService{
		store:  st,
		board:  board,
		audit:  auditLogger,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Defaults returns the values the entry form starts with
func (s *RecordService) Defaults() model.RecordInput {
	return vitals.Defaults()
}

// Create validates the input, derives BMI and appends a new record
func (s *RecordService) Create(ctx context.Context, in model.RecordInput, meta RequestMeta) (*model.HealthRecord, error) {
	if err := vitals.Validate(in); err != nil {
		s.logger.Warn("rejected health record", zap.Error(err))
		return nil, err
	}

	record := vitals.NewRecord(in, s.newID(), s.now())

	if err := s.store.Append(ctx, record); err != nil {
		s.logger.Error("failed to save health record",
			zap.Error(err),
			zap.String("record_id", record.ID),
		)
		return nil, fmt.Errorf("failed to save health record: %w", err)
	}

	s.logger.Info("health record created",
		zap.String("record_id", record.ID),
		zap.Float64("bmi", record.BMI),
	)
	s.recordAudit(ctx, audit.Entry{
		OperationType: audit.OperationCreate,
		ResourceType:  audit.ResourceHealthRecord,
		ResourceID:    record.ID,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
	})

	return &record, nil
}

// Delete removes a record. Unknown ids are not an error.
func (s *RecordService) Delete(ctx context.Context, id string, meta RequestMeta) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete health record",
			zap.Error(err),
			zap.String("record_id", id),
		)
		return fmt.Errorf("failed to delete health record: %w", err)
	}

	s.recordAudit(ctx, audit.Entry{
		OperationType: audit.OperationDelete,
		ResourceType:  audit.ResourceHealthRecord,
		ResourceID:    id,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
	})
	return nil
}

// ClearAll removes every record and empties the advisory board
func (s *RecordService) ClearAll(ctx context.Context, meta RequestMeta) error {
	removed := s.store.Len()

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("failed to clear health records", zap.Error(err))
		return fmt.Errorf("failed to clear health records: %w", err)
	}
	s.board.Reset()

	s.logger.Info("health records cleared", zap.Int("removed", removed))
	s.recordAudit(ctx, audit.Entry{
		OperationType:  audit.OperationClear,
		ResourceType:   audit.ResourceHealthLog,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		AdditionalData: map[string]any{"removed": removed},
	})
	return nil
}

// History returns records newest first. limit <= 0 returns all of them.
func (s *RecordService) History(limit int) []model.HealthRecord {
	records := store.NewestFirst(s.store.Records())
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

func (s *RecordService) recordAudit(ctx context.Context, entry audit.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry",
			zap.Error(err),
			zap.String("operation", string(entry.OperationType)),
		)
	}
}
