package service

import (
	"context"

	"github.com/songkhoe/backend/internal/audit"
	"github.com/songkhoe/backend/pkg/model"
)

// RecordStoreInterface defines the health log operations services rely on
type RecordStoreInterface interface {
	Append(ctx context.Context, record model.HealthRecord) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Records() []model.HealthRecord
	Recent(n int) []model.HealthRecord
	Len() int
}

// AdvisoryBoardInterface is the part of the advisory board cleared together with the logs
type AdvisoryBoardInterface interface {
	Reset()
}

// AuditLoggerInterface records mutations of the health log
type AuditLoggerInterface interface {
	Log(ctx context.Context, entry audit.Entry) error
}

// RequestMeta identifies the caller of a mutating operation for the audit trail
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
