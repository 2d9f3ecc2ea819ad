package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OperationType represents the type of operation performed
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationDelete OperationType = "DELETE"
	OperationClear  OperationType = "CLEAR"
	OperationExport OperationType = "EXPORT"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceHealthRecord ResourceType = "health_record"
	ResourceHealthLog    ResourceType = "health_log"
	ResourceReport       ResourceType = "report"
)

// Entry is one audit trail record
type Entry struct {
	OperationType  OperationType
	ResourceType   ResourceType
	ResourceID     string
	Timestamp      time.Time
	IPAddress      string
	UserAgent      string
	AdditionalData map[string]any
}

// Logger writes the audit trail to the structured log and, when a database
// is configured, to the audit_logs table
type Logger struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewLogger creates a new audit logger. db may be nil.
func NewLogger(db *pgxpool.Pool, logger *zap.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the audit_logs table
func (l *Logger) EnsureSchema(ctx context.Context) error {
	if l.db == nil {
		return nil
	}

	query := `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGSERIAL PRIMARY KEY,
			operation_type TEXT NOT NULL,
			resource_type TEXT NOT NULL,
			resource_id TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMPTZ NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			additional_data JSONB
		)
	`
	if _, err := l.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}
	return nil
}

// Log records an audit entry
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.logger.Info("Audit log entry",
		zap.String("operation", string(entry.OperationType)),
		zap.String("resource_type", string(entry.ResourceType)),
		zap.String("resource_id", entry.ResourceID),
		zap.Time("timestamp", entry.Timestamp),
		zap.String("ip_address", entry.IPAddress),
		zap.Any("additional_data", entry.AdditionalData),
	)

	if l.db == nil {
		return nil
	}

	var additional []byte
	if entry.AdditionalData != nil {
		var err error
		additional, err = json.Marshal(entry.AdditionalData)
		if err != nil {
			return fmt.Errorf("failed to encode audit data: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (
			operation_type, resource_type, resource_id,
			timestamp, ip_address, user_agent, additional_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := l.db.Exec(ctx, query,
		entry.OperationType,
		entry.ResourceType,
		entry.ResourceID,
		entry.Timestamp,
		entry.IPAddress,
		entry.UserAgent,
		additional,
	)
	if err != nil {
		l.logger.Error("Failed to write audit log to database",
			zap.Error(err),
			zap.String("operation", string(entry.OperationType)),
			zap.String("resource_type", string(entry.ResourceType)),
		)
		return err
	}

	return nil
}

// Recent returns the latest audit entries, newest first
func (l *Logger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if l.db == nil {
		return []Entry{}, nil
	}

	query := `
		SELECT operation_type, resource_type, resource_id,
		       timestamp, ip_address, user_agent
		FROM audit_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := l.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		err := rows.Scan(
			&e.OperationType,
			&e.ResourceType,
			&e.ResourceID,
			&e.Timestamp,
			&e.IPAddress,
			&e.UserAgent,
		)
		if err != nil {
			l.logger.Error("Failed to scan audit log", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
