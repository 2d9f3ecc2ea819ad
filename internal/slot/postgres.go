package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresSlot keeps the value in one row of a key/value table
type PostgresSlot struct {
	db     *pgxpool.Pool
	table  string
	key    string
	logger *zap.Logger
}

// NewPostgresSlot creates a postgres-backed slot. table is quoted, so it may
// contain any characters.
func NewPostgresSlot(db *pgxpool.Pool, table, key string, logger *zap.Logger) (*PostgresSlot, error) {
	if key == "" {
		return nil, fmt.Errorf("slot key is required")
	}
	if table == "" {
		table = "kv_slots"
	}

	return &PostgresSlot{
		db:     db,
		table:  pq.QuoteIdentifier(table),
		key:    key,
		logger: logger,
	}, nil
}

// EnsureSchema creates the key/value table if it does not exist
func (s *PostgresSlot) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.table)

	if _, err := s.db.Exec(ctx, query); err != nil {
		s.logger.Error("failed to create slot table", zap.String("table", s.table), zap.Error(err))
		return fmt.Errorf("failed to create slot table: %w", err)
	}
	return nil
}

func (s *PostgresSlot) Read(ctx context.Context) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table)

	var data []byte
	err := s.db.QueryRow(ctx, query, s.key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to read slot",
			zap.Error(err),
			zap.String("key", s.key),
		)
		return nil, fmt.Errorf("failed to read slot %s: %w", s.key, err)
	}

	return data, nil
}

func (s *PostgresSlot) Write(ctx context.Context, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, s.table)

	if _, err := s.db.Exec(ctx, query, s.key, data); err != nil {
		s.logger.Error("failed to write slot",
			zap.Error(err),
			zap.String("key", s.key),
			zap.Int("size_bytes", len(data)),
		)
		return fmt.Errorf("failed to write slot %s: %w", s.key, err)
	}

	return nil
}

func (s *PostgresSlot) Describe() string {
	return "postgres:" + s.table + "/" + s.key
}
