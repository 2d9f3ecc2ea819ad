package slot

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// setupTestDB creates a PostgreSQL testcontainer and returns the connection pool
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("songkhoe_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return pool, cleanup
}

func TestPostgresSlot(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping postgres container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	s, err := NewPostgresSlot(pool, "kv-slots", "health_logs_v1", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx), "schema creation must be idempotent")

	exerciseSlot(t, s)

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM "kv-slots"`).Scan(&rows))
	assert.Equal(t, 1, rows, "overwrites must not add rows")
}

func TestNewPostgresSlot_Defaults(t *testing.T) {
	s, err := NewPostgresSlot(nil, "", "health_logs_v1", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, `"kv_slots"`, s.table)
	assert.Equal(t, `postgres:"kv_slots"/health_logs_v1`, s.Describe())

	_, err = NewPostgresSlot(nil, "kv_slots", "", zap.NewNop())
	assert.Error(t, err)
}
