package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/songkhoe/backend/internal/advisory"
	"github.com/songkhoe/backend/internal/audit"
	"github.com/songkhoe/backend/internal/azure"
	"github.com/songkhoe/backend/internal/config"
	"github.com/songkhoe/backend/internal/handler"
	"github.com/songkhoe/backend/internal/llm"
	"github.com/songkhoe/backend/internal/logging"
	"github.com/songkhoe/backend/internal/report"
	"github.com/songkhoe/backend/internal/security"
	"github.com/songkhoe/backend/internal/service"
	"github.com/songkhoe/backend/internal/slot"
	"github.com/songkhoe/backend/internal/store"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, "songkhoe-backend")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	ctx := context.Background()

	// Database pool backs the postgres slot and the audit table when configured
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		pool, err = pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("Failed to ping database", zap.Error(err))
		}
		logger.Info("Successfully connected to database")
	}

	// Durable slot and health log store
	durable, err := openSlot(ctx, cfg, pool, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	healthLogs := store.NewHealthLogStore(durable, logger)
	if _, err := healthLogs.Load(ctx); err != nil {
		logger.Fatal("Failed to load health logs", zap.Error(err))
	}

	// Advisory client and board
	backend, err := llm.NewBackend(cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to initialize completion backend", zap.Error(err))
	}
	advisoryClient := advisory.New(backend, logger,
		advisory.WithWindow(cfg.AI.Window),
		advisory.WithTimeout(cfg.AI.Timeout),
		advisory.WithModel(cfg.AI.Model),
	)
	board := advisory.NewBoard(advisoryClient, logger)

	// Audit trail goes to the database only when one is configured
	auditLogger := audit.NewLogger(pool, logger)
	if err := auditLogger.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to create audit table", zap.Error(err))
	}

	// Report archive is optional
	var archive azure.BlobStorage
	if cfg.Azure.Storage.HasCredentials() {
		reportBlob, err := newBlobClient(cfg.Azure.Storage, cfg.Azure.Storage.ReportContainer, logger)
		if err != nil {
			logger.Fatal("Failed to initialize report blob storage client", zap.Error(err))
		}
		if err := reportBlob.EnsureContainer(ctx); err != nil {
			logger.Warn("Report container unavailable, reports will not be archived", zap.Error(err))
		} else {
			archive = reportBlob
		}
	}

	// Initialize services
	recordService := service.NewRecordService(healthLogs, board, auditLogger, logger)
	dashboardService := service.NewDashboardService(healthLogs, logger)
	exportService := service.NewExportService(
		healthLogs,
		report.NewPDFGenerator(logger),
		report.NewXLSXGenerator(logger),
		archive,
		auditLogger,
		logger,
	)

	// Initialize handlers
	server := &handler.Server{
		Records:   handler.NewRecordHandler(recordService, logger),
		Dashboard: handler.NewDashboardHandler(dashboardService, logger),
		Advisory:  handler.NewAdvisoryHandler(board, healthLogs, logger),
		Export:    handler.NewExportHandler(exportService, logger),
		Health:    handler.NewHealthHandler(healthLogs, board.Configured),
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := handler.NewRouter(server, handler.RouterOptions{AllowedOrigins: cfg.Server.AllowedOrigins}, logger)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", healthLogs.Backend()),
			zap.Int("records", healthLogs.Len()),
			zap.Bool("advisory_configured", advisoryClient.Configured()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// openSlot builds the durable slot selected by storage.backend, wrapped in
// AES-GCM when an encryption key is configured
func openSlot(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (slot.Slot, error) {
	var s slot.Slot

	switch cfg.Storage.Backend {
	case "file":
		fileSlot, err := slot.NewFileSlot(afero.NewOsFs(), cfg.Storage.Dir, cfg.Storage.Key, logger)
		if err != nil {
			return nil, err
		}
		s = fileSlot

	case "redis":
		client := slot.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Redis.Addr, err)
		}
		redisSlot, err := slot.NewRedisSlot(client, cfg.Storage.Key, logger)
		if err != nil {
			return nil, err
		}
		s = redisSlot

	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("postgres backend needs database.url")
		}
		pgSlot, err := slot.NewPostgresSlot(pool, cfg.Database.Table, cfg.Storage.Key, logger)
		if err != nil {
			return nil, err
		}
		if err := pgSlot.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		s = pgSlot

	case "blob":
		client, err := newBlobClient(cfg.Azure.Storage, cfg.Azure.Storage.Container, logger)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureContainer(ctx); err != nil {
			return nil, err
		}
		blobSlot, err := slot.NewBlobSlot(client, cfg.Storage.Key)
		if err != nil {
			return nil, err
		}
		s = blobSlot

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.EncryptionKey != "" {
		encryptor, err := security.NewEncryptorFromBase64(cfg.Storage.EncryptionKey)
		if err != nil {
			return nil, err
		}
		s = slot.Encrypted(s, encryptor)
	}

	logger.Info("Durable slot ready", zap.String("slot", s.Describe()))
	return s, nil
}

func newBlobClient(cfg config.AzureStorageConfig, container string, logger *zap.Logger) (*azure.BlobStorageClient, error) {
	if cfg.ConnectionString != "" {
		return azure.NewBlobStorageClientFromConnectionString(cfg.ConnectionString, container, logger)
	}
	return azure.NewBlobStorageClient(cfg.AccountName, cfg.AccountKey, container, logger)
}
