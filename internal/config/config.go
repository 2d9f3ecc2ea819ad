package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Azure    AzureConfig
	AI       AIConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StorageConfig selects where the health log collection is persisted
type StorageConfig struct {
	Backend string // file, redis, postgres or blob
	Key     string
	Dir     string
	// EncryptionKey is a base64 encoded 32-byte key. Empty disables encryption.
	EncryptionKey string
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL   string
	Table string
}

// AzureConfig holds Azure service configuration
type AzureConfig struct {
	Storage AzureStorageConfig
}

// AzureStorageConfig holds Azure Blob Storage configuration
type AzureStorageConfig struct {
	AccountName      string
	AccountKey       string
	ConnectionString string
	Container        string
	ReportContainer  string
}

// AIConfig holds the advisory completion backend configuration
type AIConfig struct {
	Provider   string // gemini, openai or azure
	APIKey     string
	Model      string
	BaseURL    string
	Endpoint   string
	APIVersion string
	Timeout    time.Duration
	Window     int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and an optional config
// file named by CONFIG_FILE
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if file := v.GetString("config.file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)
	v.SetDefault("server.allowedorigins", []string{"*"})

	// Storage defaults
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.key", "health_logs_v1")
	v.SetDefault("storage.dir", "./data")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.table", "kv_slots")

	// Azure Storage defaults
	v.SetDefault("azure.storage.container", "health-logs")
	v.SetDefault("azure.storage.reportcontainer", "health-reports")

	// AI defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-3-flash-preview")
	v.SetDefault("ai.apiversion", "2024-08-01-preview")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.window", 7)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("config.file", "CONFIG_FILE")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")
	v.BindEnv("server.allowedorigins", "ALLOWED_ORIGINS")

	// Storage
	v.BindEnv("storage.backend", "STORAGE_BACKEND")
	v.BindEnv("storage.key", "STORAGE_KEY")
	v.BindEnv("storage.dir", "DATA_DIR")
	v.BindEnv("storage.encryptionkey", "STORAGE_ENCRYPTION_KEY")

	// Redis
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// Database
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.table", "DATABASE_TABLE")

	// Azure Storage
	v.BindEnv("azure.storage.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("azure.storage.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	v.BindEnv("azure.storage.connectionstring", "AZURE_STORAGE_CONNECTION_STRING")
	v.BindEnv("azure.storage.container", "AZURE_STORAGE_CONTAINER")
	v.BindEnv("azure.storage.reportcontainer", "AZURE_STORAGE_REPORT_CONTAINER")

	// AI
	v.BindEnv("ai.provider", "AI_PROVIDER")
	v.BindEnv("ai.apikey", "AI_API_KEY", "API_KEY", "GEMINI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")
	v.BindEnv("ai.baseurl", "AI_BASE_URL")
	v.BindEnv("ai.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("ai.apiversion", "AZURE_OPENAI_API_VERSION")
	v.BindEnv("ai.timeout", "AI_TIMEOUT")
	v.BindEnv("ai.window", "AI_WINDOW")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid. A missing AI key is not an
// error: the advisory feature reports itself as not configured instead.
func (c *Config) Validate() error {
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the file backend")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres backend")
		}
	case "blob":
		if !c.Azure.Storage.HasCredentials() {
			return fmt.Errorf("azure storage credentials are required for the blob backend (either connection string or account name + key)")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	if c.Storage.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.Storage.EncryptionKey)
		if err != nil {
			return fmt.Errorf("storage.encryptionkey must be base64: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("storage.encryptionkey must decode to 32 bytes, got %d", len(key))
		}
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	case "azure":
		if c.AI.APIKey != "" && c.AI.Endpoint == "" {
			return fmt.Errorf("ai.endpoint is required for the azure provider")
		}
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}

	if c.AI.Window <= 0 {
		return fmt.Errorf("ai.window must be positive")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}

	return nil
}

// HasCredentials reports whether blob storage can be reached
func (s AzureStorageConfig) HasCredentials() bool {
	return s.ConnectionString != "" || (s.AccountName != "" && s.AccountKey != "")
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
