package config

import (
	"os"
	"strconv"
	"time"

	"gopivot/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig `validate:"required"`
	Server    ServerConfig   `validate:"required"`
	Pivot     PivotConfig    `validate:"required"`
	Profiling ProfilingConfig
	LogLevel  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string `validate:"required"`
	Driver       string
	FetchSize    int
	QueryTimeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `validate:"required"`
}

// ProfilingConfig controls the pprof endpoint
type ProfilingConfig struct {
	Enabled bool
	Port    string
}

// PivotConfig holds cube rendering settings
type PivotConfig struct {
	// Env selects the amor_<env> schema.
	Env             string
	UsageLogEnabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	// Load database configuration
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	// Load server configuration
	config.Server = *loadServerConfig()

	// Load pivot configuration
	config.Pivot = *loadPivotConfig()

	config.Profiling = ProfilingConfig{
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
	}

	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "INFO")

	// Validate required fields
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:          url,
		Driver:       getEnvOrDefault("DB_DRIVER", "postgres"),
		FetchSize:    getEnvIntOrDefault("FETCH_SIZE", 2048),
		QueryTimeout: getEnvDurationOrDefault("QUERY_TIMEOUT", 30*time.Second),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadPivotConfig() *PivotConfig {
	return &PivotConfig{
		Env:             getEnvOrDefault("PIVOT_ENV", "prod"),
		UsageLogEnabled: getEnvBoolOrDefault("USAGE_LOG_ENABLED", true),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid("DB_DRIVER must be postgres or sqlite")
	}
	if config.Database.FetchSize <= 0 {
		return errors.ConfigInvalid("FETCH_SIZE must be positive")
	}
	if config.Database.QueryTimeout <= 0 {
		return errors.ConfigInvalid("QUERY_TIMEOUT must be positive")
	}
	for _, r := range config.Pivot.Env {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return errors.ConfigInvalid("PIVOT_ENV may contain only lowercase letters, digits and underscores")
		}
	}
	if config.Pivot.Env == "" {
		return errors.ConfigInvalid("PIVOT_ENV is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
