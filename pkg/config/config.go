package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kabro/accesscore/pkg/audit"
	"github.com/kabro/accesscore/pkg/observability"
	"github.com/kabro/accesscore/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Decision engine configuration
	Decision DecisionConfig

	// Audit trail configuration
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL  string
	Pool storage.PoolConfig
}

// DecisionConfig holds access decision engine settings
type DecisionConfig struct {
	// Timeout bounds a single access check, store reads included.
	Timeout time.Duration
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	// ConsoleFallback mirrors entries to stdout alongside the database sink.
	ConsoleFallback bool

	Retention audit.RetentionPolicy
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Decision:      loadDecisionConfig(),
		Audit:         loadAuditConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("KABRO_HOST", "0.0.0.0"),
		Port:            getEnv("KABRO_PORT", "8080"),
		ReadTimeout:     getEnvDuration("KABRO_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("KABRO_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("KABRO_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("KABRO_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("KABRO_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads PostgreSQL configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	pool := storage.DefaultPoolConfig()

	if maxConns := getEnvInt("KABRO_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		pool.MaxOpenConns = maxConns
	}
	if idleConns := getEnvInt("KABRO_POSTGRES_IDLE_CONNS", 0); idleConns > 0 {
		pool.MaxIdleConns = idleConns
	}
	if lifetime := getEnvDuration("KABRO_POSTGRES_CONN_LIFETIME", 0); lifetime > 0 {
		pool.ConnMaxLifetime = lifetime
	}

	return DatabaseConfig{
		URL:  getEnv("KABRO_POSTGRES_URL", ""),
		Pool: pool,
	}
}

// loadDecisionConfig loads decision engine configuration from environment
func loadDecisionConfig() DecisionConfig {
	return DecisionConfig{
		Timeout: getEnvDuration("KABRO_DECISION_TIMEOUT", 2*time.Second),
	}
}

// loadAuditConfig loads audit trail configuration from environment
func loadAuditConfig() AuditConfig {
	retention := audit.DefaultRetentionPolicy()
	retention.RetentionDays = getEnvInt("KABRO_AUDIT_RETENTION_DAYS", retention.RetentionDays)
	if schedule := getEnv("KABRO_AUDIT_SWEEP_SCHEDULE", ""); schedule != "" {
		retention.Schedule = schedule
	}

	return AuditConfig{
		ConsoleFallback: getEnvBool("KABRO_AUDIT_CONSOLE_FALLBACK", false),
		Retention:       retention,
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("KABRO_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("KABRO_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Database.Pool.MaxIdleConns > c.Database.Pool.MaxOpenConns {
		return fmt.Errorf("idle connections cannot exceed max open connections")
	}

	if c.Decision.Timeout <= 0 {
		return fmt.Errorf("decision timeout must be positive")
	}

	if c.Audit.Retention.RetentionDays < 0 {
		return fmt.Errorf("audit retention days cannot be negative")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
