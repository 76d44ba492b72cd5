// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	KABRO_HOST="0.0.0.0"
//	KABRO_PORT="8080"
//	KABRO_HEALTH_PORT="9090"
//	KABRO_READ_TIMEOUT="15s"
//	KABRO_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	KABRO_POSTGRES_URL="postgres://localhost/accesscore"
//	KABRO_POSTGRES_MAX_CONNS="25"
//	KABRO_POSTGRES_IDLE_CONNS="5"
//	KABRO_POSTGRES_CONN_LIFETIME="5m"
//
// Decision engine settings:
//
//	KABRO_DECISION_TIMEOUT="2s"
//
// Audit settings:
//
//	KABRO_AUDIT_RETENTION_DAYS="730"
//	KABRO_AUDIT_SWEEP_SCHEDULE="0 3 * * *"
//	KABRO_AUDIT_CONSOLE_FALLBACK="false"
//
// Observability settings:
//
//	KABRO_LOG_LEVEL="info"  # debug, info, warn, error
//	KABRO_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses database configuration
//   - pkg/observability: Uses observability configuration
package config
