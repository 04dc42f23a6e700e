package config

import (
	"fmt"
	"os"

	"certverify/internal/logger"
)

type Config struct {
	// OCR Configuration
	OCRProvider    string // "ocrspace" or "vision"
	OCRSpaceAPIKey string
	OCRLanguage    string

	// Google Cloud Configuration (vision provider, sheets export)
	GoogleCloudProject      string
	GoogleServiceAccountKey string

	// Registry Configuration
	RegistryDBPath string

	// Audit Trail Configuration
	AuditSheetURL       string
	AuditSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OCRProvider:             getEnv("OCR_PROVIDER", "ocrspace"),
		OCRSpaceAPIKey:          getEnv("OCRSPACE_API_KEY", ""),
		OCRLanguage:             getEnv("OCR_LANGUAGE", "eng"),
		GoogleCloudProject:      getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		RegistryDBPath:          getEnv("REGISTRY_DB_PATH", "certs.db"),
		AuditSheetURL:           getEnv("AUDIT_SHEET_URL", ""),
		AuditSheetWorksheet:     getEnv("AUDIT_SHEET_WORKSHEET", "Verifications"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:               getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCRProvider {
	case "ocrspace":
		if c.OCRSpaceAPIKey == "" {
			return fmt.Errorf("OCRSPACE_API_KEY is required when OCR_PROVIDER is ocrspace")
		}
	case "vision":
		// Credentials are resolved by the vision client from
		// GOOGLE_APPLICATION_CREDENTIALS / GOOGLE_CREDENTIALS.
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q (expected ocrspace or vision)", c.OCRProvider)
	}
	if c.RegistryDBPath == "" {
		return fmt.Errorf("REGISTRY_DB_PATH is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
