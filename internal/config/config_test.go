package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "")
	t.Setenv("OCRSPACE_API_KEY", "test-key")
	t.Setenv("REGISTRY_DB_PATH", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ocrspace", cfg.OCRProvider)
	assert.Equal(t, "eng", cfg.OCRLanguage)
	assert.Equal(t, "certs.db", cfg.RegistryDBPath)
	assert.Equal(t, "Verifications", cfg.AuditSheetWorksheet)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadRequiresAPIKeyForOCRSpace(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "ocrspace")
	t.Setenv("OCRSPACE_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCRSPACE_API_KEY is required")
}

func TestLoadVisionNeedsNoAPIKey(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "vision")
	t.Setenv("OCRSPACE_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "vision", cfg.OCRProvider)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "tesseract")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown OCR_PROVIDER")
}

func TestGetLoggerConfig(t *testing.T) {
	cfg := &Config{
		LogLevel:      "debug",
		LogFormat:     "json",
		LogTimeFormat: "2006-01-02",
		LogOutput:     "stderr",
	}

	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stderr", lc.Output)
}
