package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ADDR", "METRICS_ADDR", "LOG_LEVEL", "LOG_FILE",
		"OCRSPACE_API_KEY", "OCRSPACE_URL", "OCR_TIMEOUT_SECONDS", "OCR_MAX_CONCURRENT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://api.ocr.space/parse/image", cfg.OCR.URL)
	assert.Equal(t, 30, cfg.OCR.TimeoutSeconds)
	assert.Equal(t, 3, cfg.OCR.MaxConcurrent)
	assert.Empty(t, cfg.OCR.APIKey, "api key must never have a default")
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr = ":3000"

[log]
level = "debug"

[ocr]
api_key = "file-key"
timeout_seconds = 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "file-key", cfg.OCR.APIKey)
	assert.Equal(t, 10, cfg.OCR.TimeoutSeconds)
	// untouched fields keep their defaults
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, 3, cfg.OCR.MaxConcurrent)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ocr]
api_key = "file-key"
`), 0o644))

	t.Setenv("OCRSPACE_API_KEY", "env-key")
	t.Setenv("OCRSPACE_URL", "http://localhost:1234/parse")
	t.Setenv("ADDR", ":9999")
	t.Setenv("OCR_TIMEOUT_SECONDS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.OCR.APIKey)
	assert.Equal(t, "http://localhost:1234/parse", cfg.OCR.URL)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 5, cfg.OCR.TimeoutSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) { c.OCR.APIKey = "k" },
		},
		{
			name:    "missing api key",
			mutate:  func(*Config) {},
			wantErr: "OCRSPACE_API_KEY",
		},
		{
			name: "bad timeout",
			mutate: func(c *Config) {
				c.OCR.APIKey = "k"
				c.OCR.TimeoutSeconds = 0
			},
			wantErr: "timeout_seconds",
		},
	}

	clearEnv(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tc.mutate(&cfg)

			err = cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
