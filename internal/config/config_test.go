package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "APP_NAME", "APP_PORT", "ENV", "CATALOG_API_URL", "CATALOG_API_TIMEOUT_MS")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "catalog-admin", cfg.AppName)
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "http://localhost:3001", cfg.CatalogAPIURL)
	assert.Equal(t, time.Duration(0), cfg.CatalogAPITimeout())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CATALOG_API_URL", "https://catalog.internal:8443")
	t.Setenv("CATALOG_API_TIMEOUT_MS", "1500")
	t.Setenv("ENV", "production")
	t.Setenv("TRACE_STDOUT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://catalog.internal:8443", cfg.CatalogAPIURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.CatalogAPITimeout())
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.TraceStdout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"relative url", "CATALOG_API_URL", "localhost:3001/api"},
		{"unsupported scheme", "CATALOG_API_URL", "ftp://catalog"},
		{"negative timeout", "CATALOG_API_TIMEOUT_MS", "-1"},
		{"non numeric timeout", "CATALOG_API_TIMEOUT_MS", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestStructAttrs(t *testing.T) {
	cfg := &Config{AppName: "admin", AppPort: "3000", CatalogAPITimeoutMs: 250, TraceStdout: true}

	attrs := StructAttrs("data", cfg.ToSafeConfig())

	byKey := make(map[string]slog.Value, len(attrs))
	for _, a := range attrs {
		byKey[a.Key] = a.Value
	}
	assert.Equal(t, "admin", byKey["data.app_name"].String())
	assert.Equal(t, int64(250), byKey["data.catalog_api_timeout_ms"].Int64())
	assert.True(t, byKey["data.trace_stdout"].Bool())
	_, leaked := byKey["data.remote_log_http_uri"]
	assert.False(t, leaked)
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "catalog_a_p_i_u_r_l", toSnake("CatalogAPIURL"))
	assert.Equal(t, "app_name", toSnake("AppName"))
}
