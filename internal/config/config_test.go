package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANONYFILES_API_URL",
		"ANONYFILES_CLIENT_TIMEOUT",
		"ANONYFILES_POLL_INTERVAL",
		"ANONYFILES_MAX_POLLS",
		"ANONYFILES_POLL_TIMEOUT",
		"ANONYFILES_LOG_FILE",
		"ANONYFILES_LOG_LEVEL",
		"ANONYFILES_METRICS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.APIURL)
	assert.Equal(t, 10*time.Minute, cfg.ClientTimeout)
	assert.Equal(t, 1200*time.Millisecond, cfg.PollInterval)
	assert.Zero(t, cfg.MaxPolls)
	assert.Zero(t, cfg.PollTimeout)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, filepath.Join(os.TempDir(), "anonyfiles.log"), cfg.LogFile)
	assert.Empty(t, cfg.MetricsFile)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANONYFILES_API_URL", "https://anon.example.com/api/")
	t.Setenv("ANONYFILES_POLL_INTERVAL", "500")
	t.Setenv("ANONYFILES_MAX_POLLS", "20")
	t.Setenv("ANONYFILES_POLL_TIMEOUT", "2m")
	t.Setenv("ANONYFILES_LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "https://anon.example.com/api", cfg.APIURL)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 20, cfg.MaxPolls)
	assert.Equal(t, 2*time.Minute, cfg.PollTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANONYFILES_POLL_INTERVAL", "soon")
	t.Setenv("ANONYFILES_CLIENT_TIMEOUT", "-5s")
	t.Setenv("ANONYFILES_MAX_POLLS", "-1")

	cfg := Load()

	assert.Equal(t, 1200*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.ClientTimeout)
	assert.Zero(t, cfg.MaxPolls)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "anonyfiles.env")
	require.NoError(t, os.WriteFile(path, []byte("ANONYFILES_API_URL=http://from-file:8000/api\nANONYFILES_MAX_POLLS=7\n"), 0o600))

	// Already set values win over the file.
	t.Setenv("ANONYFILES_MAX_POLLS", "3")
	os.Unsetenv("ANONYFILES_API_URL")

	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { os.Unsetenv("ANONYFILES_API_URL") })

	cfg := Load()
	assert.Equal(t, "http://from-file:8000/api", cfg.APIURL)
	assert.Equal(t, 3, cfg.MaxPolls)

	assert.Error(t, LoadEnvFile(filepath.Join(dir, "missing.env")), "explicit files must exist")
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("job queued", "job_id", "j1")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "job_id=j1")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(file.String())), &record))
	assert.Equal(t, "job queued", record["msg"])
	assert.Equal(t, "j1", record["job_id"])
}

func TestSetupLoggerFileIncludesDebug(t *testing.T) {
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "client.log")

	logger, cleanup := setupLogger(&stderr, path, slog.LevelWarn)
	logger.Debug("poll", "job_id", "j1")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"poll"`)
	assert.Empty(t, stderr.String())
}
