// Package config loads client settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values.
type Config struct {
	// Service
	APIURL        string
	ClientTimeout time.Duration

	// Polling
	PollInterval time.Duration
	MaxPolls     int
	PollTimeout  time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Metrics textfile, empty disables export
	MetricsFile string
}

// Load reads configuration from environment variables.
// Unparsable values fall back to their defaults.
func Load() Config {
	return Config{
		APIURL:        strings.TrimRight(getEnv("ANONYFILES_API_URL", "http://127.0.0.1:8000/api"), "/"),
		ClientTimeout: getDuration("ANONYFILES_CLIENT_TIMEOUT", 10*time.Minute),

		PollInterval: getDuration("ANONYFILES_POLL_INTERVAL", 1200*time.Millisecond),
		MaxPolls:     getInt("ANONYFILES_MAX_POLLS", 0),
		PollTimeout:  getDuration("ANONYFILES_POLL_TIMEOUT", 0),

		LogFile:  getEnv("ANONYFILES_LOG_FILE", filepath.Join(os.TempDir(), "anonyfiles.log")),
		LogLevel: parseLogLevel(getEnv("ANONYFILES_LOG_LEVEL", "WARN")),

		MetricsFile: getEnv("ANONYFILES_METRICS_FILE", ""),
	}
}

// LoadEnvFile loads variables from a .env file without overriding the
// environment. A missing default file is not an error; a missing explicit
// file is.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Bare numbers are milliseconds.
		ms, nerr := strconv.Atoi(val)
		if nerr != nil || ms < 0 {
			return defaultVal
		}
		return time.Duration(ms) * time.Millisecond
	}
	if d < 0 {
		return defaultVal
	}
	return d
}

func getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
