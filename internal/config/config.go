// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ericfisherdev/pwvault/internal/adapter/driven/saltcipher"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string
	KeyFile    string
	CipherMode saltcipher.Mode
	LogLevel   slog.Level
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: PWVAULT_DB_PATH (dist/data.db),
// PWVAULT_KEY_FILE (dist/key.log), PWVAULT_CIPHER_MODE (GCM),
// PWVAULT_LOG_LEVEL (warn).
func Load() (*Config, error) {
	dbPath := "dist/data.db"
	if v, ok := os.LookupEnv("PWVAULT_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	keyFile := "dist/key.log"
	if v, ok := os.LookupEnv("PWVAULT_KEY_FILE"); ok && v != "" {
		keyFile = v
	}

	mode := saltcipher.ModeGCM
	if v, ok := os.LookupEnv("PWVAULT_CIPHER_MODE"); ok {
		parsed, err := saltcipher.ParseMode(v)
		if err != nil {
			return nil, fmt.Errorf("PWVAULT_CIPHER_MODE: %w", err)
		}
		mode = parsed
	}

	level := slog.LevelWarn
	if v, ok := os.LookupEnv("PWVAULT_LOG_LEVEL"); ok {
		if err := level.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("PWVAULT_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return &Config{
		DBPath:     dbPath,
		KeyFile:    keyFile,
		CipherMode: mode,
		LogLevel:   level,
	}, nil
}
