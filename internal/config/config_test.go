package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwvault/internal/adapter/driven/saltcipher"
)

// allConfigKeys lists every PWVAULT_ env var that Load() reads.
var allConfigKeys = []string{
	"PWVAULT_DB_PATH",
	"PWVAULT_KEY_FILE",
	"PWVAULT_CIPHER_MODE",
	"PWVAULT_LOG_LEVEL",
}

// isolateConfigEnv unsets all PWVAULT_ env vars so tests don't inherit values
// from the host environment. t.Cleanup restores original values.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWVAULT_DB_PATH", "/tmp/vault.db")
	t.Setenv("PWVAULT_KEY_FILE", "/tmp/key")
	t.Setenv("PWVAULT_CIPHER_MODE", "ctr")
	t.Setenv("PWVAULT_LOG_LEVEL", "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/tmp/vault.db", cfg.DBPath)
	assert.Equal(t, "/tmp/key", cfg.KeyFile)
	assert.Equal(t, saltcipher.ModeCTR, cfg.CipherMode)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "dist/data.db", cfg.DBPath)
	assert.Equal(t, "dist/key.log", cfg.KeyFile)
	assert.Equal(t, saltcipher.ModeGCM, cfg.CipherMode)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoad_InvalidCipherMode(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWVAULT_CIPHER_MODE", "EAX")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWVAULT_LOG_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}
