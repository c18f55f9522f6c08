package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"POINTBATTLE_DATA_DIR", "POINTBATTLE_DB_FILE", "POINTBATTLE_PREFS_FILE", "BIND_HOST", "PORT", "LOG_LEVEL", "LOG_FORMAT", "TOKEN_SECRET", "TOKEN_TTL", "COOKIE_NAME"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "pointbattle.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join("data", "preferences.yaml"), cfg.PreferencesPath())
	assert.Equal(t, "127.0.0.1:5175", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Len(t, cfg.TokenSecret, 64)

	again, err := Load()
	require.NoError(t, err)
	assert.NotEqual(t, cfg.TokenSecret, again.TokenSecret)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POINTBATTLE_DATA_DIR", dir)
	t.Setenv("POINTBATTLE_DB_FILE", "games.db")
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "games.db"), cfg.DatabasePath())
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, "s3cret", cfg.TokenSecret)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("LOG_FORMAT", "xml")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("POINTBATTLE_DB_FILE=fromdotenv.db\nPORT=7000\n"), 0o644))
	t.Setenv("PORT", "6000")
	t.Setenv("POINTBATTLE_DB_FILE", "")
	require.NoError(t, os.Unsetenv("POINTBATTLE_DB_FILE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "fromdotenv.db", os.Getenv("POINTBATTLE_DB_FILE"))
	assert.Equal(t, "6000", os.Getenv("PORT"), "existing variables win")
}
