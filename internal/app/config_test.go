package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/travelbot/core/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "tok", cfg.Telegram.Token)
	require.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, "sk-test", cfg.DeepSeek.APIKey)
	require.Equal(t, StorageMemory, cfg.Storage.Driver)
	require.Equal(t, 10, cfg.RateLimit.WindowRequests)
	require.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	require.False(t, cfg.AccessOpen())
	require.True(t, cfg.AccessClosed())
	require.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadConfigFileAndOverlay(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: from-file
  admin_id: 42
rate_limit:
  interval_ms: 500
deepseek:
  api_key: from-file
  model: deepseek-reasoner
  timeout_seconds: 30
storage:
  driver: " Memory "
  idle_ttl_minutes: 90
`)
	t.Setenv("DEEPSEEK_API_KEY", "from-env")
	t.Setenv("ALLOWED_USER_IDS", "5,6")
	t.Setenv("ACCESS_OPEN", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, int64(42), cfg.Telegram.AdminID)
	require.Equal(t, "from-env", cfg.DeepSeek.APIKey)
	require.Equal(t, []int64{5, 6}, cfg.Access.AllowedUserIDs)
	require.True(t, cfg.AccessOpen())
	require.Equal(t, StorageMemory, cfg.Storage.Driver)
	require.Equal(t, 90*time.Minute, cfg.Storage.IdleTTL())
	// an explicit interval disables the window default
	require.Equal(t, 500, cfg.RateLimit.IntervalMS)
	require.Zero(t, cfg.RateLimit.WindowRequests)

	cc := cfg.DeepSeek.CompletionConfig()
	require.Equal(t, "deepseek-reasoner", cc.Model)
	require.Equal(t, 30*time.Second, cc.Timeout)
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: t\n")
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "deepseek.api_key")
}

func TestLoadConfigStorageDriver(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: t\ndeepseek:\n  api_key: k\nstorage:\n  driver: redis\n")
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "storage.driver")

	path = writeConfig(t, "telegram:\n  token: t\ndeepseek:\n  api_key: k\nstorage:\n  driver: postgres\n")
	_, err = LoadConfig(path)
	require.ErrorContains(t, err, "database.host")

	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "travel")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, StoragePostgres, cfg.Storage.Driver)
	require.Equal(t, "5432", cfg.Database.Port)
}

func TestLoadConfigRejectsTemperature(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: t\ndeepseek:\n  api_key: k\n  temperature: 3\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
}
