package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:3000", cfg.ListenAddr())
	require.Equal(t, "general", cfg.Chat.DefaultChannel)
	require.Equal(t, "0 * * * *", cfg.Retention.Cron)
	require.Equal(t, 200, cfg.Social.MailboxCap)

	w, err := cfg.RetentionWindow()
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, w)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 8080
chat:
  default_channel: lobby
retention:
  enabled: true
  window: 168h
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "lobby", cfg.Chat.DefaultChannel)
	require.True(t, cfg.Retention.Enabled)

	w, err := cfg.RetentionWindow()
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, w)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CAMPFIRE_PORT", "9999")
	t.Setenv("CAMPFIRE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestInvalidRetentionWindowRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retention:\n  window: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestMalformedYAMLRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: a: mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
