package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CHATEXPORT_API_URL",
	"CHATEXPORT_SESSION_KEY",
	"CHATEXPORT_CLIENT_TIMEOUT",
	"CHATEXPORT_OUTPUT_DIR",
	"CHATEXPORT_SETTLE_DELAY",
	"CHATEXPORT_BRIDGE_ADDR",
	"CHATEXPORT_LOG_FILE",
	"CHATEXPORT_LOG_LEVEL",
	"CHATEXPORT_CONFIG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://claude.ai/api", cfg.APIURL)
	assert.Equal(t, "", cfg.SessionKey)
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, 3*time.Second, cfg.SettleDelay)
	assert.Equal(t, "127.0.0.1:8765", cfg.BridgeAddr)
	assert.Equal(t, "/tmp/chatexport.log", cfg.LogFile)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATEXPORT_API_URL", "http://localhost:9000/api")
	t.Setenv("CHATEXPORT_SETTLE_DELAY", "250ms")
	t.Setenv("CHATEXPORT_CLIENT_TIMEOUT", "not-a-duration")
	t.Setenv("CHATEXPORT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/api", cfg.APIURL)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout, "malformed duration falls back to default")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATEXPORT_OUTPUT_DIR", "/from/env")
	t.Setenv("CHATEXPORT_BRIDGE_ADDR", "127.0.0.1:1")

	path := filepath.Join(t.TempDir(), "chatexport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output_dir: /from/file
settle_delay: 1s
log_level: warn
`), 0o644))
	t.Setenv("CHATEXPORT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/from/file", cfg.OutputDir)
	assert.Equal(t, time.Second, cfg.SettleDelay)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:1", cfg.BridgeAddr, "unset file fields keep env value")
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "output_dir: [unterminated"},
		{"bad duration", "client_timeout: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			t.Setenv("CHATEXPORT_CONFIG", path)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATEXPORT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestNewLogger(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := NewLogger(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("bulk export complete", "exported", 3)

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "exported=3")
	assert.Contains(t, file.String(), `"exported":3`)
}

func TestSetupLoggerFallsBackToStderr(t *testing.T) {
	logger, cleanup := SetupLogger(Config{
		LogFile:  filepath.Join(t.TempDir(), "missing", "dir", "x.log"),
		LogLevel: slog.LevelError,
	})
	require.NotNil(t, logger)
	assert.NoError(t, cleanup())
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatexport.log")
	logger, cleanup := SetupLogger(Config{LogFile: path, LogLevel: slog.LevelError})

	logger.Error("save failed", "file", "Test.json")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"save failed"`)
}
