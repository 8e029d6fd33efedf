package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callcache/internal/instrument"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "callcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Store)
	assert.Equal(t, []string{"count", "history"}, cfg.Order)
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvLogLevel, "")

	path := writeConfig(t, `
store: sqlite:///tmp/callcache.db
order: [history, count]
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/callcache.db", cfg.Store)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	order, err := cfg.InstrumentOrder()
	require.NoError(t, err)
	assert.Equal(t, instrument.Order{instrument.LayerHistory, instrument.LayerCount}, order)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(writeConfig(t, "log_level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, Default().Store, cfg.Store)
	assert.Equal(t, Default().Order, cfg.Order)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvStore, "memory://")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(writeConfig(t, "store: redis://cache:6379/1\n"))
	require.NoError(t, err)
	assert.Equal(t, "memory://", cfg.Store)
	assert.Equal(t, slog.LevelError, cfg.SlogLevel())
}

func TestLoad_EmptyOrderAllowed(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(writeConfig(t, "order: []\n"))
	require.NoError(t, err)
	order, err := cfg.InstrumentOrder()
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvStore, "")
	t.Setenv(EnvLogLevel, "")

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "stor: memory://\n"},
		{"bad scheme", "store: etcd://localhost\n"},
		{"bad layer", "order: [count, timing]\n"},
		{"repeated layer", "order: [count, count]\n"},
		{"bad log level", "log_level: loud\n"},
		{"malformed yaml", "store: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestSlogLevel_DefaultsToInfo(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "info"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{}.SlogLevel())
}
