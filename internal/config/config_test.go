package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dolhouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Output:    "extracted",
		Database:  "dolhouse.db",
		LogLevel:  "info",
		LogFormat: "text",
	}, cfg)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
output: out
cache_dir: /tmp/dolhouse-cache
decompress_nested: true
log_level: debug
log_format: json
`)
	t.Setenv("DOLHOUSE_DATABASE", "env.db")
	t.Setenv("DOLHOUSE_NO_CACHE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.Output)
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, "/tmp/dolhouse-cache", cfg.CacheDir)
	assert.True(t, cfg.NoCache)
	assert.True(t, cfg.DecompressNested)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "log_level: loud\n"))
	require.ErrorContains(t, err, "unsupported log level")

	_, err = Load(writeConfig(t, "log_format: xml\n"))
	require.ErrorContains(t, err, "unsupported log format")

	_, err = Load(writeConfig(t, "output: [unclosed\n"))
	require.ErrorContains(t, err, "failed to read config file")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "an explicit config file has to exist")
}
