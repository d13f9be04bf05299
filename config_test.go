package minhook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k2io/minhook/engine/table"
	"github.com/k2io/minhook/internal/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("MINHOOK_LOG_LEVEL", "debug")
	t.Setenv("MINHOOK_ENGINE", "table")
	t.Setenv("MINHOOK_SYMBOL_CACHE_SIZE", "8")
	t.Setenv("MINHOOK_METRICS", "true")

	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, Config{
		LogLevel:        "debug",
		LogFormat:       "text",
		Engine:          EngineTable,
		SymbolCacheSize: 8,
		Metrics:         true,
	}, cfg)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minhook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: table\nlog-level: warn\nlog-format: json\n"), 0o600))
	t.Setenv("MINHOOK_CONFIG", path)
	t.Setenv("MINHOOK_LOG_LEVEL", "error")

	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, EngineTable, cfg.Engine)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "error", cfg.LogLevel, "environment wins over the file")
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("MINHOOK_ENGINE", "jit")
	_, err := LoadConfig(viper.New())
	assert.ErrorContains(t, err, `invalid engine "jit"`)

	t.Setenv("MINHOOK_ENGINE", "table")
	t.Setenv("MINHOOK_SYMBOL_CACHE_SIZE", "0")
	_, err = LoadConfig(viper.New())
	assert.Error(t, err)

	t.Setenv("MINHOOK_SYMBOL_CACHE_SIZE", "8")
	t.Setenv("MINHOOK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig(viper.New())
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestNew(t *testing.T) {
	t.Cleanup(func() { _ = logger.SetupLogging("info", "text") })

	cfg := DefaultConfig()
	cfg.Engine = EngineTable
	cfg.Metrics = true
	r, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &table.Engine{}, r.Engine())
	require.NoError(t, r.Close())

	cfg.LogLevel = "loud"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Engine = ""
	_, err = New(cfg)
	assert.Error(t, err)
}
