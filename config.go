package minhook

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/engine/native"
	"github.com/k2io/minhook/engine/table"
	"github.com/k2io/minhook/internal/logger"
)

const (
	KeyConfig          = "config"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyEngine          = "engine"
	KeySymbolCacheSize = "symbol-cache-size"
	KeyMetrics         = "metrics"

	EnvPrefix = "minhook"
)

const (
	EngineNative = "native"
	EngineTable  = "table"
)

// Config selects the engine and the ambient setup of a Registry.
type Config struct {
	LogLevel        string
	LogFormat       string
	Engine          string
	SymbolCacheSize int
	Metrics         bool
}

func DefaultConfig() Config {
	return Config{
		LogLevel:        "info",
		LogFormat:       string(logger.LogFormatText),
		Engine:          EngineNative,
		SymbolCacheSize: 64,
	}
}

// LoadConfig reads the configuration from v: defaults first, then the file
// named by the "config" key, then MINHOOK_* environment variables.
func LoadConfig(v *viper.Viper) (Config, error) {
	def := DefaultConfig()
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyLogFormat, def.LogFormat)
	v.SetDefault(KeyEngine, def.Engine)
	v.SetDefault(KeySymbolCacheSize, def.SymbolCacheSize)
	v.SetDefault(KeyMetrics, def.Metrics)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %q: %w", file, err)
		}
		logger.GetLogger().WithField(KeyConfig, file).Info("Loaded config from file")
	}

	cfg := Config{
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		Engine:          v.GetString(KeyEngine),
		SymbolCacheSize: v.GetInt(KeySymbolCacheSize),
		Metrics:         v.GetBool(KeyMetrics),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Engine {
	case EngineNative, EngineTable:
	default:
		return fmt.Errorf("invalid engine %q", c.Engine)
	}
	if c.SymbolCacheSize <= 0 {
		return errors.New("symbol-cache-size must be positive")
	}
	return nil
}

// New sets up logging and metrics from cfg and returns a Registry over the
// configured engine.
func New(cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.SetupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	if cfg.Metrics {
		if err := RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return nil, err
		}
	}
	var eng engine.Engine
	switch cfg.Engine {
	case EngineTable:
		eng = table.New()
	default:
		eng = native.New(native.WithSymbolCacheSize(cfg.SymbolCacheSize))
	}
	logger.GetLogger().WithField("engine", cfg.Engine).Debug("registry configured")
	return NewRegistry(eng), nil
}
