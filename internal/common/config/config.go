package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/edgecomet/botagent/internal/common/configtypes"
)

// Type aliases so callers need only this package
type (
	Config         = configtypes.Config
	PatternsConfig = configtypes.PatternsConfig
	ServerConfig   = configtypes.ServerConfig
	MetricsConfig  = configtypes.MetricsConfig
	LogConfig      = configtypes.LogConfig
)

// Defaults applied when the config file leaves a field empty
const (
	DefaultServerListen     = ":8080"
	DefaultServerTimeout    = 5 * time.Second
	DefaultMetricsListen    = ":9090"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "botagent"
)

// ConfigManager loads and holds the service configuration
type ConfigManager struct {
	config     *Config
	configPath string
	logger     *zap.Logger
}

// NewConfigManager loads configPath, applies overrides, defaults, and validates
func NewConfigManager(configPath string, logger *zap.Logger, overrides ...func(*Config)) (*ConfigManager, error) {
	cm := &ConfigManager{
		configPath: configPath,
		logger:     logger,
	}

	if err := cm.LoadConfig(overrides...); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cm, nil
}

// LoadConfig reads the config file. An empty path yields defaults only.
func (cm *ConfigManager) LoadConfig(overrides ...func(*Config)) error {
	cfg := &Config{}

	if cm.configPath != "" {
		data, err := os.ReadFile(cm.configPath)
		if err != nil {
			return err
		}
		if err := UnmarshalStrict(data, cfg); err != nil {
			return fmt.Errorf("%s: %w", cm.configPath, err)
		}
	}

	for _, override := range overrides {
		override(cfg)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		if cm.configPath != "" {
			return fmt.Errorf("%s: %w", cm.configPath, err)
		}
		return err
	}

	cm.config = cfg
	cm.emitConfigWarnings()

	return nil
}

// GetConfig returns the loaded configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// ConfigPath returns the path the configuration was loaded from
func (cm *ConfigManager) ConfigPath() string {
	return cm.configPath
}

// applyDefaults applies default values to configuration
func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultServerListen
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = configtypes.Duration(DefaultServerTimeout)
	}

	if cfg.Patterns.Warmup == nil {
		warmup := true
		cfg.Patterns.Warmup = &warmup
	}

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = DefaultMetricsListen
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// If both outputs are disabled (zero values), enable console by default
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = configtypes.LogLevelInfo
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = configtypes.LogFormatConsole
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = configtypes.LogFormatText
	}
}

// emitConfigWarnings logs non-fatal configuration concerns
func (cm *ConfigManager) emitConfigWarnings() {
	if cm.logger == nil {
		return
	}
	if cm.config.Patterns.Warmup != nil && !*cm.config.Patterns.Warmup {
		cm.logger.Warn("patterns.warmup=false: pattern source errors surface on the first request instead of at startup")
	}
}

// UnmarshalStrict unmarshals YAML data with strict field checking enabled.
// Unknown fields in the YAML will cause an error, helping catch typos.
func UnmarshalStrict(data []byte, v interface{}) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(v)
	if errors.Is(err, io.EOF) {
		// Empty document: keep zero values
		return nil
	}
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "field") && strings.Contains(errStr, "not found") {
			return fmt.Errorf("unknown configuration field (check for typos): %w", err)
		}
		return err
	}

	return nil
}
