package configtypes

import (
	"fmt"
	"strings"
)

// Validate validates the service configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is empty")
	}

	if strings.TrimSpace(c.Patterns.Source) == "" {
		return fmt.Errorf("patterns.source must be specified")
	}

	serverPort, err := ValidateListenAddress(c.Server.Listen)
	if err != nil {
		return fmt.Errorf("invalid server.listen: %w", err)
	}

	if c.Server.Timeout.ToDuration() < 0 {
		return fmt.Errorf("server.timeout must be >= 0, got %v", c.Server.Timeout)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Listen == "" {
			return fmt.Errorf("metrics.listen must be specified when enabled")
		}
		metricsPort, err := ValidateListenAddress(c.Metrics.Listen)
		if err != nil {
			return fmt.Errorf("invalid metrics.listen: %w", err)
		}
		if metricsPort == serverPort {
			return fmt.Errorf("metrics.listen port (%d) must differ from server.listen port (%d)", metricsPort, serverPort)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path must start with '/', got '%s'", c.Metrics.Path)
		}
	}

	return c.Log.Validate()
}

// Validate validates logging configuration
func (l *LogConfig) Validate() error {
	validLogLevels := map[string]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}
	for field, level := range map[string]string{
		"log.level":         l.Level,
		"log.console.level": l.Console.Level,
		"log.file.level":    l.File.Level,
	} {
		if level != "" && !validLogLevels[level] {
			return fmt.Errorf("%s must be one of: debug, info, warn, error, got '%s'", field, level)
		}
	}

	validConsoleFormats := map[string]bool{
		LogFormatJSON:    true,
		LogFormatConsole: true,
	}
	if l.Console.Enabled && l.Console.Format != "" && !validConsoleFormats[l.Console.Format] {
		return fmt.Errorf("log.console.format must be 'json' or 'console', got '%s'", l.Console.Format)
	}

	if l.File.Enabled {
		if l.File.Path == "" {
			return fmt.Errorf("log.file.path must be specified when file logging is enabled")
		}

		validFileFormats := map[string]bool{
			LogFormatJSON: true,
			LogFormatText: true,
		}
		if l.File.Format != "" && !validFileFormats[l.File.Format] {
			return fmt.Errorf("log.file.format must be 'json' or 'text', got '%s'", l.File.Format)
		}

		if l.File.Rotation.MaxSize < 0 {
			return fmt.Errorf("log.file.rotation.max_size must be >= 0, got %d", l.File.Rotation.MaxSize)
		}
		if l.File.Rotation.MaxAge < 0 {
			return fmt.Errorf("log.file.rotation.max_age must be >= 0, got %d", l.File.Rotation.MaxAge)
		}
		if l.File.Rotation.MaxBackups < 0 {
			return fmt.Errorf("log.file.rotation.max_backups must be >= 0, got %d", l.File.Rotation.MaxBackups)
		}
	}

	return nil
}
