package configtypes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() *Config {
	return &Config{
		Patterns: PatternsConfig{Source: "patterns.json"},
		Server:   ServerConfig{Listen: ":8080", Timeout: Duration(5 * time.Second)},
		Metrics: MetricsConfig{
			Enabled:   true,
			Listen:    ":9090",
			Path:      "/metrics",
			Namespace: "botagent",
		},
		Log: LogConfig{
			Level:   LogLevelInfo,
			Console: ConsoleLogConfig{Enabled: true, Format: LogFormatConsole},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errContains string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "metrics disabled ignores listen", mutate: func(c *Config) {
			c.Metrics = MetricsConfig{}
		}},
		{name: "missing source", mutate: func(c *Config) {
			c.Patterns.Source = "  "
		}, errContains: "patterns.source"},
		{name: "bad server listen", mutate: func(c *Config) {
			c.Server.Listen = "nope"
		}, errContains: "server.listen"},
		{name: "negative timeout", mutate: func(c *Config) {
			c.Server.Timeout = Duration(-time.Second)
		}, errContains: "server.timeout"},
		{name: "metrics same port", mutate: func(c *Config) {
			c.Metrics.Listen = "127.0.0.1:8080"
		}, errContains: "must differ"},
		{name: "metrics missing listen", mutate: func(c *Config) {
			c.Metrics.Listen = ""
		}, errContains: "metrics.listen must be specified"},
		{name: "metrics relative path", mutate: func(c *Config) {
			c.Metrics.Path = "metrics"
		}, errContains: "metrics.path"},
		{name: "bad log level", mutate: func(c *Config) {
			c.Log.Level = "verbose"
		}, errContains: "log.level"},
		{name: "bad console format", mutate: func(c *Config) {
			c.Log.Console.Format = "xml"
		}, errContains: "log.console.format"},
		{name: "file without path", mutate: func(c *Config) {
			c.Log.File.Enabled = true
		}, errContains: "log.file.path"},
		{name: "file bad format", mutate: func(c *Config) {
			c.Log.File = FileLogConfig{Enabled: true, Path: "/tmp/x.log", Format: "console"}
		}, errContains: "log.file.format"},
		{name: "file negative rotation", mutate: func(c *Config) {
			c.Log.File = FileLogConfig{Enabled: true, Path: "/tmp/x.log", Rotation: RotationConfig{MaxAge: -1}}
		}, errContains: "max_age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestConfig_ValidateNil(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}

func TestDuration_YAML(t *testing.T) {
	var out struct {
		Timeout Duration `yaml:"timeout"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("timeout: 250ms\n"), &out))
	assert.Equal(t, 250*time.Millisecond, out.Timeout.ToDuration())
	assert.Equal(t, "250ms", out.Timeout.String())

	err := yaml.Unmarshal([]byte("timeout: soon\n"), &out)
	assert.Error(t, err)

	data, err := yaml.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "250ms")
}
