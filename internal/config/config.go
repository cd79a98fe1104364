// Package config loads the executor core's process-wide runtime settings:
// metrics port, tracing endpoint, and log level/format. Grounded on the
// teacher's internal/config/config.go viper-based Features loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ObservabilityConfig mirrors the subset of the teacher's
// ObservabilityConfig this core actually consumes.
type ObservabilityConfig struct {
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Tracing struct {
		Enabled  bool   `mapstructure:"enabled"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"tracing"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
}

// ExecutorRuntimeConfig is the top-level document read from runtime.yaml.
type ExecutorRuntimeConfig struct {
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// Load reads runtime.yaml from CONFIG_PATH, or /app/config/runtime.yaml if
// present, or config/runtime.yaml otherwise — same search order as the
// teacher's Load().
func Load() (*ExecutorRuntimeConfig, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		if _, err := os.Stat("/app/config/runtime.yaml"); err == nil {
			cfgPath = "/app/config/runtime.yaml"
		} else {
			cfgPath = "config/runtime.yaml"
		}
	}
	if info, err := os.Stat(cfgPath); err == nil && info.IsDir() {
		cfgPath = filepath.Join(cfgPath, "runtime.yaml")
	}

	v := viper.New()
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
	}
	var c ExecutorRuntimeConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// MetricsPort returns the configured Prometheus listen port, honoring a
// METRICS_PORT env override before falling back to the config file's value
// and finally defaultPort.
func MetricsPort(defaultPort int) int {
	if p := os.Getenv("METRICS_PORT"); p != "" {
		var v int
		if _, err := fmt.Sscanf(p, "%d", &v); err == nil && v > 0 {
			return v
		}
	}
	if c, err := Load(); err == nil && c.Observability.Metrics.Port > 0 {
		return c.Observability.Metrics.Port
	}
	return defaultPort
}

// TracingEndpoint returns the configured OTLP collector endpoint, honoring
// an OTEL_EXPORTER_OTLP_ENDPOINT env override before the config file.
func TracingEndpoint(defaultEndpoint string) string {
	if e := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); e != "" {
		return e
	}
	if c, err := Load(); err == nil && c.Observability.Tracing.Endpoint != "" {
		return c.Observability.Tracing.Endpoint
	}
	return defaultEndpoint
}

// LogLevel returns the configured zap log level string, honoring a
// LOG_LEVEL env override before the config file and finally "info".
func LogLevel() string {
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		return l
	}
	if c, err := Load(); err == nil && c.Observability.Logging.Level != "" {
		return c.Observability.Logging.Level
	}
	return "info"
}
