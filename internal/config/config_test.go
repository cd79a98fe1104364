package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsPort_EnvOverrideWinsOverDefault(t *testing.T) {
	t.Setenv("METRICS_PORT", "9999")
	assert.Equal(t, 9999, MetricsPort(8080))
}

func TestMetricsPort_FallsBackToDefaultWithNoConfigOrEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/runtime.yaml")
	assert.Equal(t, 8080, MetricsPort(8080))
}

func TestTracingEndpoint_EnvOverrideWinsOverDefault(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	assert.Equal(t, "collector:4317", TracingEndpoint("localhost:4317"))
}

func TestLogLevel_EnvOverrideWinsOverDefault(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, "debug", LogLevel())
}

func TestLogLevel_DefaultsToInfoWithNoConfigOrEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/runtime.yaml")
	assert.Equal(t, "info", LogLevel())
}
