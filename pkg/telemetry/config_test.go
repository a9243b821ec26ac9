package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, key := range []string{
			"OTEL_ENABLED", "OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION",
			"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_PROTOCOL",
			"OTEL_EXPORTER_OTLP_HEADERS", "OTEL_EXPORTER_OTLP_INSECURE",
		} {
			t.Setenv(key, "")
		}

		cfg := LoadFromEnv()
		assert.False(t, cfg.Enabled)
		assert.Equal(t, "voter-segmentation", cfg.ServiceName)
		assert.Equal(t, "unknown", cfg.ServiceVersion)
		assert.Equal(t, "grpc", cfg.Protocol)
		assert.Empty(t, cfg.Headers)
	})

	t.Run("FullyConfigured", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "TRUE")
		t.Setenv("OTEL_SERVICE_NAME", "segmentation-worker")
		t.Setenv("OTEL_SERVICE_VERSION", "1.4.0")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://collector:4317")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
		t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer abc=def")
		t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
		t.Setenv("OTEL_TRACES_SAMPLER", "traceidratio")
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
		t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "env=staging,region=ap-south-1")

		cfg := LoadFromEnv()
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "segmentation-worker", cfg.ServiceName)
		assert.Equal(t, "1.4.0", cfg.ServiceVersion)
		assert.Equal(t, "https://collector:4317", cfg.Endpoint)
		assert.Equal(t, "http/protobuf", cfg.Protocol)
		assert.Equal(t, "Bearer abc=def", cfg.Headers["Authorization"])
		assert.True(t, cfg.Insecure)
		assert.Equal(t, "traceidratio", cfg.Sampler)
		assert.Equal(t, "0.25", cfg.SamplerArg)
		assert.Equal(t, map[string]string{"env": "staging", "region": "ap-south-1"}, cfg.ResourceAttrs)
	})
}

func TestParsePairs(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "a=1", map[string]string{"a": "1"}},
		{"multiple", "a=1,b=2", map[string]string{"a": "1", "b": "2"}},
		{"spaces", " a = 1 , b = 2 ", map[string]string{"a": "1", "b": "2"}},
		{"equals_in_value", "auth=Bearer x=y", map[string]string{"auth": "Bearer x=y"}},
		{"missing_key", "=1,b=2", map[string]string{"b": "2"}},
		{"missing_equals", "a,b=2", map[string]string{"b": "2"}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePairs(tt.input))
		})
	}
}
