// Package telemetry provides OpenTelemetry integration for distributed tracing.
package telemetry

import (
	"os"
	"strings"
)

// Config is the tracing configuration, read entirely from the standard
// OTEL_* environment variables so deployments need no config-file
// plumbing for observability.
type Config struct {
	// Enabled gates the whole pipeline (OTEL_ENABLED=true).
	Enabled bool

	// ServiceName and ServiceVersion identify this service in traces
	// (OTEL_SERVICE_NAME, OTEL_SERVICE_VERSION).
	ServiceName    string
	ServiceVersion string

	// Endpoint and Protocol select the OTLP collector
	// (OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_PROTOCOL:
	// grpc or http/protobuf).
	Endpoint string
	Protocol string

	// Headers carries exporter headers such as Authorization
	// (OTEL_EXPORTER_OTLP_HEADERS, "k1=v1,k2=v2").
	Headers map[string]string

	// Insecure disables transport TLS (OTEL_EXPORTER_OTLP_INSECURE).
	Insecure bool

	// Sampler and SamplerArg select the sampling strategy
	// (OTEL_TRACES_SAMPLER, OTEL_TRACES_SAMPLER_ARG); see sampler.go
	// for the accepted names.
	Sampler    string
	SamplerArg string

	// ResourceAttrs adds resource attributes
	// (OTEL_RESOURCE_ATTRIBUTES, "k1=v1,k2=v2").
	ResourceAttrs map[string]string
}

// LoadFromEnv reads the OTEL_* environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Enabled:        strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true",
		ServiceName:    envOr("OTEL_SERVICE_NAME", "voter-segmentation"),
		ServiceVersion: envOr("OTEL_SERVICE_VERSION", "unknown"),
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Protocol:       envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		Headers:        parsePairs(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:       strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")) == "true",
		Sampler:        os.Getenv("OTEL_TRACES_SAMPLER"),
		SamplerArg:     os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
		ResourceAttrs:  parsePairs(os.Getenv("OTEL_RESOURCE_ATTRIBUTES")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parsePairs parses "k1=v1,k2=v2". Values may contain '='.
func parsePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(pair[:idx])
		if key != "" {
			result[key] = strings.TrimSpace(pair[idx+1:])
		}
	}
	return result
}
