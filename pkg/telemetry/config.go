package telemetry

import (
	"os"
	"strconv"
	"strings"
)

// DefaultServiceName is the service name reported when none is configured.
const DefaultServiceName = "mch-analysis"

// Config holds the tracing setup. Values come from the application config
// and may be overridden by the standard OTEL_* environment variables.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector endpoint, with or without scheme.
	Endpoint string

	// Protocol is "grpc" (default) or "http/protobuf".
	Protocol string

	// Headers are sent with every export, e.g. Authorization.
	Headers map[string]string

	Insecure bool

	// Sampler is one of always_on, always_off, traceidratio,
	// parentbased_always_on, parentbased_always_off, parentbased_traceidratio.
	Sampler    string
	SamplerArg string

	ResourceAttrs map[string]string
}

// DefaultConfig returns a disabled configuration with default names.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    DefaultServiceName,
		ServiceVersion: "unknown",
		Protocol:       "grpc",
		Headers:        map[string]string{},
		ResourceAttrs:  map[string]string{},
	}
}

// ApplyEnv overrides fields from OTEL_* environment variables that are set.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv("OTEL_ENABLED"); ok {
		c.Enabled, _ = strconv.ParseBool(strings.TrimSpace(v))
	}
	setFromEnv(&c.ServiceName, "OTEL_SERVICE_NAME")
	setFromEnv(&c.ServiceVersion, "OTEL_SERVICE_VERSION")
	setFromEnv(&c.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setFromEnv(&c.Protocol, "OTEL_EXPORTER_OTLP_PROTOCOL")
	setFromEnv(&c.Sampler, "OTEL_TRACES_SAMPLER")
	setFromEnv(&c.SamplerArg, "OTEL_TRACES_SAMPLER_ARG")
	if v, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_INSECURE"); ok {
		c.Insecure, _ = strconv.ParseBool(strings.TrimSpace(v))
	}
	mergeFromEnv(&c.Headers, "OTEL_EXPORTER_OTLP_HEADERS")
	mergeFromEnv(&c.ResourceAttrs, "OTEL_RESOURCE_ATTRIBUTES")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func mergeFromEnv(dst *map[string]string, key string) {
	pairs := parseKeyValuePairs(os.Getenv(key))
	if len(pairs) == 0 {
		return
	}
	if *dst == nil {
		*dst = make(map[string]string, len(pairs))
	}
	for k, v := range pairs {
		(*dst)[k] = v
	}
}

// parseKeyValuePairs parses "key1=value1,key2=value2". Values may contain '='.
func parseKeyValuePairs(s string) map[string]string {
	result := make(map[string]string)
	if s == "" {
		return result
	}

	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key != "" {
			result[key] = strings.TrimSpace(value)
		}
	}

	return result
}
