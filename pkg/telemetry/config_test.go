package telemetry

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Enabled {
		t.Error("Expected Enabled to be false by default")
	}
	if cfg.ServiceName != DefaultServiceName {
		t.Errorf("Expected ServiceName %q, got %q", DefaultServiceName, cfg.ServiceName)
	}
	if cfg.Protocol != "grpc" {
		t.Errorf("Expected Protocol to be 'grpc', got '%s'", cfg.Protocol)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Run("unset keeps values", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Endpoint = "collector:4317"
		cfg.ApplyEnv()

		if cfg.Endpoint != "collector:4317" {
			t.Errorf("Expected endpoint to be kept, got %q", cfg.Endpoint)
		}
	})

	t.Run("enabled_case_insensitive", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "TRUE")

		cfg := DefaultConfig()
		cfg.ApplyEnv()
		if !cfg.Enabled {
			t.Error("Expected Enabled to be true for 'TRUE'")
		}
	})

	t.Run("explicit false disables", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "false")

		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.ApplyEnv()
		if cfg.Enabled {
			t.Error("Expected Enabled to be false")
		}
	})

	t.Run("custom_values", func(t *testing.T) {
		t.Setenv("OTEL_SERVICE_NAME", "my-service")
		t.Setenv("OTEL_SERVICE_VERSION", "1.0.0")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://collector.example.com:4317")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
		t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

		cfg := DefaultConfig()
		cfg.ApplyEnv()

		if cfg.ServiceName != "my-service" {
			t.Errorf("Expected ServiceName 'my-service', got '%s'", cfg.ServiceName)
		}
		if cfg.ServiceVersion != "1.0.0" {
			t.Errorf("Expected ServiceVersion '1.0.0', got '%s'", cfg.ServiceVersion)
		}
		if cfg.Endpoint != "https://collector.example.com:4317" {
			t.Errorf("Unexpected endpoint '%s'", cfg.Endpoint)
		}
		if cfg.Protocol != "http/protobuf" {
			t.Errorf("Expected Protocol 'http/protobuf', got '%s'", cfg.Protocol)
		}
		if !cfg.Insecure {
			t.Error("Expected Insecure to be true")
		}
	})

	t.Run("headers merge", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer token123,X-Custom=value")

		cfg := &Config{Headers: map[string]string{"X-Custom": "old", "X-Keep": "1"}}
		cfg.ApplyEnv()

		if len(cfg.Headers) != 3 {
			t.Errorf("Expected 3 headers, got %d", len(cfg.Headers))
		}
		if cfg.Headers["Authorization"] != "Bearer token123" {
			t.Errorf("Expected Authorization header 'Bearer token123', got '%s'", cfg.Headers["Authorization"])
		}
		if cfg.Headers["X-Custom"] != "value" {
			t.Errorf("Expected X-Custom header 'value', got '%s'", cfg.Headers["X-Custom"])
		}
	})

	t.Run("resource_attributes", func(t *testing.T) {
		t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=production,service.namespace=mch")

		cfg := &Config{}
		cfg.ApplyEnv()

		if len(cfg.ResourceAttrs) != 2 {
			t.Errorf("Expected 2 resource attributes, got %d", len(cfg.ResourceAttrs))
		}
		if cfg.ResourceAttrs["deployment.environment"] != "production" {
			t.Errorf("Expected deployment.environment 'production', got '%s'", cfg.ResourceAttrs["deployment.environment"])
		}
	})
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		wantPlain bool
	}{
		{"http://localhost:4318", "localhost:4318", true},
		{"https://collector:4317", "collector:4317", false},
		{"collector:4317", "collector:4317", false},
	}
	for _, tt := range tests {
		got, plain := splitEndpoint(tt.in)
		if got != tt.want || plain != tt.wantPlain {
			t.Errorf("splitEndpoint(%q) = %q, %v", tt.in, got, plain)
		}
	}
}

func TestParseKeyValuePairs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{
			name:     "empty",
			input:    "",
			expected: map[string]string{},
		},
		{
			name:     "single_pair",
			input:    "key=value",
			expected: map[string]string{"key": "value"},
		},
		{
			name:     "multiple_pairs",
			input:    "key1=value1,key2=value2",
			expected: map[string]string{"key1": "value1", "key2": "value2"},
		},
		{
			name:     "with_spaces",
			input:    " key1 = value1 , key2 = value2 ",
			expected: map[string]string{"key1": "value1", "key2": "value2"},
		},
		{
			name:     "value_with_equals",
			input:    "Authorization=Bearer token=abc",
			expected: map[string]string{"Authorization": "Bearer token=abc"},
		},
		{
			name:     "empty_value",
			input:    "key=",
			expected: map[string]string{"key": ""},
		},
		{
			name:     "invalid_no_equals",
			input:    "invalid",
			expected: map[string]string{},
		},
		{
			name:     "mixed_valid_invalid",
			input:    "valid=value,invalid,another=test",
			expected: map[string]string{"valid": "value", "another": "test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseKeyValuePairs(tt.input)

			if len(result) != len(tt.expected) {
				t.Errorf("Expected %d pairs, got %d", len(tt.expected), len(result))
			}

			for k, v := range tt.expected {
				if result[k] != v {
					t.Errorf("Expected %s='%s', got '%s'", k, v, result[k])
				}
			}
		})
	}
}
