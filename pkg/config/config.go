// Package config provides configuration management for the mch-analysis tools.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mch-analysis/pkg/compression"
	"github.com/mch-analysis/pkg/telemetry"
)

// EnvPrefix prefixes environment overrides, e.g. MCH_LOG_LEVEL for log.level.
const EnvPrefix = "MCH"

// Config holds all configuration for the application.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Profiler  ProfilerConfig  `mapstructure:"profiler"`
	NBT       NBTConfig       `mapstructure:"nbt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Export    ExportConfig    `mapstructure:"export"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // empty logs to stderr
	Format     string `mapstructure:"format"`      // console or json
}

// ProfilerConfig holds profiler dump parsing configuration.
type ProfilerConfig struct {
	Layout        string `mapstructure:"layout"` // auto, vanilla or compact
	MaxInputBytes int64  `mapstructure:"max_input_bytes"`
	TopN          int    `mapstructure:"top_n"`
}

// NBTConfig holds binary tag document configuration.
type NBTConfig struct {
	CompressionLevel string `mapstructure:"compression_level"` // fastest, default or best
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
	Prefix    string `mapstructure:"prefix"`     // key prefix for every object
}

// DatabaseConfig holds profile history database configuration.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // sqlite, postgres or mysql
	Path     string `mapstructure:"path"` // sqlite file, or ":memory:"
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// TelemetryConfig holds tracing configuration.
type TelemetryConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	ServiceName string            `mapstructure:"service_name"`
	Endpoint    string            `mapstructure:"endpoint"`
	Protocol    string            `mapstructure:"protocol"` // grpc or http/protobuf
	Insecure    bool              `mapstructure:"insecure"`
	Sampler     string            `mapstructure:"sampler"`
	SamplerArg  string            `mapstructure:"sampler_arg"`
	Headers     map[string]string `mapstructure:"headers"`
}

// ExportConfig holds report export configuration.
type ExportConfig struct {
	Compression string `mapstructure:"compression"` // none, gzip or zstd
	Pretty      bool   `mapstructure:"pretty"`
}

// Load reads configuration from the specified file path. A missing file
// falls back to defaults; environment variables override both.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/mch-analysis")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromReader loads configuration from content of the given type (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return decode(v)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
	v.SetDefault("log.format", "console")

	v.SetDefault("profiler.layout", "auto")
	v.SetDefault("profiler.max_input_bytes", 64<<20)
	v.SetDefault("profiler.top_n", 10)

	v.SetDefault("nbt.compression_level", "default")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./mch-history.db")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "mch-analysis")
	v.SetDefault("telemetry.protocol", "grpc")

	v.SetDefault("export.compression", "none")
	v.SetDefault("export.pretty", true)
}

// Validate validates the configuration. Storage settings are validated by
// the storage package when a backend is built.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "console", "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}

	switch strings.ToLower(c.Profiler.Layout) {
	case "", "auto", "vanilla", "legacy", "compact":
	default:
		return fmt.Errorf("unsupported profiler layout: %s", c.Profiler.Layout)
	}
	if c.Profiler.MaxInputBytes <= 0 {
		return fmt.Errorf("profiler max_input_bytes must be positive")
	}

	if _, err := compression.ParseLevel(c.NBT.CompressionLevel); err != nil {
		return fmt.Errorf("unsupported nbt compression level: %s", c.NBT.CompressionLevel)
	}

	switch strings.ToLower(c.Database.Type) {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if _, err := compression.ParseType(c.Export.Compression); err != nil {
		return fmt.Errorf("unsupported export compression: %s", c.Export.Compression)
	}

	return nil
}

// Level returns the gzip level used when saving tag documents.
func (c NBTConfig) Level() compression.Level {
	level, _ := compression.ParseLevel(c.CompressionLevel)
	return level
}

// Type returns the compression applied to exported reports.
func (c ExportConfig) Type() compression.Type {
	t, _ := compression.ParseType(c.Compression)
	return t
}

// Tracing converts the section into a telemetry configuration. OTEL_*
// environment variables take precedence over file values.
func (c TelemetryConfig) Tracing(version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.Enabled = c.Enabled
	if c.ServiceName != "" {
		cfg.ServiceName = c.ServiceName
	}
	if version != "" {
		cfg.ServiceVersion = version
	}
	cfg.Endpoint = c.Endpoint
	if c.Protocol != "" {
		cfg.Protocol = c.Protocol
	}
	cfg.Insecure = c.Insecure
	cfg.Sampler = c.Sampler
	cfg.SamplerArg = c.SamplerArg
	for k, v := range c.Headers {
		cfg.Headers[k] = v
	}
	cfg.ApplyEnv()
	return cfg
}
