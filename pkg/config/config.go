// Package config provides configuration management for the segmentation service.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/voter-segmentation/pkg/compression"
)

// Segmentation strategies selectable at runtime.
const (
	StrategyGeohash = "geo-hash"
	StrategyGrid    = "grid-based"
)

// Config holds all configuration for the application.
type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	Server       ServerConfig       `mapstructure:"server"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Segmentation SegmentationConfig `mapstructure:"segmentation"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Log          LogConfig          `mapstructure:"log"`
}

// DatabaseConfig holds PostGIS connection configuration.
// URL takes precedence over the discrete fields when set.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// DSN returns the Postgres connection string.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Database,
	)
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// WorkerConfig holds job runner configuration.
type WorkerConfig struct {
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	Count          int `mapstructure:"count"`
}

// SegmentationConfig holds engine configuration.
type SegmentationConfig struct {
	Strategy string `mapstructure:"strategy"` // geo-hash or grid-based
}

// StorageConfig holds object storage configuration for run artifacts.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`
	Scheme    string `mapstructure:"scheme"`
	LocalPath string `mapstructure:"local_path"`
	// Compression selects the artifact codec: none, gzip or zstd.
	Compression string `mapstructure:"compression"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"` // silent|error|warn|info|debug
	OutputPath string `mapstructure:"output_path"`
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/voter-segmentation")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow environment variables to override config
	v.AutomaticEnv()
	bindEnvAliases(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindEnvAliases maps the flat environment variables used in deployment
// onto the nested config keys.
func bindEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("worker.poll_interval_ms", "POLL_INTERVAL_MS")
	_ = v.BindEnv("segmentation.strategy", "SEGMENTATION_STRATEGY")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "PORT")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "voters")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("server.port", 8080)

	v.SetDefault("worker.poll_interval_ms", 2000)
	v.SetDefault("worker.count", 1)

	v.SetDefault("segmentation.strategy", StrategyGrid)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")
	v.SetDefault("storage.compression", compression.CodecNone)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("database host or url is required")
	}

	if c.Segmentation.Strategy != StrategyGeohash && c.Segmentation.Strategy != StrategyGrid {
		return fmt.Errorf("unsupported segmentation strategy: %s", c.Segmentation.Strategy)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.PollIntervalMs < 1 {
		return fmt.Errorf("poll interval must be positive")
	}

	if !compression.Valid(c.Storage.Compression) {
		return fmt.Errorf("unsupported artifact compression: %s", c.Storage.Compression)
	}

	switch c.Log.Level {
	case "silent", "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("unsupported log level: %s", c.Log.Level)
	}

	return nil
}
