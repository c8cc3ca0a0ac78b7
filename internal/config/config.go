// Package config loads router configuration from a YAML file, environment
// variables, and built-in defaults, the same layered way viper is used
// across the lineage (defaults -> file -> env, in increasing precedence).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/flowmesh/etl-router/internal/buffer"
	"github.com/flowmesh/etl-router/internal/checkpoint"
)

// Config is the top-level router configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Buffer       BufferConfig       `mapstructure:"buffer"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	LoadBalancer LoadBalancerConfig `mapstructure:"load_balancer"`
	Checkpoint   checkpoint.Config  `mapstructure:"checkpoint"`
}

// ServerConfig holds the admin HTTP server's configuration.
type ServerConfig struct {
	AdminAddr               string        `mapstructure:"admin_addr"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

// LogConfig holds logging configuration, consumed by pkg/logger.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// BufferConfig mirrors buffer.Config for mapstructure/viper binding.
type BufferConfig struct {
	MaxTotalRecords       int     `mapstructure:"max_total_records"`
	MaxPerStage           int     `mapstructure:"max_per_stage"`
	MaxPerSource          int     `mapstructure:"max_per_source"`
	BackpressureThreshold float64 `mapstructure:"backpressure_threshold"`
}

// AsBufferConfig converts to the buffer package's Config type.
func (b BufferConfig) AsBufferConfig() buffer.Config {
	return buffer.Config{
		MaxTotalRecords:       b.MaxTotalRecords,
		MaxPerStage:           b.MaxPerStage,
		MaxPerSource:          b.MaxPerSource,
		BackpressureThreshold: b.BackpressureThreshold,
	}
}

// RegistryConfig holds registry reducer configuration.
type RegistryConfig struct {
	LeaseTTL      time.Duration `mapstructure:"lease_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LoadBalancerConfig holds static load-balancer defaults.
type LoadBalancerConfig struct {
	DefaultStrategy string `mapstructure:"default_strategy"`
}

// Load reads configuration from built-in defaults, configPath (if
// non-empty), and environment variables (prefixed ETL_ROUTER_, with "."
// replaced by "_"), in that order of increasing precedence, then validates
// the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ETL_ROUTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the config for values the router cannot start with.
func (c *Config) Validate() error {
	if c.Buffer.MaxTotalRecords <= 0 {
		return fmt.Errorf("buffer.max_total_records must be positive")
	}
	if c.Buffer.MaxPerStage <= 0 {
		return fmt.Errorf("buffer.max_per_stage must be positive")
	}
	if c.Buffer.BackpressureThreshold <= 0 || c.Buffer.BackpressureThreshold > 1 {
		return fmt.Errorf("buffer.backpressure_threshold must be in (0, 1]")
	}
	if c.Checkpoint.Enabled {
		if err := c.Checkpoint.Validate(); err != nil {
			return fmt.Errorf("checkpoint config invalid: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.admin_addr", ":9090")
	v.SetDefault("server.graceful_shutdown_timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("buffer.max_total_records", 100_000)
	v.SetDefault("buffer.max_per_stage", 10_000)
	v.SetDefault("buffer.max_per_source", 5_000)
	v.SetDefault("buffer.backpressure_threshold", 0.8)

	v.SetDefault("registry.lease_ttl", "30s")
	v.SetDefault("registry.sweep_interval", "5s")

	v.SetDefault("load_balancer.default_strategy", "round_robin")

	v.SetDefault("checkpoint.enabled", false)
	v.SetDefault("checkpoint.addr", "localhost:6379")
	v.SetDefault("checkpoint.pool_size", 10)
	v.SetDefault("checkpoint.dial_timeout", "5s")
	v.SetDefault("checkpoint.read_timeout", "3s")
	v.SetDefault("checkpoint.write_timeout", "3s")
	v.SetDefault("checkpoint.key_prefix", "etl-router:checkpoint:")
}
