package checkpoint

import "time"

// Config configures the optional Redis-backed Store. The zero value
// (Enabled: false) keeps the router on the in-memory default.
type Config struct {
	Enabled bool `mapstructure:"enabled" env:"CHECKPOINT_REDIS_ENABLED" default:"false"`

	Addr     string `mapstructure:"addr" env:"CHECKPOINT_REDIS_ADDR" default:"localhost:6379"`
	Password string `mapstructure:"password" env:"CHECKPOINT_REDIS_PASSWORD" default:""`
	DB       int    `mapstructure:"db" env:"CHECKPOINT_REDIS_DB" default:"0"`

	PoolSize     int           `mapstructure:"pool_size" env:"CHECKPOINT_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" env:"CHECKPOINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" env:"CHECKPOINT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" env:"CHECKPOINT_REDIS_WRITE_TIMEOUT" default:"3s"`

	// KeyPrefix namespaces checkpoint keys in a shared Redis instance.
	KeyPrefix string `mapstructure:"key_prefix" env:"CHECKPOINT_REDIS_KEY_PREFIX" default:"etl-router:checkpoint:"`
}

// Validate reports whether c is usable as a Redis configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return newError("redis addr must not be empty", "CONFIG_ERROR")
	}
	if c.PoolSize <= 0 {
		return newError("redis pool size must be positive", "CONFIG_ERROR")
	}
	if c.DialTimeout <= 0 {
		return newError("redis dial timeout must be positive", "CONFIG_ERROR")
	}
	return nil
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Addr == "" {
		out.Addr = "localhost:6379"
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 10
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = 5 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 3 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 3 * time.Second
	}
	if out.KeyPrefix == "" {
		out.KeyPrefix = "etl-router:checkpoint:"
	}
	return out
}
