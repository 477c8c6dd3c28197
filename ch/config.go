package ch

import (
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type Config struct {
	// clickhouse connection config
	Hosts       []string      `mapstructure:"hosts" env:"HOSTS" envSeparator:","`
	Database    string        `mapstructure:"database" env:"DATABASE"`
	Username    string        `mapstructure:"username" env:"USERNAME"`
	Password    string        `mapstructure:"password" env:"PASSWORD"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" env:"DIAL_TIMEOUT"`
	Debug       bool          `mapstructure:"debug" env:"DEBUG"`
	// clickhouse settings (https://clickhouse.com/docs/en/operations/settings/settings)
	Settings clickhouse.Settings `mapstructure:"settings"`
	// batch insert config
	Writer WriterConfig `mapstructure:"writer" envPrefix:"WRITER_"`
}

type WriterConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval" env:"FLUSH_INTERVAL"`
	FlushSize     int           `mapstructure:"flush_size" env:"FLUSH_SIZE"`
	// MinFlushSize is the minimum batch size for time-triggered flush.
	// Set to 0 to flush on every interval.
	MinFlushSize int `mapstructure:"min_flush_size" env:"MIN_FLUSH_SIZE"`
	// MaxWaitTime forces a time-triggered flush below MinFlushSize once the
	// oldest buffered row has waited this long. 0 waits indefinitely.
	MaxWaitTime time.Duration `mapstructure:"max_wait_time" env:"MAX_WAIT_TIME"`
}

func DefaultConfig() *Config {
	return &Config{
		Database:    "default",
		Username:    "default",
		DialTimeout: 10 * time.Second,
		Writer:      *DefaultWriterConfig(),
	}
}

// DefaultWriterConfig returns the default writer config.
// Sync outcomes are low volume, so batches are small and flushed often.
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		FlushInterval: 5 * time.Second,
		FlushSize:     500,
		MinFlushSize:  0,
		MaxWaitTime:   30 * time.Second,
	}
}

// Enabled reports whether a ClickHouse server is configured
func (c *Config) Enabled() bool {
	return len(c.Hosts) > 0
}

func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	if c.Database == "" {
		c.Database = d.Database
	}
	if c.Username == "" {
		c.Username = d.Username
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = d.Writer.FlushInterval
	}
	if c.Writer.FlushSize == 0 {
		c.Writer.FlushSize = d.Writer.FlushSize
	}
	if c.Writer.MaxWaitTime == 0 {
		c.Writer.MaxWaitTime = d.Writer.MaxWaitTime
	}
	return c
}

func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return ErrInvalidConfig("hosts are required")
	}
	if c.Username == "" {
		return ErrInvalidConfig("username is required")
	}
	return c.Writer.Validate()
}

func (c *WriterConfig) Validate() error {
	if c.FlushInterval <= 0 {
		return ErrInvalidConfig("writer.flush_interval is required")
	}
	if c.FlushSize <= 0 {
		return ErrInvalidConfig("writer.flush_size is required")
	}
	if c.MinFlushSize < 0 {
		return ErrInvalidConfig("writer.min_flush_size cannot be negative")
	}
	if c.MinFlushSize > c.FlushSize {
		return ErrInvalidConfig("writer.min_flush_size cannot be greater than writer.flush_size")
	}
	if c.MaxWaitTime < 0 {
		return ErrInvalidConfig("writer.max_wait_time cannot be negative")
	}
	return nil
}
