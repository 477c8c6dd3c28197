package db

import (
	"fmt"
	"slices"
	"strings"
	"time"

	glogger "gorm.io/gorm/logger"
)

// Config is the configuration for the content store database
// It is used to configure the database connection pool and logging
type Config struct {
	// Host is the host of the database
	Host string `mapstructure:"host" env:"HOST"`
	// Port is the port of the database
	// default: 3306
	Port int `mapstructure:"port" env:"PORT"`
	// User is the user of the database
	User string `mapstructure:"user" env:"USER"`
	// Password is the password of the database
	Password string `mapstructure:"password" env:"PASSWORD"`
	// Database is the name of the database
	Database string `mapstructure:"database" env:"NAME"`
	// MaxOpenConns is the maximum number of open connections to the database
	// default: 5
	MaxOpenConns int `mapstructure:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// MaxIdleConns is the maximum number of idle connections to the database
	// default: 2
	MaxIdleConns int `mapstructure:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// ConnMaxLifetime is the maximum lifetime of a connection
	// default: 1800 * time.Second
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	// ConnMaxIdleTime is the maximum idle time of a connection
	// default: 600 * time.Second
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME"`
	// LogLevel is the log level of the database
	// default: "warn"
	LogLevel string `mapstructure:"log_level" env:"LOG_LEVEL"`
	// SlowThreshold is the threshold for slow queries
	// default: 1 * time.Second
	SlowThreshold time.Duration `mapstructure:"slow_threshold" env:"SLOW_THRESHOLD"`
	// Charset is the charset of the database
	// default: "utf8mb4"
	Charset string `mapstructure:"charset" env:"CHARSET"`
	// Loc is the location DATETIME columns are parsed in.
	// WordPress *_gmt columns are UTC.
	// default: "UTC"
	Loc string `mapstructure:"loc" env:"LOC"`
}

func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=%s",
		c.User, c.Password, c.Host, c.Port, c.Database,
		c.Charset, c.Loc,
	)
}

// DefaultConfig returns the default configuration for the database
func DefaultConfig() *Config {
	return &Config{
		Port:            3306,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 1800 * time.Second,
		ConnMaxIdleTime: 600 * time.Second,
		LogLevel:        "warn",
		SlowThreshold:   1 * time.Second,
		Charset:         "utf8mb4",
		Loc:             "UTC",
	}
}

var validLogLevels = []string{"silent", "error", "warn", "info"}

// Validate validates the configuration for a MySQL connection
func (c *Config) Validate() error {
	if c.Host == "" {
		return ErrInvalidConfig("host is required")
	}
	if c.Port <= 0 {
		return ErrInvalidConfig("port is required")
	}
	if c.User == "" {
		return ErrInvalidConfig("user is required")
	}
	if c.Database == "" {
		return ErrInvalidConfig("database is required")
	}
	return c.validatePool()
}

// validatePool checks the settings shared by every dialect
func (c *Config) validatePool() error {
	if !slices.ContainsFunc(validLogLevels, func(level string) bool {
		return strings.EqualFold(c.LogLevel, level)
	}) {
		return ErrInvalidConfig(fmt.Sprintf("log_level %q must be one of: %s", c.LogLevel, strings.Join(validLogLevels, ", ")))
	}
	if c.MaxOpenConns < 1 {
		return ErrInvalidConfig("max_open_conns must be >= 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return ErrInvalidConfig("max_idle_conns must not exceed max_open_conns")
	}
	return nil
}

// GormLogLevel maps LogLevel to the gorm logger level
func (c *Config) GormLogLevel() glogger.LogLevel {
	switch strings.ToLower(c.LogLevel) {
	case "silent":
		return glogger.Silent
	case "error":
		return glogger.Error
	case "info":
		return glogger.Info
	default:
		return glogger.Warn
	}
}

// MergeDefaults merges the default configuration with the given configuration
// It returns the merged configuration
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.Port == 0 {
		c.Port = defaults.Port
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = defaults.MaxOpenConns
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaults.MaxIdleConns
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.SlowThreshold == 0 {
		c.SlowThreshold = defaults.SlowThreshold
	}
	if c.Charset == "" {
		c.Charset = defaults.Charset
	}
	if c.Loc == "" {
		c.Loc = defaults.Loc
	}
	return c
}
