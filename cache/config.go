package cache

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Config holds configuration for the file store
type Config struct {
	// BaseDir is the directory under which the feed subdirectory lives (required)
	BaseDir string `mapstructure:"base_dir" env:"DIR"`
	// Subdir is the dedicated directory for feed documents, created on demand
	// default: "jsonfeeds"
	Subdir string `mapstructure:"subdir" env:"SUBDIR"`
	// Slug identifies the site and names the document file.
	// When empty the caller resolves it from the site metadata.
	Slug string `mapstructure:"slug" env:"SLUG"`
	// LockTimeout bounds how long a reader or writer waits for the lock
	// default: 10 * time.Second
	LockTimeout time.Duration `mapstructure:"lock_timeout" env:"LOCK_TIMEOUT"`
	// LockRetryInterval is how often a contended lock is retried
	// default: 10 * time.Millisecond
	LockRetryInterval time.Duration `mapstructure:"lock_retry_interval" env:"LOCK_RETRY_INTERVAL"`
}

// DefaultConfig returns the default configuration for the file store
// Note: BaseDir and Slug have no default value
func DefaultConfig() *Config {
	return &Config{
		Subdir:            "jsonfeeds",
		LockTimeout:       10 * time.Second,
		LockRetryInterval: 10 * time.Millisecond,
	}
}

// MergeDefaults fills zero values from DefaultConfig
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.Subdir == "" {
		c.Subdir = defaults.Subdir
	}
	if c.LockTimeout == 0 {
		c.LockTimeout = defaults.LockTimeout
	}
	if c.LockRetryInterval == 0 {
		c.LockRetryInterval = defaults.LockRetryInterval
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return ErrInvalidConfig("base_dir is required")
	}
	if FileName(c.Slug) == "" {
		return ErrInvalidSlug(c.Slug)
	}
	if c.LockTimeout <= 0 {
		return ErrInvalidConfig("lock_timeout must be > 0")
	}
	if c.LockRetryInterval <= 0 || c.LockRetryInterval > c.LockTimeout {
		return ErrInvalidConfig("lock_retry_interval must be > 0 and <= lock_timeout")
	}
	return nil
}

// Path returns the document location described by the configuration
func (c *Config) Path() string {
	return filepath.Join(c.BaseDir, c.Subdir, FileName(c.Slug)+".json")
}

var unsafeName = regexp.MustCompile(`[^a-z0-9._-]+`)

// FileName turns a site slug into a safe file name without extension.
// It returns "" when nothing usable is left.
func FileName(slug string) string {
	name := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(slug)), "-")
	return strings.Trim(name, ".-")
}
