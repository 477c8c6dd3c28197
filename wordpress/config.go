package wordpress

import "regexp"

var validPrefix = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Config describes the WordPress installation the gateway reads from
type Config struct {
	// TablePrefix is $table_prefix from wp-config.php
	// default: "wp_"
	TablePrefix string `mapstructure:"table_prefix" env:"TABLE_PREFIX"`
	// PostType is the post type listed by ListPublished.
	// The process configuration copies it from the feed configuration.
	// default: "post"
	PostType string `mapstructure:"post_type"`
	// ThumbnailWidth and ThumbnailHeight are the "thumbnail" image size
	// configured in the media settings
	// default: 150x150
	ThumbnailWidth  int `mapstructure:"thumbnail_width" env:"THUMBNAIL_WIDTH"`
	ThumbnailHeight int `mapstructure:"thumbnail_height" env:"THUMBNAIL_HEIGHT"`
	// DefaultLanguage is used when the WPLANG option is empty
	// default: "en-US"
	DefaultLanguage string `mapstructure:"default_language" env:"DEFAULT_LANGUAGE"`
}

func DefaultConfig() *Config {
	return &Config{
		TablePrefix:     "wp_",
		PostType:        "post",
		ThumbnailWidth:  150,
		ThumbnailHeight: 150,
		DefaultLanguage: "en-US",
	}
}

func (c *Config) MergeDefaults() *Config {
	d := DefaultConfig()
	if c.TablePrefix == "" {
		c.TablePrefix = d.TablePrefix
	}
	if c.PostType == "" {
		c.PostType = d.PostType
	}
	if c.ThumbnailWidth == 0 {
		c.ThumbnailWidth = d.ThumbnailWidth
	}
	if c.ThumbnailHeight == 0 {
		c.ThumbnailHeight = d.ThumbnailHeight
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = d.DefaultLanguage
	}
	return c
}

func (c *Config) Validate() error {
	if !validPrefix.MatchString(c.TablePrefix) {
		return ErrInvalidConfig("table_prefix may only contain letters, digits and underscores")
	}
	if c.PostType == "" {
		return ErrInvalidConfig("post_type is required")
	}
	if c.ThumbnailWidth < 0 || c.ThumbnailHeight < 0 {
		return ErrInvalidConfig("thumbnail size must not be negative")
	}
	return nil
}

func (c *Config) table(name string) string {
	return c.TablePrefix + name
}
