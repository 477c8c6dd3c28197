package feed

// Config controls which records are visible and how they are formatted
type Config struct {
	// PostType is the only record type that is ever cached
	// default: "post"
	PostType string `mapstructure:"post_type" env:"POST_TYPE"`
	// ExpiryField is the custom field holding an optional expiry timestamp
	// default: "_expiration-date"
	ExpiryField string `mapstructure:"expiry_field" env:"EXPIRY_FIELD"`
	// ExcerptWords is the number of words kept in a generated excerpt
	// default: 55
	ExcerptWords int `mapstructure:"excerpt_words" env:"EXCERPT_WORDS"`
	// ExcerptMore is appended to a generated excerpt that was cut short
	// default: " [&hellip;]"
	ExcerptMore string `mapstructure:"excerpt_more" env:"EXCERPT_MORE"`
	// HidePrivateMeta drops custom fields whose name starts with an underscore
	// default: false
	HidePrivateMeta bool `mapstructure:"hide_private_meta" env:"HIDE_PRIVATE_META"`
}

// DefaultConfig returns the default feed configuration
func DefaultConfig() *Config {
	return &Config{
		PostType:     "post",
		ExpiryField:  "_expiration-date",
		ExcerptWords: 55,
		ExcerptMore:  " [&hellip;]",
	}
}

// MergeDefaults fills zero values from DefaultConfig
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.PostType == "" {
		c.PostType = defaults.PostType
	}
	if c.ExpiryField == "" {
		c.ExpiryField = defaults.ExpiryField
	}
	if c.ExcerptWords == 0 {
		c.ExcerptWords = defaults.ExcerptWords
	}
	if c.ExcerptMore == "" {
		c.ExcerptMore = defaults.ExcerptMore
	}
	return c
}

// Validate validates the feed configuration
func (c *Config) Validate() error {
	if c.ExcerptWords < 0 {
		return ErrInvalidConfig("excerpt_words must be >= 0")
	}
	return nil
}
