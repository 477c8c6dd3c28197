package syncer

// Config holds configuration for the synchronization engine
type Config struct {
	// MaxPosts is the ceiling on records enumerated by a full rebuild
	// default: 250
	MaxPosts int `mapstructure:"max_posts" env:"MAX_POSTS"`
	// Site labels journal rows when several sites share one journal.
	// It does not affect the document.
	Site string `mapstructure:"site" env:"SITE"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		MaxPosts: 250,
	}
}

// MergeDefaults fills zero values from DefaultConfig
func (c *Config) MergeDefaults() *Config {
	if c.MaxPosts == 0 {
		c.MaxPosts = DefaultConfig().MaxPosts
	}
	return c
}

// Validate validates the engine configuration
func (c *Config) Validate() error {
	if c.MaxPosts < 1 {
		return ErrInvalidConfig("max_posts must be >= 1")
	}
	return nil
}
