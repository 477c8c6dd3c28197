// Package config assembles the process configuration of jsonify from
// JSONIFY_* environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/dailyyoga/jsonify/cache"
	"github.com/dailyyoga/jsonify/ch"
	"github.com/dailyyoga/jsonify/cron"
	"github.com/dailyyoga/jsonify/db"
	"github.com/dailyyoga/jsonify/feed"
	"github.com/dailyyoga/jsonify/kafka"
	"github.com/dailyyoga/jsonify/logger"
	"github.com/dailyyoga/jsonify/syncer"
	"github.com/dailyyoga/jsonify/wordpress"
)

// Prefix is prepended to every variable name
const Prefix = "JSONIFY_"

// Config is the complete process configuration
type Config struct {
	Log        logger.Config        `envPrefix:"LOG_"`
	Feed       feed.Config          `envPrefix:"FEED_"`
	Cache      cache.Config         `envPrefix:"CACHE_"`
	Syncer     syncer.Config        // JSONIFY_MAX_POSTS, JSONIFY_SITE
	DB         db.Config            `envPrefix:"DB_"`
	WordPress  wordpress.Config     `envPrefix:"WP_"`
	Consumer   kafka.ConsumerConfig `envPrefix:"KAFKA_"`
	Producer   kafka.ProducerConfig `envPrefix:"KAFKA_"`
	Cron       cron.Config          `envPrefix:"CRON_"`
	ClickHouse ch.Config            `envPrefix:"CH_"`
}

// Default returns the configuration used when no variable is set
func Default() *Config {
	return &Config{
		Log:        *logger.DefaultConfig(),
		Feed:       *feed.DefaultConfig(),
		Cache:      *cache.DefaultConfig(),
		Syncer:     *syncer.DefaultConfig(),
		DB:         *db.DefaultConfig(),
		WordPress:  *wordpress.DefaultConfig(),
		Consumer:   *kafka.DefaultConsumerConfig(),
		Producer:   *kafka.DefaultProducerConfig(),
		Cron:       *cron.DefaultConfig(),
		ClickHouse: *ch.DefaultConfig(),
	}
}

// Load reads the process environment
func Load() (*Config, error) {
	return load(env.Options{Prefix: Prefix})
}

// LoadFrom reads variables from vars instead of the process environment
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Prefix: Prefix, Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	cfg := Default()
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, ErrParse(err)
	}
	cfg.WordPress.PostType = cfg.Feed.PostType
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the sections every command needs.
// Connection settings are checked when the connection is opened.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"log", c.Log.Validate()},
		{"feed", c.Feed.Validate()},
		{"syncer", c.Syncer.Validate()},
		{"wordpress", c.WordPress.Validate()},
		{"cron", c.Cron.Validate()},
	}
	if c.ClickHouse.Enabled() {
		checks = append(checks, struct {
			section string
			err     error
		}{"clickhouse", c.ClickHouse.Validate()})
	}
	var errs []error
	for _, check := range checks {
		if check.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", check.section, check.err))
		}
	}
	if len(errs) > 0 {
		return ErrInvalid(errors.Join(errs...))
	}
	return nil
}
