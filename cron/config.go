package cron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// specParser accepts the six-field (with seconds) format used by the scheduler
var specParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds the scheduler configuration
type Config struct {
	// SweepSpec is when cached items are checked for expiry
	// default: "0 */5 * * * *"
	SweepSpec string `mapstructure:"sweep_spec" env:"SWEEP_SPEC"`
	// RebuildSpec is when the whole document is regenerated
	// default: "0 30 3 * * *"
	RebuildSpec string `mapstructure:"rebuild_spec" env:"REBUILD_SPEC"`
	// Location is the IANA time zone the specs are evaluated in
	// default: "UTC"
	Location string `mapstructure:"location" env:"LOCATION"`
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		SweepSpec:   "0 */5 * * * *",
		RebuildSpec: "0 30 3 * * *",
		Location:    "UTC",
	}
}

// MergeDefaults fills zero values from DefaultConfig
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.SweepSpec == "" {
		c.SweepSpec = defaults.SweepSpec
	}
	if c.RebuildSpec == "" {
		c.RebuildSpec = defaults.RebuildSpec
	}
	if c.Location == "" {
		c.Location = defaults.Location
	}
	return c
}

// Validate parses both specs and the location
func (c *Config) Validate() error {
	for _, spec := range []string{c.SweepSpec, c.RebuildSpec} {
		if _, err := specParser.Parse(spec); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidSpec, spec, err)
		}
	}
	if _, err := time.LoadLocation(c.Location); err != nil {
		return fmt.Errorf("cron: invalid location %q: %w", c.Location, err)
	}
	return nil
}
