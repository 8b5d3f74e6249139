// Package rtconfig loads the runtime-tunable constants spec §6 lists
// as "Constants visible to callers" into an overridable struct, the
// way internal/config/config.go layers a YAML file over built-in
// defaults.
package rtconfig

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the reconciler core consults. Field names
// mirror the spec's named constants; YAML tags follow the teacher's
// snake_case convention.
type Config struct {
	NestedUpdateLimit        int           `yaml:"nested_update_limit"`
	NestedPassiveUpdateLimit int           `yaml:"nested_passive_update_limit"`
	FallbackThrottle         time.Duration `yaml:"fallback_throttle"`
	DefaultSuspenseTimeout   time.Duration `yaml:"default_suspense_timeout"`
	YieldCheckEvery          int           `yaml:"yield_check_every"`
}

// DefaultConfig returns the constants named in spec §6.
func DefaultConfig() Config {
	return Config{
		NestedUpdateLimit:        50,
		NestedPassiveUpdateLimit: 50,
		FallbackThrottle:         500 * time.Millisecond,
		DefaultSuspenseTimeout:   5000 * time.Millisecond,
		YieldCheckEvery:          16,
	}
}

// Load reads a single YAML file over the defaults. A missing file (or
// an empty one) yields DefaultConfig() unchanged, matching config.go's
// forgiving bootstrap behavior.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("rtconfig: open %s: %w", path, err)
	}
	defer f.Close()

	if err := decodeStrict(f, &cfg); err != nil {
		return Config{}, fmt.Errorf("rtconfig: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadLayered reads each path in order, with later files overriding
// fields set by earlier ones (and by the defaults), matching
// config.go's layered-merge pattern. Missing files are skipped, not an
// error.
func LoadLayered(paths ...string) (Config, error) {
	cfg := DefaultConfig()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("rtconfig: open %s: %w", p, err)
		}
		err = decodeStrict(f, &cfg)
		f.Close()
		if err != nil {
			return Config{}, fmt.Errorf("rtconfig: decode %s: %w", p, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeStrict decodes onto an already-populated Config so omitted
// keys retain whatever value cfg already carried, rejecting unknown
// keys the way config.go does via KnownFields(true).
func decodeStrict(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	raw := rawConfig{}
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	raw.applyTo(cfg)
	return nil
}

// rawConfig mirrors Config with pointer fields, so LoadLayered can
// tell "key absent" apart from "key present with zero value" when
// merging successive layers.
type rawConfig struct {
	NestedUpdateLimit        *int    `yaml:"nested_update_limit"`
	NestedPassiveUpdateLimit *int    `yaml:"nested_passive_update_limit"`
	FallbackThrottle         *string `yaml:"fallback_throttle"`
	DefaultSuspenseTimeout   *string `yaml:"default_suspense_timeout"`
	YieldCheckEvery          *int    `yaml:"yield_check_every"`
}

func (r rawConfig) applyTo(cfg *Config) {
	if r.NestedUpdateLimit != nil {
		cfg.NestedUpdateLimit = *r.NestedUpdateLimit
	}
	if r.NestedPassiveUpdateLimit != nil {
		cfg.NestedPassiveUpdateLimit = *r.NestedPassiveUpdateLimit
	}
	if r.FallbackThrottle != nil {
		if d, err := time.ParseDuration(*r.FallbackThrottle); err == nil {
			cfg.FallbackThrottle = d
		}
	}
	if r.DefaultSuspenseTimeout != nil {
		if d, err := time.ParseDuration(*r.DefaultSuspenseTimeout); err == nil {
			cfg.DefaultSuspenseTimeout = d
		}
	}
	if r.YieldCheckEvery != nil {
		cfg.YieldCheckEvery = *r.YieldCheckEvery
	}
}

// Validate rejects non-positive durations/limits, mirroring config.go's
// Validate step.
func (c Config) Validate() error {
	if c.NestedUpdateLimit <= 0 {
		return fmt.Errorf("rtconfig: nested_update_limit must be positive, got %d", c.NestedUpdateLimit)
	}
	if c.NestedPassiveUpdateLimit <= 0 {
		return fmt.Errorf("rtconfig: nested_passive_update_limit must be positive, got %d", c.NestedPassiveUpdateLimit)
	}
	if c.FallbackThrottle <= 0 {
		return fmt.Errorf("rtconfig: fallback_throttle must be positive, got %s", c.FallbackThrottle)
	}
	if c.DefaultSuspenseTimeout <= 0 {
		return fmt.Errorf("rtconfig: default_suspense_timeout must be positive, got %s", c.DefaultSuspenseTimeout)
	}
	if c.YieldCheckEvery <= 0 {
		return fmt.Errorf("rtconfig: yield_check_every must be positive, got %d", c.YieldCheckEvery)
	}
	return nil
}
