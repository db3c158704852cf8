/*
File: config.go
Description: Configuration value types for the scoring core. Unlike the
             teacher's config.go, this is not a file-watching loader for
             a standalone daemon — transport/CLI/config loading is out
             of scope (§1) — it is the Config shape the core's
             constructors accept, with a yaml-tagged struct so a host
             process can still source it from a config file if it wants.
*/

package scorecore

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ThresholdConfig holds the DF probability thresholds (§4.5).
type ThresholdConfig struct {
	WarnThreshold  float64 `yaml:"warn_threshold"`
	BlockThreshold float64 `yaml:"block_threshold"`
}

// BanditConfig holds CB's tunables (§4.4).
type BanditConfig struct {
	Alpha               float64 `yaml:"alpha"`
	Lambda              float64 `yaml:"lambda"`
	SequenceLockRetries int     `yaml:"sequence_lock_retries"`
}

// CacheConfig holds DC's capacity/TTL tunables (§4.6).
type CacheConfig struct {
	Capacity int           `yaml:"capacity"`
	AllowTTL time.Duration `yaml:"allow_ttl"`
	WarnTTL  time.Duration `yaml:"warn_ttl"`
	BlockTTL time.Duration `yaml:"block_ttl"`
}

// PendingContextConfig holds §3/§9's PendingContext bounds.
type PendingContextConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

// DeadlineConfig holds §5's per-request soft deadline.
type DeadlineConfig struct {
	Default time.Duration `yaml:"default"`
}

// Config is the complete set of runtime tunables the spec calls out as
// configuration (§4.5, §4.4, §4.6, §5, §6).
type Config struct {
	Thresholds               ThresholdConfig      `yaml:"thresholds"`
	Bandit                   BanditConfig         `yaml:"bandit"`
	Cache                    CacheConfig          `yaml:"cache"`
	PendingContext           PendingContextConfig `yaml:"pending_context"`
	Deadline                 DeadlineConfig       `yaml:"deadline"`
	FailClosedOnInvalidInput bool                 `yaml:"fail_closed_on_invalid_input"`
}

// DefaultConfig returns the spec's documented defaults (§4.5, §4.6, §5).
func DefaultConfig() Config {
	return Config{
		Thresholds: ThresholdConfig{
			WarnThreshold:  0.5,
			BlockThreshold: 0.8,
		},
		Bandit: BanditConfig{
			Alpha:               1.0,
			Lambda:              1.0,
			SequenceLockRetries: 3,
		},
		Cache: CacheConfig{
			Capacity: 65536,
			AllowTTL: 5 * time.Minute,
			WarnTTL:  5 * time.Minute,
			BlockTTL: 15 * time.Minute,
		},
		PendingContext: PendingContextConfig{
			MaxEntries: 200000,
			TTL:        24 * time.Hour,
		},
		Deadline: DeadlineConfig{
			Default: 10 * time.Millisecond,
		},
		FailClosedOnInvalidInput: false,
	}
}

// Validate checks the config is internally consistent, mirroring the
// teacher's nil/range checks in config.go's parse helpers.
func (c Config) Validate() error {
	if c.Thresholds.WarnThreshold < 0 || c.Thresholds.WarnThreshold > 1 {
		return fmt.Errorf("warn_threshold out of [0,1]: %f", c.Thresholds.WarnThreshold)
	}
	if c.Thresholds.BlockThreshold < 0 || c.Thresholds.BlockThreshold > 1 {
		return fmt.Errorf("block_threshold out of [0,1]: %f", c.Thresholds.BlockThreshold)
	}
	if c.Thresholds.BlockThreshold < c.Thresholds.WarnThreshold {
		return fmt.Errorf("block_threshold (%f) below warn_threshold (%f)", c.Thresholds.BlockThreshold, c.Thresholds.WarnThreshold)
	}
	if c.Bandit.Lambda <= 0 {
		return fmt.Errorf("bandit.lambda must be positive: %f", c.Bandit.Lambda)
	}
	if c.Bandit.SequenceLockRetries <= 0 {
		return fmt.Errorf("bandit.sequence_lock_retries must be positive: %d", c.Bandit.SequenceLockRetries)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive: %d", c.Cache.Capacity)
	}
	return nil
}

// LoadConfigYAML parses a yaml document into Config, starting from
// DefaultConfig() so unset fields keep their documented defaults.
func LoadConfigYAML(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
