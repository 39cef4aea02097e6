// Package config holds the VM's JSON-configurable tunables, loaded and
// saved the way the ambient latency configuration is in this codebase's
// lineage.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the bounds and feature toggles a VM instance is constructed
// with.
type Config struct {
	// MaxActiveThreads bounds |active| at any tick. Default: 64.
	MaxActiveThreads int `json:"max_active_threads"`

	// MaxThreadSpace bounds the total number of thread slots a VM may grow
	// to. Default: 512.
	MaxThreadSpace int `json:"max_thread_space"`

	// MaxCallDepth bounds a single thread's call-stack depth. Default: 256.
	MaxCallDepth int `json:"max_call_depth"`

	// UseThreadPriority enables priority-preemptive admission; when false,
	// admission is first-come-first-served. Default: true.
	UseThreadPriority bool `json:"use_thread_priority"`

	// MatchCacheCapacity bounds the number of memoized tag-match results
	// kept by the resolver. Default: 256.
	MatchCacheCapacity int `json:"match_cache_capacity"`
}

// Default returns the configuration described in the external-interfaces
// defaults: 64 active threads, 512 total slots, call depth 256, priority
// admission on, a 256-entry match cache.
func Default() *Config {
	return &Config{
		MaxActiveThreads:   64,
		MaxThreadSpace:     512,
		MaxCallDepth:       256,
		UseThreadPriority:  true,
		MatchCacheCapacity: 256,
	}
}

// Load reads a Config from a JSON file, starting from Default() so an
// incomplete file still yields valid values for any field it omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: serialize: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate reports whether every bound is a usable positive value.
func (c *Config) Validate() error {
	if c.MaxActiveThreads <= 0 {
		return fmt.Errorf("max_active_threads must be > 0")
	}
	if c.MaxThreadSpace <= 0 {
		return fmt.Errorf("max_thread_space must be > 0")
	}
	if c.MaxThreadSpace < c.MaxActiveThreads {
		return fmt.Errorf("max_thread_space must be >= max_active_threads")
	}
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("max_call_depth must be > 0")
	}
	if c.MatchCacheCapacity <= 0 {
		return fmt.Errorf("match_cache_capacity must be > 0")
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
