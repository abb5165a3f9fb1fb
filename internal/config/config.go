// Package config provides configuration management for orbitsync.
// It supports a YAML configuration file, environment variables, and
// sensible defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/orbitapp/orbitsync/internal/logging"
)

// Config represents the complete orbitsync configuration.
type Config struct {
	// Sync configures the outbound queue and background drain behavior.
	Sync SyncConfig `yaml:"sync"`

	// Conflicts configures conflict resolution behavior.
	Conflicts ConflictConfig `yaml:"conflicts"`
}

// SyncConfig holds outbound synchronization settings.
type SyncConfig struct {
	// Enabled is the global sync switch; when false nothing is queued.
	Enabled bool `yaml:"enabled"`

	// AutoSyncOnChange drains the queue immediately after every enqueue.
	AutoSyncOnChange bool `yaml:"auto_sync_on_change"`

	// BackgroundSyncInterval is the background drain interval in minutes.
	// Zero disables background draining.
	BackgroundSyncInterval int `yaml:"background_sync_interval"`

	// SyncTasks enables syncing of tasks.
	SyncTasks bool `yaml:"sync_tasks"`

	// SyncTimeSlots enables syncing of time slots.
	SyncTimeSlots bool `yaml:"sync_time_slots"`

	// SyncObjectives enables syncing of objective deadlines.
	SyncObjectives bool `yaml:"sync_objectives"`

	// SyncFriends enables syncing of contacts.
	SyncFriends bool `yaml:"sync_friends"`

	// MaxRetries bounds how often a failing queue item is attempted
	// before it is dropped.
	MaxRetries int `yaml:"max_retries"`
}

// ConflictConfig holds conflict resolution settings.
type ConflictConfig struct {
	// DefaultStrategy is applied when neither the caller nor a
	// per-service override names one.
	DefaultStrategy string `yaml:"default_strategy"`

	// AutoResolve resolves open conflicts with the configured defaults
	// without user involvement.
	AutoResolve bool `yaml:"auto_resolve"`

	// NotifyOnConflict surfaces newly detected conflicts to the user.
	NotifyOnConflict bool `yaml:"notify_on_conflict"`

	// PerServiceStrategy overrides the default strategy per external
	// service (keyed by service name, e.g. "google_tasks").
	PerServiceStrategy map[string]string `yaml:"per_service_strategy,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			Enabled:                true,
			AutoSyncOnChange:       true,
			BackgroundSyncInterval: 15,
			SyncTasks:              true,
			SyncTimeSlots:          true,
			SyncObjectives:         true,
			SyncFriends:            true,
			MaxRetries:             3,
		},
		Conflicts: ConflictConfig{
			DefaultStrategy:  "last_write_wins",
			AutoResolve:      false,
			NotifyOnConflict: true,
		},
	}
}

// LoadFromPath loads configuration from a specific path, falling back to
// defaults on any read or parse error. Corrupt or missing persisted data
// never fails the load.
func LoadFromPath(path string) *Config {
	cfg := Default()

	// #nosec G304 - path comes from the trusted config directory
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("failed to read config, using defaults",
				logging.Err(err),
			)
		}
		cfg.applyEnvironment()
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logging.Warn("corrupt config file, using defaults",
			logging.Err(err),
		)
		cfg = Default()
	}

	cfg.applyEnvironment()
	return cfg
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern ORBITSYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("ORBITSYNC_SYNC_ENABLED"); v != "" {
		c.Sync.Enabled = parseBool(v)
	}
	if v := os.Getenv("ORBITSYNC_SYNC_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Sync.BackgroundSyncInterval = n
		}
	}
	if v := os.Getenv("ORBITSYNC_SYNC_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sync.MaxRetries = n
		}
	}
	if v := os.Getenv("ORBITSYNC_CONFLICTS_STRATEGY"); v != "" {
		c.Conflicts.DefaultStrategy = v
	}
	if v := os.Getenv("ORBITSYNC_CONFLICTS_AUTO_RESOLVE"); v != "" {
		c.Conflicts.AutoResolve = parseBool(v)
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
