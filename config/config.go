// Package config loads the host runtime configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/modkit/modkit/modsync"
	"github.com/modkit/modkit/tracker"
)

// Config is the host runtime configuration.
type Config struct {
	// PluginPaths are directories scanned for dynamic modules at startup.
	PluginPaths []string `yaml:"pluginPaths"`

	// StateFile is where module state is persisted between runs.
	StateFile string `yaml:"stateFile"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`

	Tracker TrackerConfig `yaml:"tracker"`

	// Syncs are the scripted field syncs run each frame.
	Syncs []modsync.Definition `yaml:"syncs"`
}

// TrackerConfig configures lifecycle tracking.
type TrackerConfig struct {
	Enabled          bool `yaml:"enabled"`
	FlattenThreshold int  `yaml:"flattenThreshold"`
	AutoFlatten      bool `yaml:"autoFlatten"`

	// SuppressedStates are excluded from active-time summaries. Defaults to
	// the idle states (queued, stasis).
	SuppressedStates []string `yaml:"suppressedStates"`
}

// Validation errors.
var (
	ErrBadLogLevel  = errors.New("config: unknown log level")
	ErrBadThreshold = errors.New("config: flattenThreshold must be positive")
	ErrBadState     = errors.New("config: unknown lifecycle state")
	ErrBadSync      = errors.New("config: sync definition incomplete")
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	suppressed := make([]string, 0, 2)
	for _, s := range tracker.IdleStates() {
		suppressed = append(suppressed, s.String())
	}
	return &Config{
		StateFile: "modkit-state.json",
		LogLevel:  "info",
		Tracker: TrackerConfig{
			Enabled:          true,
			FlattenThreshold: tracker.DefaultFlattenThreshold,
			AutoFlatten:      true,
			SuppressedStates: suppressed,
		},
	}
}

// Load reads and validates a config file. A missing file yields the defaults
// without error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the runtime cannot honor.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Tracker.FlattenThreshold <= 0 {
		return fmt.Errorf("%w: %d", ErrBadThreshold, c.Tracker.FlattenThreshold)
	}
	for _, name := range c.Tracker.SuppressedStates {
		if _, ok := tracker.ParseState(name); !ok {
			return fmt.Errorf("%w: %q", ErrBadState, name)
		}
	}
	for _, d := range c.Syncs {
		if d.ID == "" || d.Source == "" || d.Target == "" || len(d.Mappings) == 0 {
			return fmt.Errorf("%w: %q", ErrBadSync, d.ID)
		}
	}
	return nil
}

// SlogLevel maps the configured log level onto slog's levels.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadLogLevel, c.LogLevel)
	}
}

// SuppressedStates resolves the configured state names.
func (c *Config) SuppressedStates() []tracker.State {
	var out []tracker.State
	for _, name := range c.Tracker.SuppressedStates {
		if s, ok := tracker.ParseState(name); ok {
			out = append(out, s)
		}
	}
	return out
}
