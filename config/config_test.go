package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/modkit/modkit/tracker"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modkit.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StateFile != "modkit-state.json" || !cfg.Tracker.Enabled {
		t.Errorf("defaults = %+v", cfg)
	}
	if len(cfg.SuppressedStates()) != 2 {
		t.Errorf("default suppressed = %v", cfg.SuppressedStates())
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
pluginPaths:
  - plugins
  - extra-plugins
stateFile: save/state.json
logLevel: debug
tracker:
  enabled: true
  flattenThreshold: 500
  autoFlatten: true
  suppressedStates: [stasis]
syncs:
  - id: engine-to-dash
    source: engine
    target: dashboard
    mappings:
      - source: level
        target: level
        scale: 0.5
    conditions:
      - path: level
        op: gt
        value: "50"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.PluginPaths) != 2 || cfg.PluginPaths[1] != "extra-plugins" {
		t.Errorf("PluginPaths = %v", cfg.PluginPaths)
	}
	if cfg.Tracker.FlattenThreshold != 500 {
		t.Errorf("FlattenThreshold = %d", cfg.Tracker.FlattenThreshold)
	}
	if states := cfg.SuppressedStates(); len(states) != 1 || states[0] != tracker.StateStasis {
		t.Errorf("SuppressedStates = %v", states)
	}
	if len(cfg.Syncs) != 1 || cfg.Syncs[0].Mappings[0].Scale != 0.5 {
		t.Errorf("Syncs = %+v", cfg.Syncs)
	}
	if lvl, _ := cfg.SlogLevel(); lvl.String() != "DEBUG" {
		t.Errorf("SlogLevel = %v", lvl)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"bad level", "logLevel: loud", ErrBadLogLevel},
		{"bad threshold", "tracker:\n  flattenThreshold: -1", ErrBadThreshold},
		{"bad state", "tracker:\n  flattenThreshold: 10\n  suppressedStates: [sleeping]", ErrBadState},
		{"bad sync", "syncs:\n  - id: x\n    source: a", ErrBadSync},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
