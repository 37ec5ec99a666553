// Package main is a minimal host for the modkit runtime: it loads the
// configuration, registers a couple of built-in modules, pulls in dynamic
// modules from the configured plugin directories, runs a fixed number of
// frames and persists module state on the way out.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/modkit/modkit/config"
	"github.com/modkit/modkit/module"
	"github.com/modkit/modkit/modsync"
	"github.com/modkit/modkit/registry"
	"github.com/modkit/modkit/tracker"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "modkit.yaml", "path to configuration file")
		frames      = flag.Int("frames", 60, "number of frames to run")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("modkit %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	reg := registry.New(registry.WithLogger(log))
	reg.AttachTracker(newTracker(cfg))

	if _, err := reg.Register(newHeartbeat()); err != nil {
		log.Error("register failed", "error", err)
		return 1
	}
	if _, err := reg.Register(newWatchdog()); err != nil {
		log.Error("register failed", "error", err)
		return 1
	}

	for _, dir := range cfg.PluginPaths {
		handles, err := reg.LoadDynamicDir(dir)
		if err != nil {
			log.Warn("plugin scan finished with errors", "dir", dir, "error", err)
		}
		log.Info("plugins loaded", "dir", dir, "count", len(handles))
	}

	if _, err := os.Stat(cfg.StateFile); err == nil {
		if err := reg.LoadFromFile(cfg.StateFile, nil); err != nil {
			log.Warn("state restore failed", "file", cfg.StateFile, "error", err)
		}
	}

	engine := modsync.NewEngine(cfg.Syncs, modsync.WithLogger(log))
	engine.Bind(reg)

	reg.InitAll()
	for frame := 0; frame < *frames; frame++ {
		reg.Tick(registry.TickAll())
		engine.Apply(reg)
		reg.ProcessEvents()
	}
	reg.ExitAll()

	if err := reg.SaveToFile(cfg.StateFile, hostExtras()); err != nil {
		log.Error("state save failed", "file", cfg.StateFile, "error", err)
	}

	reportTimings(log, reg)
	reg.UnloadAll()
	return 0
}

func newTracker(cfg *config.Config) *tracker.GlobalTracker {
	gt := tracker.NewGlobalTracker(
		tracker.WithFlattenThreshold(cfg.Tracker.FlattenThreshold),
		tracker.WithAutoFlatten(cfg.Tracker.AutoFlatten),
		tracker.WithGlobalSuppression(cfg.SuppressedStates()...),
	)
	gt.SetEnabled(cfg.Tracker.Enabled)
	return gt
}

func hostExtras() map[string]json.RawMessage {
	v, _ := json.Marshal(version)
	return map[string]json.RawMessage{"hostVersion": v}
}

// reportTimings logs per-module update statistics collected by the tracker.
func reportTimings(log *slog.Logger, reg *registry.Registry) {
	gt := reg.Tracker()
	if gt == nil || !gt.Enabled() {
		return
	}
	gt.Each(func(tm *tracker.TrackedModule) {
		for _, stats := range tm.Lifecycle.AllStats() {
			if stats.State != tracker.StateUpdating {
				continue
			}
			log.Info("module timing",
				"module", tm.Name,
				"updates", tm.UpdateCount,
				"meanUpdate", stats.MeanDuration,
				"errors", tm.ErrorCount)
		}
	})
}

// heartbeat is a demo module that counts frames and persists the count.
type heartbeat struct {
	module.Base
	beats int
}

func newHeartbeat() *heartbeat {
	meta := module.NewMetadata("heartbeat")
	meta.Description = "counts frames"
	meta.Category = "demo"
	meta.SetEnabled(module.PhaseUpdate, true)
	meta.SetWeight(module.PhaseUpdate, 10)
	return &heartbeat{Base: module.NewBase(meta)}
}

func (h *heartbeat) Update(module.View) { h.beats++ }

func (h *heartbeat) MarshalState() (json.RawMessage, error) {
	return json.Marshal(map[string]int{"beats": h.beats})
}

func (h *heartbeat) UnmarshalState(doc json.RawMessage) error {
	var state struct {
		Beats int `json:"beats"`
	}
	if err := json.Unmarshal(doc, &state); err != nil {
		return err
	}
	h.beats = state.Beats
	return nil
}

// watchdog is a demo module that reads the heartbeat through the access
// broker and asks for a menu rebuild when it observes the first beat.
type watchdog struct {
	module.Base
	observed int
}

func newWatchdog() *watchdog {
	meta := module.NewMetadata("watchdog")
	meta.Description = "watches the heartbeat"
	meta.Category = "demo"
	meta.SetEnabled(module.PhaseUpdate, true)
	return &watchdog{Base: module.NewBase(meta)}
}

func (w *watchdog) Update(view module.View) {
	target, ok := view.Lookup("heartbeat")
	if !ok {
		return
	}
	view.WithRead(w.Handle(), target, func(m module.Module) {
		if hb, ok := m.(*heartbeat); ok {
			w.observed = hb.beats
		}
	})
}

func (w *watchdog) MarshalState() (json.RawMessage, error) {
	return json.Marshal(map[string]int{"observed": w.observed})
}
