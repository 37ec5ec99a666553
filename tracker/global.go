package tracker

import (
	"time"

	"github.com/modkit/modkit/module"
)

// DefaultFlattenThreshold is the per-module aggregate count past which
// FlattenIfNeeded drops the oldest half.
const DefaultFlattenThreshold = 10000

// GlobalTracker owns one TrackedModule per registered handle.
type GlobalTracker struct {
	enabled bool

	modules map[module.Handle]*TrackedModule

	flattenThreshold int
	autoFlatten      bool

	trackerOpts []TrackerOption
}

// GlobalOption configures a GlobalTracker.
type GlobalOption func(*GlobalTracker)

// WithFlattenThreshold sets the aggregate count that triggers flattening.
func WithFlattenThreshold(n int) GlobalOption {
	return func(g *GlobalTracker) {
		if n > 0 {
			g.flattenThreshold = n
		}
	}
}

// WithAutoFlatten enables or disables automatic flattening.
func WithAutoFlatten(on bool) GlobalOption {
	return func(g *GlobalTracker) {
		g.autoFlatten = on
	}
}

// WithGlobalSuppression propagates a suppression set to every tracked
// module's lifecycle tracker.
func WithGlobalSuppression(states ...State) GlobalOption {
	return func(g *GlobalTracker) {
		g.trackerOpts = append(g.trackerOpts, WithSuppressedStates(states...))
	}
}

// WithGlobalClock propagates a time source to every tracked module.
// Intended for tests.
func WithGlobalClock(now func() time.Time) GlobalOption {
	return func(g *GlobalTracker) {
		g.trackerOpts = append(g.trackerOpts, WithTrackerClock(now))
	}
}

// NewGlobalTracker creates a disabled tracker; call SetEnabled(true) to
// start recording.
func NewGlobalTracker(opts ...GlobalOption) *GlobalTracker {
	g := &GlobalTracker{
		modules:          make(map[module.Handle]*TrackedModule),
		flattenThreshold: DefaultFlattenThreshold,
		autoFlatten:      true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enabled reports whether the registry should record phase transitions.
func (g *GlobalTracker) Enabled() bool {
	return g.enabled
}

// SetEnabled turns recording on or off. Existing data is kept.
func (g *GlobalTracker) SetEnabled(on bool) {
	g.enabled = on
}

// RegisterModule starts tracking a handle.
func (g *GlobalTracker) RegisterModule(h module.Handle, name string) {
	g.modules[h] = NewTrackedModule(h, name, g.trackerOpts...)
}

// UnregisterModule stops tracking a handle and discards its data.
func (g *GlobalTracker) UnregisterModule(h module.Handle) {
	delete(g.modules, h)
}

// Module returns the tracked state for a handle.
func (g *GlobalTracker) Module(h module.Handle) (*TrackedModule, bool) {
	tm, ok := g.modules[h]
	return tm, ok
}

// Len returns the number of tracked modules.
func (g *GlobalTracker) Len() int {
	return len(g.modules)
}

// Each calls fn for every tracked module. Iteration order is unspecified.
func (g *GlobalTracker) Each(fn func(*TrackedModule)) {
	for _, tm := range g.modules {
		fn(tm)
	}
}

// ResetAll clears statistics for every tracked module.
func (g *GlobalTracker) ResetAll() {
	for _, tm := range g.modules {
		tm.ResetStats()
	}
}

// ResetModule clears statistics for one handle.
func (g *GlobalTracker) ResetModule(h module.Handle) {
	if tm, ok := g.modules[h]; ok {
		tm.ResetStats()
	}
}

// FlattenIfNeeded drops the oldest half of any module's aggregate history
// that has grown past the threshold. No-op unless auto-flatten is on.
func (g *GlobalTracker) FlattenIfNeeded() {
	if !g.autoFlatten {
		return
	}
	for _, tm := range g.modules {
		if n := tm.Lifecycle.HistoryLen(); n > g.flattenThreshold {
			tm.Lifecycle.DropOldest(n - g.flattenThreshold/2)
		}
	}
}
