package tracker

import (
	"time"

	"github.com/modkit/modkit/module"
)

// TimingEntry records one phase transition.
type TimingEntry struct {
	From      State
	To        State
	Timestamp time.Time
	Delta     time.Duration // time since the previous transition
}

// DefaultMaxTimings bounds the per-module transition log.
const DefaultMaxTimings = 1000

// TrackedModule carries the lifecycle tracker and phase-timing log for one
// registered module.
type TrackedModule struct {
	Handle      module.Handle
	Name        string
	Lifecycle   *StateTracker
	LastUpdate  time.Time
	UpdateCount uint64
	ErrorCount  uint64

	timings    []TimingEntry
	maxTimings int

	lastPhase   State
	lastPhaseAt time.Time
	hasLast     bool

	now func() time.Time
}

// NewTrackedModule starts tracking a module in the Uninitialized state.
func NewTrackedModule(h module.Handle, name string, opts ...TrackerOption) *TrackedModule {
	lifecycle := NewStateTracker(opts...)
	tm := &TrackedModule{
		Handle:     h,
		Name:       name,
		Lifecycle:  lifecycle,
		maxTimings: DefaultMaxTimings,
		now:        lifecycle.now,
	}
	tm.transition(StateUninitialized)
	return tm
}

// transition appends a timing entry and forwards to the lifecycle tracker.
func (tm *TrackedModule) transition(to State) {
	now := tm.now()
	if tm.hasLast {
		entry := TimingEntry{
			From:      tm.lastPhase,
			To:        to,
			Timestamp: now,
			Delta:     now.Sub(tm.lastPhaseAt),
		}
		if len(tm.timings) >= tm.maxTimings {
			tm.timings = tm.timings[1:]
		}
		tm.timings = append(tm.timings, entry)
	}
	tm.lastPhase = to
	tm.lastPhaseAt = now
	tm.hasLast = true
	tm.Lifecycle.StateChange(to)
}

// Queued marks the module as scheduled for an upcoming phase.
func (tm *TrackedModule) Queued() { tm.transition(StateQueued) }

// Stasis marks the module idle between phases.
func (tm *TrackedModule) Stasis() { tm.transition(StateStasis) }

// BeginInit and EndInit bracket the module's Init hook.
func (tm *TrackedModule) BeginInit() { tm.transition(StateInitializing) }
func (tm *TrackedModule) EndInit()  { tm.transition(StateReady) }

// BeginUpdate and EndUpdate bracket one update callback.
func (tm *TrackedModule) BeginUpdate() {
	tm.transition(StateUpdating)
	tm.UpdateCount++
}

func (tm *TrackedModule) EndUpdate() {
	tm.transition(StatePostUpdate)
	tm.LastUpdate = tm.now()
}

// BeginRenderMenu and EndRenderMenu bracket the menu render callback.
func (tm *TrackedModule) BeginRenderMenu() { tm.transition(StateRenderingMenu) }
func (tm *TrackedModule) EndRenderMenu()   { tm.transition(StatePostRenderMenu) }

// BeginRenderWindow and EndRenderWindow bracket the window render callback.
func (tm *TrackedModule) BeginRenderWindow() { tm.transition(StateRenderingWindow) }
func (tm *TrackedModule) EndRenderWindow()   { tm.transition(StatePostRenderWindow) }

// BeginRenderDraw and EndRenderDraw bracket the draw render callback.
func (tm *TrackedModule) BeginRenderDraw() { tm.transition(StateRenderingDraw) }
func (tm *TrackedModule) EndRenderDraw()   { tm.transition(StatePostRenderDraw) }

// BeginUnload marks the module as unloading.
func (tm *TrackedModule) BeginUnload() { tm.transition(StateUnloading) }

// MarkError records a failed callback.
func (tm *TrackedModule) MarkError() {
	tm.transition(StateError)
	tm.ErrorCount++
}

// ResetStats clears counters and history and restarts in Ready.
func (tm *TrackedModule) ResetStats() {
	tm.Lifecycle.Reset()
	tm.UpdateCount = 0
	tm.ErrorCount = 0
	tm.LastUpdate = time.Time{}
	tm.timings = nil
	tm.lastPhase = StateReady
	tm.lastPhaseAt = tm.now()
	tm.hasLast = true
	tm.Lifecycle.StateChange(StateReady)
}

// Timings returns the transition log, oldest first.
func (tm *TrackedModule) Timings() []TimingEntry {
	return append([]TimingEntry(nil), tm.timings...)
}

// AverageTransition returns the mean delta for from→to transitions, and
// false when none were recorded.
func (tm *TrackedModule) AverageTransition(from, to State) (time.Duration, bool) {
	var total time.Duration
	var count int
	for _, e := range tm.timings {
		if e.From == from && e.To == to {
			total += e.Delta
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return total / time.Duration(count), true
}

// RecentTransitions returns up to n transitions, newest first.
func (tm *TrackedModule) RecentTransitions(n int) []TimingEntry {
	if n > len(tm.timings) {
		n = len(tm.timings)
	}
	out := make([]TimingEntry, 0, n)
	for i := len(tm.timings) - 1; i >= len(tm.timings)-n; i-- {
		out = append(out, tm.timings[i])
	}
	return out
}

// TimeSinceLast returns time elapsed since the module last entered the given
// phase.
func (tm *TrackedModule) TimeSinceLast(phase State) (time.Duration, bool) {
	if tm.hasLast && tm.lastPhase == phase {
		return tm.now().Sub(tm.lastPhaseAt), true
	}
	for i := len(tm.timings) - 1; i >= 0; i-- {
		if tm.timings[i].To == phase {
			return tm.now().Sub(tm.timings[i].Timestamp), true
		}
	}
	return 0, false
}

// TransitionKey identifies one from→to edge in TransitionStats.
type TransitionKey struct {
	From State
	To   State
}

// TransitionStat summarizes all recorded transitions along one edge.
type TransitionStat struct {
	Average time.Duration
	Count   uint64
}

// TransitionStats aggregates the transition log by edge.
func (tm *TrackedModule) TransitionStats() map[TransitionKey]TransitionStat {
	type acc struct {
		total time.Duration
		count uint64
	}
	sums := make(map[TransitionKey]acc)
	for _, e := range tm.timings {
		k := TransitionKey{From: e.From, To: e.To}
		a := sums[k]
		a.total += e.Delta
		a.count++
		sums[k] = a
	}
	out := make(map[TransitionKey]TransitionStat, len(sums))
	for k, a := range sums {
		out[k] = TransitionStat{Average: a.total / time.Duration(a.count), Count: a.count}
	}
	return out
}

// ClearTimings empties the transition log, keeping the current phase as the
// baseline for the next entry.
func (tm *TrackedModule) ClearTimings() {
	tm.timings = nil
	if tm.hasLast {
		tm.lastPhaseAt = tm.now()
	}
}
