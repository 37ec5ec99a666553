package tracker

import (
	"testing"
	"time"

	"github.com/modkit/modkit/module"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*StateTracker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	return NewStateTracker(WithTrackerClock(clock.now)), clock
}

func TestStateChangeAccumulates(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StateChange(StateUpdating)
	clock.advance(100 * time.Millisecond)
	tr.StateChange(StateStasis)
	clock.advance(50 * time.Millisecond)
	tr.StateChange(StateUpdating)
	clock.advance(300 * time.Millisecond)
	tr.StateChange(StateStasis)

	stats := tr.AllStats()
	if len(stats) != 2 {
		t.Fatalf("got %d aggregates, want 2", len(stats))
	}

	byState := make(map[State]Statistics)
	for _, s := range stats {
		byState[s.State] = s
	}

	up := byState[StateUpdating]
	if up.Occurrences != 2 {
		t.Errorf("updating occurrences = %d, want 2", up.Occurrences)
	}
	if up.TotalDuration != 400*time.Millisecond {
		t.Errorf("updating total = %v, want 400ms", up.TotalDuration)
	}
	if up.MeanDuration != 200*time.Millisecond {
		t.Errorf("updating mean = %v, want 200ms", up.MeanDuration)
	}
	if !up.HasStdDev {
		t.Error("expected std dev with two occurrences")
	}

	st := byState[StateStasis]
	if st.Occurrences != 1 || st.TotalDuration != 50*time.Millisecond {
		t.Errorf("stasis = %+v", st)
	}
	if st.HasStdDev {
		t.Error("single occurrence should not have a std dev")
	}
}

func TestActiveTimeBalancesWithSuppression(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Suppress(StateStasis)
	tr.SetSuppressionEnabled(true)

	tr.StateChange(StateUpdating)
	clock.advance(200 * time.Millisecond)
	tr.StateChange(StateStasis)
	clock.advance(800 * time.Millisecond)
	tr.StateChange(StateUpdating)
	clock.advance(100 * time.Millisecond)
	tr.StateChange(StateReady) // closes second updating segment

	// Aggregated: updating 300ms, stasis 800ms. "ready" is still open with
	// zero elapsed time on the fake clock.
	if got := tr.TotalActiveTime(); got != 1100*time.Millisecond {
		t.Errorf("TotalActiveTime = %v, want 1.1s", got)
	}
	if got := tr.ActiveTime(); got != 300*time.Millisecond {
		t.Errorf("ActiveTime = %v, want 300ms (stasis suppressed)", got)
	}

	// Suppression off: both views agree.
	tr.SetSuppressionEnabled(false)
	if got := tr.ActiveTime(); got != 1100*time.Millisecond {
		t.Errorf("ActiveTime without suppression = %v, want 1.1s", got)
	}
}

func TestSuppressionKeepsRawAggregates(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Suppress(StateQueued)
	tr.SetSuppressionEnabled(true)

	tr.StateChange(StateQueued)
	clock.advance(10 * time.Millisecond)
	tr.StateChange(StateReady)

	if got := len(tr.Stats()); got != 0 {
		t.Errorf("filtered stats length = %d, want 0", got)
	}
	all := tr.AllStats()
	if len(all) != 1 || all[0].State != StateQueued || !all[0].Suppressed {
		t.Errorf("AllStats = %+v, want suppressed queued aggregate", all)
	}
}

func TestBoundedHistory(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tr := NewStateTracker(WithTrackerClock(clock.now), WithMaxHistory(2))

	tr.StateChange(StateUpdating)
	clock.advance(time.Millisecond)
	tr.StateChange(StateReady)
	clock.advance(time.Millisecond)
	tr.StateChange(StateStasis)
	clock.advance(time.Millisecond)
	tr.StateChange(StateError) // closes stasis, creating a third aggregate

	if got := tr.HistoryLen(); got != 2 {
		t.Errorf("HistoryLen = %d, want 2 (oldest dropped)", got)
	}
}

func TestResetClearsEverything(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StateChange(StateUpdating)
	clock.advance(time.Second)
	tr.StateChange(StateReady)

	tr.Reset()
	if tr.Enabled() || tr.HistoryLen() != 0 || tr.TotalActiveTime() != 0 {
		t.Error("Reset did not clear tracker state")
	}
	if _, has := tr.Current(); has {
		t.Error("Reset should clear current state")
	}
}

func TestTrackedModulePhaseFlow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tm := NewTrackedModule(module.Handle(1), "demo", WithTrackerClock(clock.now))

	for i := 0; i < 3; i++ {
		tm.Queued()
		clock.advance(time.Millisecond)
		tm.BeginUpdate()
		clock.advance(5 * time.Millisecond)
		tm.EndUpdate()
		clock.advance(time.Millisecond)
		tm.Stasis()
	}

	if tm.UpdateCount != 3 {
		t.Errorf("UpdateCount = %d, want 3", tm.UpdateCount)
	}

	avg, ok := tm.AverageTransition(StateUpdating, StatePostUpdate)
	if !ok || avg != 5*time.Millisecond {
		t.Errorf("AverageTransition(updating→post-update) = %v %v, want 5ms true", avg, ok)
	}

	recent := tm.RecentTransitions(2)
	if len(recent) != 2 || recent[0].To != StateStasis {
		t.Errorf("RecentTransitions = %+v", recent)
	}

	stats := tm.TransitionStats()
	key := TransitionKey{From: StateQueued, To: StateUpdating}
	if stats[key].Count != 3 {
		t.Errorf("queued→updating count = %d, want 3", stats[key].Count)
	}
}

func TestGlobalTrackerFlatten(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := NewGlobalTracker(
		WithGlobalClock(clock.now),
		WithFlattenThreshold(4),
	)
	g.SetEnabled(true)
	g.RegisterModule(module.Handle(1), "demo")

	tm, ok := g.Module(module.Handle(1))
	if !ok {
		t.Fatal("module not registered")
	}
	// Cycle through six distinct states to grow the aggregate history.
	for _, s := range []State{
		StateInitializing, StateReady, StateUpdating,
		StatePostUpdate, StateRenderingMenu, StatePostRenderMenu,
	} {
		clock.advance(time.Millisecond)
		tm.Lifecycle.StateChange(s)
	}
	if tm.Lifecycle.HistoryLen() <= 4 {
		t.Fatalf("precondition: history %d should exceed threshold", tm.Lifecycle.HistoryLen())
	}

	g.FlattenIfNeeded()
	if got := tm.Lifecycle.HistoryLen(); got != 2 {
		t.Errorf("after flatten, history = %d, want threshold/2 = 2", got)
	}

	g.UnregisterModule(module.Handle(1))
	if g.Len() != 0 {
		t.Error("UnregisterModule did not remove tracker")
	}
}
