package tracker

import (
	"math"
	"time"
)

// Aggregate accumulates statistics for one state. Mean and variance are
// maintained online with Welford's algorithm so a single pass over
// transitions suffices.
type Aggregate struct {
	State          State
	TotalDuration  time.Duration
	Occurrences    uint64
	FirstSeen      time.Time
	LastSeen       time.Time

	mean float64 // seconds
	m2   float64 // sum of squared deviations, seconds^2
}

func newAggregate(s State, now time.Time) *Aggregate {
	return &Aggregate{State: s, FirstSeen: now, LastSeen: now}
}

func (a *Aggregate) update(d time.Duration, now time.Time) {
	if a.Occurrences == 0 {
		a.FirstSeen = now
	}
	a.TotalDuration += d
	a.Occurrences++

	x := d.Seconds()
	delta := x - a.mean
	a.mean += delta / float64(a.Occurrences)
	a.m2 += delta * (x - a.mean)
	a.LastSeen = now
}

// MeanDuration returns the mean time spent per occurrence.
func (a *Aggregate) MeanDuration() time.Duration {
	return time.Duration(a.mean * float64(time.Second))
}

// StdDev returns the sample standard deviation of occurrence durations, and
// false when fewer than two occurrences have been recorded.
func (a *Aggregate) StdDev() (time.Duration, bool) {
	if a.Occurrences < 2 {
		return 0, false
	}
	variance := a.m2 / float64(a.Occurrences-1)
	return time.Duration(math.Sqrt(variance) * float64(time.Second)), true
}

// Statistics is a point-in-time snapshot of one aggregate.
type Statistics struct {
	State         State
	TotalDuration time.Duration
	Occurrences   uint64
	MeanDuration  time.Duration
	StdDev        time.Duration
	HasStdDev     bool
	FirstSeen     time.Time
	LastSeen      time.Time
	Suppressed    bool
}

func (a *Aggregate) snapshot(suppressed bool) Statistics {
	std, ok := a.StdDev()
	return Statistics{
		State:         a.State,
		TotalDuration: a.TotalDuration,
		Occurrences:   a.Occurrences,
		MeanDuration:  a.MeanDuration(),
		StdDev:        std,
		HasStdDev:     ok,
		FirstSeen:     a.FirstSeen,
		LastSeen:      a.LastSeen,
		Suppressed:    suppressed,
	}
}

// DefaultMaxHistory bounds the number of distinct tracked states.
const DefaultMaxHistory = 1000

// StateTracker times transitions between states for one module. It is not
// safe for concurrent use; the runtime is single-threaded by design.
type StateTracker struct {
	enabled bool

	current      State
	hasCurrent   bool
	currentStart time.Time

	// aggregates is append-ordered and bounded by maxHistory; the oldest
	// entry is dropped when a new state would exceed the bound.
	aggregates []*Aggregate
	maxHistory int

	sessionStart   time.Time
	activeDuration time.Duration
	activeStart    time.Time

	suppressed      map[State]struct{}
	suppressEnabled bool

	now func() time.Time
}

// TrackerOption configures a StateTracker.
type TrackerOption func(*StateTracker)

// WithTrackerClock overrides the tracker's time source. Intended for tests.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *StateTracker) {
		t.now = now
	}
}

// WithSuppressedStates pre-populates the suppression set and enables the
// filter when any states are given.
func WithSuppressedStates(states ...State) TrackerOption {
	return func(t *StateTracker) {
		for _, s := range states {
			t.suppressed[s] = struct{}{}
		}
		if len(states) > 0 {
			t.suppressEnabled = true
		}
	}
}

// WithMaxHistory bounds the number of distinct states kept.
func WithMaxHistory(n int) TrackerOption {
	return func(t *StateTracker) {
		if n > 0 {
			t.maxHistory = n
		}
	}
}

// NewStateTracker creates an idle tracker. The session clock starts on the
// first StateChange call.
func NewStateTracker(opts ...TrackerOption) *StateTracker {
	t := &StateTracker{
		maxHistory: DefaultMaxHistory,
		suppressed: make(map[State]struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Enabled reports whether the tracker has recorded any transition.
func (t *StateTracker) Enabled() bool {
	return t.enabled
}

// Current returns the state the tracker is currently timing.
func (t *StateTracker) Current() (State, bool) {
	return t.current, t.hasCurrent
}

// StateChange closes the timer on the previous state, folding its elapsed
// duration into that state's aggregate, and opens a timer for newState. The
// first call starts the session clock.
func (t *StateTracker) StateChange(newState State) {
	now := t.now()

	if !t.activeStart.IsZero() {
		t.activeDuration += now.Sub(t.activeStart)
	}
	if !t.enabled {
		t.enabled = true
		t.sessionStart = now
	}
	t.activeStart = now

	if t.hasCurrent {
		elapsed := now.Sub(t.currentStart)
		t.aggregateFor(t.current, now).update(elapsed, now)
	}

	t.current = newState
	t.hasCurrent = true
	t.currentStart = now
}

func (t *StateTracker) aggregateFor(s State, now time.Time) *Aggregate {
	for _, agg := range t.aggregates {
		if agg.State == s {
			return agg
		}
	}
	if len(t.aggregates) >= t.maxHistory {
		t.aggregates = t.aggregates[1:]
	}
	agg := newAggregate(s, now)
	t.aggregates = append(t.aggregates, agg)
	return agg
}

// Reset clears all aggregates and timers.
func (t *StateTracker) Reset() {
	t.enabled = false
	t.hasCurrent = false
	t.currentStart = time.Time{}
	t.sessionStart = time.Time{}
	t.activeDuration = 0
	t.activeStart = time.Time{}
	t.aggregates = nil
}

// Suppress excludes a state from the filtered active-time view. Raw
// aggregates are unaffected.
func (t *StateTracker) Suppress(s State) {
	t.suppressed[s] = struct{}{}
}

// Unsuppress removes a state from the suppression set.
func (t *StateTracker) Unsuppress(s State) {
	delete(t.suppressed, s)
}

// ToggleSuppress flips a state's membership in the suppression set.
func (t *StateTracker) ToggleSuppress(s State) {
	if _, ok := t.suppressed[s]; ok {
		delete(t.suppressed, s)
	} else {
		t.suppressed[s] = struct{}{}
	}
}

// ClearSuppressions empties the suppression set.
func (t *StateTracker) ClearSuppressions() {
	t.suppressed = make(map[State]struct{})
}

// SetSuppressionEnabled turns the suppression filter on or off without
// touching the set itself.
func (t *StateTracker) SetSuppressionEnabled(on bool) {
	t.suppressEnabled = on
}

// IsSuppressed reports whether s is currently filtered out of summaries.
func (t *StateTracker) IsSuppressed(s State) bool {
	if !t.suppressEnabled {
		return false
	}
	_, ok := t.suppressed[s]
	return ok
}

// Stats returns snapshots for every unsuppressed state, in append order.
func (t *StateTracker) Stats() []Statistics {
	var out []Statistics
	for _, agg := range t.aggregates {
		if t.IsSuppressed(agg.State) {
			continue
		}
		out = append(out, agg.snapshot(false))
	}
	return out
}

// AllStats returns snapshots for every state, flagged with suppression.
func (t *StateTracker) AllStats() []Statistics {
	out := make([]Statistics, 0, len(t.aggregates))
	for _, agg := range t.aggregates {
		out = append(out, agg.snapshot(t.IsSuppressed(agg.State)))
	}
	return out
}

// HistoryLen returns the number of distinct states with aggregates.
func (t *StateTracker) HistoryLen() int {
	return len(t.aggregates)
}

// DropOldest removes the n oldest aggregates. Used by the flattening pass.
func (t *StateTracker) DropOldest(n int) {
	if n <= 0 {
		return
	}
	if n >= len(t.aggregates) {
		t.aggregates = nil
		return
	}
	t.aggregates = t.aggregates[n:]
}

// ActiveTime returns the filtered active time: the total of unsuppressed
// aggregates plus the current segment when its state is unsuppressed.
func (t *StateTracker) ActiveTime() time.Duration {
	var total time.Duration
	for _, agg := range t.aggregates {
		if !t.IsSuppressed(agg.State) {
			total += agg.TotalDuration
		}
	}
	if t.hasCurrent && !t.IsSuppressed(t.current) && !t.activeStart.IsZero() {
		total += t.now().Sub(t.activeStart)
	}
	return total
}

// TotalActiveTime returns active time including suppressed states.
func (t *StateTracker) TotalActiveTime() time.Duration {
	total := t.activeDuration
	if !t.activeStart.IsZero() {
		total += t.now().Sub(t.activeStart)
	}
	return total
}

// SessionDuration returns time since the first recorded transition.
func (t *StateTracker) SessionDuration() time.Duration {
	if t.sessionStart.IsZero() {
		return 0
	}
	return t.now().Sub(t.sessionStart)
}
