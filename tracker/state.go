package tracker

// State is a coarse lifecycle phase of a module.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateUpdating
	StatePostUpdate
	StateRenderingMenu
	StatePostRenderMenu
	StateRenderingWindow
	StatePostRenderWindow
	StateRenderingDraw
	StatePostRenderDraw
	StateUnloading
	StateError
	StateQueued
	StateStasis
)

var stateNames = map[State]string{
	StateUninitialized:    "uninitialized",
	StateInitializing:     "initializing",
	StateReady:            "ready",
	StateUpdating:         "updating",
	StatePostUpdate:       "post-update",
	StateRenderingMenu:    "rendering-menu",
	StatePostRenderMenu:   "post-render-menu",
	StateRenderingWindow:  "rendering-window",
	StatePostRenderWindow: "post-render-window",
	StateRenderingDraw:    "rendering-draw",
	StatePostRenderDraw:   "post-render-draw",
	StateUnloading:        "unloading",
	StateError:            "error",
	StateQueued:           "queued",
	StateStasis:           "stasis",
}

// String returns the state name used in logs and reports.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseState resolves a state name back to its value.
func ParseState(name string) (State, bool) {
	for s, n := range stateNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// IdleStates returns the states conventionally suppressed from active-time
// summaries: the queued/stasis bookkeeping states.
func IdleStates() []State {
	return []State{StateQueued, StateStasis}
}
