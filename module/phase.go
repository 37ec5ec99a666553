package module

// Phase identifies one of the per-frame callback slots the registry drives.
type Phase int

const (
	// PhaseUpdate is the dependency-ordered simulation step.
	PhaseUpdate Phase = iota

	// PhaseMenu renders the module's menu entry.
	PhaseMenu

	// PhaseWindow renders the module's standalone window.
	PhaseWindow

	// PhaseDraw renders into the host's foreground/background draw layers.
	PhaseDraw
)

// String returns the phase name used in logs and persisted documents.
func (p Phase) String() string {
	switch p {
	case PhaseUpdate:
		return "update"
	case PhaseMenu:
		return "menu"
	case PhaseWindow:
		return "window"
	case PhaseDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// Phases lists every phase in execution order within a frame.
func Phases() []Phase {
	return []Phase{PhaseUpdate, PhaseMenu, PhaseWindow, PhaseDraw}
}
