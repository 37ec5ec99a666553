package module

// WindowGeometry describes where a module's window is placed by the host UI.
type WindowGeometry struct {
	Pos        [2]float64 `json:"pos"`
	Size       [2]float64 `json:"size"`
	AutoResize bool       `json:"autoResize"`
}

// Metadata describes a module to the registry: identity, which phases it
// participates in, its scheduling weights, window geometry, hotkey bindings
// and the access policy other modules are subject to when they request it.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`

	// MenuPath groups the module in the host's menu tree. Empty means the
	// module appears under its own name.
	MenuPath []string `json:"menuPath,omitempty"`

	// DrawGroup names the render-grouping path for the draw phase. Modules
	// with an empty group are "independent" and render before any group.
	DrawGroup []string `json:"drawGroup,omitempty"`

	Window WindowGeometry `json:"window"`

	Hotkeys []HotkeyBinding `json:"hotkeys,omitempty"`

	Access Policy `json:"access"`

	enabled map[Phase]bool
	weights map[Phase]float64
}

// NewMetadata returns metadata with the runtime defaults: menu participation
// enabled, every other phase disabled, and all weights at 1.
func NewMetadata(name string) Metadata {
	m := Metadata{
		Name:        name,
		Description: "unknown",
		Category:    "unknown",
		Window:      WindowGeometry{AutoResize: true},
		Access:      DefaultPolicy(),
	}
	m.init()
	m.enabled[PhaseMenu] = true
	return m
}

func (m *Metadata) init() {
	if m.enabled == nil {
		m.enabled = make(map[Phase]bool, 4)
	}
	if m.weights == nil {
		m.weights = map[Phase]float64{
			PhaseUpdate: 1,
			PhaseMenu:   1,
			PhaseWindow: 1,
			PhaseDraw:   1,
		}
	}
}

// Enabled reports whether the module participates in the given phase.
func (m *Metadata) Enabled(p Phase) bool {
	m.init()
	return m.enabled[p]
}

// SetEnabled toggles the module's participation in the given phase.
func (m *Metadata) SetEnabled(p Phase, on bool) {
	m.init()
	m.enabled[p] = on
}

// Weight returns the scheduling weight for the given phase. Higher weights
// run earlier within a phase.
func (m *Metadata) Weight(p Phase) float64 {
	m.init()
	return m.weights[p]
}

// SetWeight sets the scheduling weight for the given phase.
func (m *Metadata) SetWeight(p Phase, w float64) {
	m.init()
	m.weights[p] = w
}

// PhaseState is the wire form of the enabled/weight maps.
type PhaseState struct {
	Enabled bool    `json:"enabled"`
	Weight  float64 `json:"weight"`
}

// PhaseStates returns the per-phase enable flags and weights keyed by phase
// name, in the shape used by persisted documents.
func (m *Metadata) PhaseStates() map[string]PhaseState {
	m.init()
	out := make(map[string]PhaseState, 4)
	for _, p := range Phases() {
		out[p.String()] = PhaseState{Enabled: m.enabled[p], Weight: m.weights[p]}
	}
	return out
}

// ApplyPhaseStates restores flags and weights previously captured with
// PhaseStates. Unknown phase names are ignored.
func (m *Metadata) ApplyPhaseStates(states map[string]PhaseState) {
	m.init()
	for _, p := range Phases() {
		if s, ok := states[p.String()]; ok {
			m.enabled[p] = s.Enabled
			m.weights[p] = s.Weight
		}
	}
}

// Clone returns a deep copy of the metadata.
func (m *Metadata) Clone() Metadata {
	m.init()
	out := *m
	out.enabled = make(map[Phase]bool, len(m.enabled))
	for k, v := range m.enabled {
		out.enabled[k] = v
	}
	out.weights = make(map[Phase]float64, len(m.weights))
	for k, v := range m.weights {
		out.weights[k] = v
	}
	out.MenuPath = append([]string(nil), m.MenuPath...)
	out.DrawGroup = append([]string(nil), m.DrawGroup...)
	out.Hotkeys = append([]HotkeyBinding(nil), m.Hotkeys...)
	out.Access = m.Access.Clone()
	return out
}
