package module

import "testing"

func TestNewMetadataDefaults(t *testing.T) {
	m := NewMetadata("demo")

	if !m.Enabled(PhaseMenu) {
		t.Error("expected menu phase enabled by default")
	}
	for _, p := range []Phase{PhaseUpdate, PhaseWindow, PhaseDraw} {
		if m.Enabled(p) {
			t.Errorf("expected %s phase disabled by default", p)
		}
	}
	for _, p := range Phases() {
		if w := m.Weight(p); w != 1 {
			t.Errorf("default %s weight = %v, want 1", p, w)
		}
	}
}

func TestMetadataPhaseStatesRoundTrip(t *testing.T) {
	m := NewMetadata("demo")
	m.SetEnabled(PhaseUpdate, true)
	m.SetWeight(PhaseUpdate, 5)
	m.SetWeight(PhaseDraw, 0.25)

	restored := NewMetadata("demo")
	restored.ApplyPhaseStates(m.PhaseStates())

	if !restored.Enabled(PhaseUpdate) {
		t.Error("update enable flag not restored")
	}
	if w := restored.Weight(PhaseUpdate); w != 5 {
		t.Errorf("update weight = %v, want 5", w)
	}
	if w := restored.Weight(PhaseDraw); w != 0.25 {
		t.Errorf("draw weight = %v, want 0.25", w)
	}
}

func TestMetadataCloneIsIndependent(t *testing.T) {
	m := NewMetadata("demo")
	m.MenuPath = []string{"tools", "demo"}

	c := m.Clone()
	c.SetWeight(PhaseMenu, 9)
	c.MenuPath[0] = "changed"

	if m.Weight(PhaseMenu) != 1 {
		t.Error("clone shares weight map with original")
	}
	if m.MenuPath[0] != "tools" {
		t.Error("clone shares menu path slice with original")
	}
}
