package modsync

import (
	"encoding/json"
	"testing"

	"github.com/modkit/modkit/module"
)

// gauge is a stateful module carrying a couple of numeric fields.
type gauge struct {
	module.Base
	Level float64 `json:"level"`
	Label string  `json:"label"`
}

func newGauge(name string) *gauge {
	return &gauge{Base: module.NewBase(module.NewMetadata(name))}
}

func (g *gauge) MarshalState() (json.RawMessage, error) {
	return json.Marshal(map[string]any{"level": g.Level, "label": g.Label})
}

func (g *gauge) UnmarshalState(doc json.RawMessage) error {
	var state struct {
		Level float64 `json:"level"`
		Label string  `json:"label"`
	}
	if err := json.Unmarshal(doc, &state); err != nil {
		return err
	}
	g.Level = state.Level
	g.Label = state.Label
	return nil
}

type fakeRegistry map[string]module.Module

func (f fakeRegistry) FindByName(name string) (module.Module, bool) {
	m, ok := f[name]
	return m, ok
}

func TestApplyCopiesMappedFields(t *testing.T) {
	src := newGauge("engine")
	src.Level = 80
	src.Label = "hot"
	dst := newGauge("dashboard")

	e := NewEngine([]Definition{{
		ID:     "engine-to-dash",
		Source: "engine",
		Target: "dashboard",
		Mappings: []FieldMapping{
			{Source: "level", Target: "level", Scale: 0.5},
			{Source: "label", Target: "label"},
		},
	}})

	reg := fakeRegistry{"engine": src, "dashboard": dst}
	if got := e.Apply(reg); got != 1 {
		t.Fatalf("Apply = %d syncs, want 1", got)
	}
	if dst.Level != 40 {
		t.Errorf("scaled level = %v, want 40", dst.Level)
	}
	if dst.Label != "hot" {
		t.Errorf("label = %q, want hot", dst.Label)
	}
}

func TestApplySkipsUnchangedSource(t *testing.T) {
	src := newGauge("engine")
	src.Level = 10
	dst := newGauge("dashboard")

	e := NewEngine([]Definition{{
		ID:       "s",
		Source:   "engine",
		Target:   "dashboard",
		Mappings: []FieldMapping{{Source: "level", Target: "level"}},
	}})
	reg := fakeRegistry{"engine": src, "dashboard": dst}

	if got := e.Apply(reg); got != 1 {
		t.Fatalf("first Apply = %d, want 1", got)
	}
	dst.Level = 999 // drift the target; unchanged source must not overwrite it
	if got := e.Apply(reg); got != 0 {
		t.Fatalf("second Apply = %d, want 0 (source unchanged)", got)
	}
	if dst.Level != 999 {
		t.Errorf("target overwritten despite unchanged source: %v", dst.Level)
	}

	// Re-arming forces the copy even without a source change.
	e.MarkDirty("s")
	if got := e.Apply(reg); got != 1 {
		t.Fatalf("re-armed Apply = %d, want 1", got)
	}
	if dst.Level != 10 {
		t.Errorf("re-armed sync did not copy: %v", dst.Level)
	}

	// A source change re-triggers on its own.
	src.Level = 20
	e.Apply(reg)
	if dst.Level != 20 {
		t.Errorf("changed source did not sync: %v", dst.Level)
	}
}

func TestConditionsGateTheSync(t *testing.T) {
	src := newGauge("engine")
	src.Level = 30
	src.Label = "warm"
	dst := newGauge("dashboard")

	e := NewEngine([]Definition{{
		ID:       "gated",
		Source:   "engine",
		Target:   "dashboard",
		Mappings: []FieldMapping{{Source: "level", Target: "level"}},
		Conditions: []Condition{
			{Path: "level", Op: "gt", Value: "50"},
			{Path: "label", Op: "contains", Value: `"warm"`},
		},
	}})
	reg := fakeRegistry{"engine": src, "dashboard": dst}

	e.Apply(reg)
	if dst.Level != 0 {
		t.Fatalf("condition gt 50 failed but sync ran: %v", dst.Level)
	}

	src.Level = 60
	e.Apply(reg)
	if dst.Level != 60 {
		t.Errorf("all conditions hold, sync should run: %v", dst.Level)
	}
}

func TestBidirectionalReversesScale(t *testing.T) {
	src := newGauge("metric")
	src.Level = 10
	dst := newGauge("imperial")

	e := NewEngine([]Definition{{
		ID:            "units",
		Source:        "metric",
		Target:        "imperial",
		Bidirectional: true,
		Mappings:      []FieldMapping{{Source: "level", Target: "level", Scale: 2}},
	}})
	reg := fakeRegistry{"metric": src, "imperial": dst}

	e.Apply(reg)
	if dst.Level != 20 {
		t.Fatalf("forward copy = %v, want 20", dst.Level)
	}
	// The reverse pass halves the (just-written) target back into the source.
	if src.Level != 10 {
		t.Errorf("reverse copy = %v, want 10", src.Level)
	}
}

func TestMissingModuleIsReportedNotFatal(t *testing.T) {
	e := NewEngine([]Definition{{
		ID:       "orphan",
		Source:   "ghost",
		Target:   "dashboard",
		Mappings: []FieldMapping{{Source: "level", Target: "level"}},
	}})
	if got := e.Apply(fakeRegistry{}); got != 0 {
		t.Errorf("Apply = %d, want 0", got)
	}
}

func TestAddRemove(t *testing.T) {
	e := NewEngine(nil)
	e.Add(Definition{ID: "a"})
	e.Add(Definition{ID: "b"})
	e.Add(Definition{ID: "a"}) // replace, not duplicate
	if e.Len() != 2 {
		t.Errorf("Len = %d, want 2", e.Len())
	}
	e.Remove("a")
	if e.Len() != 1 {
		t.Errorf("Len = %d after remove, want 1", e.Len())
	}
}
