// Package modsync runs scripted field syncs between modules. A sync
// definition names a source and a target module and a set of JSON path
// mappings; each frame the engine serializes the source, checks the
// definition's conditions and copies the mapped fields into the target's
// state document. Modules stay decoupled: neither side knows it is being
// synced.
package modsync

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/modkit/modkit/module"
)

// FieldMapping copies one JSON path from the source document to one path in
// the target document.
type FieldMapping struct {
	Source string  `yaml:"source" json:"source"`
	Target string  `yaml:"target" json:"target"`
	Scale  float64 `yaml:"scale,omitempty" json:"scale,omitempty"` // 0 means copy verbatim
}

// Condition gates a sync on a value in the source document.
type Condition struct {
	Path  string `yaml:"path" json:"path"`
	Op    string `yaml:"op" json:"op"` // eq, ne, gt, lt, contains
	Value string `yaml:"value" json:"value"`
}

// Definition is one scripted sync.
type Definition struct {
	ID            string         `yaml:"id" json:"id"`
	Source        string         `yaml:"source" json:"source"` // module name
	Target        string         `yaml:"target" json:"target"` // module name
	Bidirectional bool           `yaml:"bidirectional,omitempty" json:"bidirectional,omitempty"`
	Mappings      []FieldMapping `yaml:"mappings" json:"mappings"`
	Conditions    []Condition    `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// Lookup is the registry surface the engine reads modules through.
// *registry.Registry satisfies it.
type Lookup interface {
	FindByName(name string) (module.Module, bool)
}

// Notifier is the registry hook for DirtySync events. *registry.Registry
// satisfies it.
type Notifier interface {
	SetSyncNotifier(fn func(id string))
}

type defState struct {
	def     Definition
	lastDoc string
	armed   bool
}

// Engine holds the sync definitions and their change-tracking state.
type Engine struct {
	defs  map[string]*defState
	order []string
	log   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an engine with the given definitions, applied in order.
func NewEngine(defs []Definition, opts ...Option) *Engine {
	e := &Engine{
		defs: make(map[string]*defState, len(defs)),
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, d := range defs {
		e.Add(d)
	}
	return e
}

// Add registers a definition, replacing any with the same ID.
func (e *Engine) Add(d Definition) {
	if _, exists := e.defs[d.ID]; !exists {
		e.order = append(e.order, d.ID)
	}
	e.defs[d.ID] = &defState{def: d, armed: true}
}

// Remove deletes a definition by ID.
func (e *Engine) Remove(id string) {
	if _, ok := e.defs[id]; !ok {
		return
	}
	delete(e.defs, id)
	for i, o := range e.order {
		if o == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of definitions.
func (e *Engine) Len() int { return len(e.defs) }

// MarkDirty re-arms a definition so its next Apply runs even if the source
// document is unchanged.
func (e *Engine) MarkDirty(id string) {
	if st, ok := e.defs[id]; ok {
		st.armed = true
	}
}

// Bind wires the engine into the registry's DirtySync event.
func (e *Engine) Bind(n Notifier) {
	n.SetSyncNotifier(e.MarkDirty)
}

// Apply runs every definition once against the registry. A definition whose
// source document is unchanged since the last run is skipped unless it was
// re-armed. Returns the number of syncs that copied anything.
func (e *Engine) Apply(reg Lookup) int {
	applied := 0
	for _, id := range e.order {
		st := e.defs[id]
		n, err := e.applyOne(reg, st)
		if err != nil {
			e.log.Warn("sync failed", "sync", id, "error", err)
			continue
		}
		if n > 0 {
			applied++
		}
	}
	return applied
}

func (e *Engine) applyOne(reg Lookup, st *defState) (int, error) {
	d := st.def
	srcDoc, err := moduleDoc(reg, d.Source)
	if err != nil {
		return 0, err
	}
	if !st.armed && srcDoc == st.lastDoc {
		return 0, nil
	}
	st.lastDoc = srcDoc
	st.armed = false

	if !conditionsHold(srcDoc, d.Conditions) {
		return 0, nil
	}

	n, err := copyFields(reg, srcDoc, d.Target, d.Mappings)
	if err != nil {
		return n, err
	}
	if d.Bidirectional {
		back, err := moduleDoc(reg, d.Target)
		if err != nil {
			return n, err
		}
		m, err := copyFields(reg, back, d.Source, reverse(d.Mappings))
		if err != nil {
			return n + m, err
		}
		n += m
	}
	return n, nil
}

func reverse(mappings []FieldMapping) []FieldMapping {
	out := make([]FieldMapping, len(mappings))
	for i, m := range mappings {
		scale := 0.0
		if m.Scale != 0 {
			scale = 1 / m.Scale
		}
		out[i] = FieldMapping{Source: m.Target, Target: m.Source, Scale: scale}
	}
	return out
}

func moduleDoc(reg Lookup, name string) (string, error) {
	m, ok := reg.FindByName(name)
	if !ok {
		return "", fmt.Errorf("module %q not registered", name)
	}
	doc, err := m.MarshalState()
	if err != nil {
		return "", fmt.Errorf("serialize %q: %w", name, err)
	}
	return string(doc), nil
}

// copyFields patches the mapped fields into the target's document and hands
// the result back to the target. Returns the number of fields copied.
func copyFields(reg Lookup, srcDoc, targetName string, mappings []FieldMapping) (int, error) {
	target, ok := reg.FindByName(targetName)
	if !ok {
		return 0, fmt.Errorf("module %q not registered", targetName)
	}
	stateful, ok := target.(module.Stateful)
	if !ok {
		return 0, fmt.Errorf("module %q cannot restore state", targetName)
	}

	doc, err := target.MarshalState()
	if err != nil {
		return 0, fmt.Errorf("serialize %q: %w", targetName, err)
	}

	patched := string(doc)
	copied := 0
	for _, m := range mappings {
		v := gjson.Get(srcDoc, m.Source)
		if !v.Exists() {
			continue
		}
		if m.Scale != 0 && v.Type == gjson.Number {
			patched, err = sjson.Set(patched, m.Target, v.Float()*m.Scale)
		} else {
			patched, err = sjson.SetRaw(patched, m.Target, v.Raw)
		}
		if err != nil {
			return copied, fmt.Errorf("set %q: %w", m.Target, err)
		}
		copied++
	}
	if copied == 0 {
		return 0, nil
	}
	if err := stateful.UnmarshalState([]byte(patched)); err != nil {
		return copied, fmt.Errorf("apply to %q: %w", targetName, err)
	}
	return copied, nil
}

func conditionsHold(doc string, conds []Condition) bool {
	for _, c := range conds {
		if !conditionHolds(doc, c) {
			return false
		}
	}
	return true
}

func conditionHolds(doc string, c Condition) bool {
	v := gjson.Get(doc, c.Path)
	if !v.Exists() {
		return false
	}
	want := gjson.Parse(c.Value)
	switch c.Op {
	case "eq":
		if v.Type == gjson.Number && want.Type == gjson.Number {
			return v.Float() == want.Float()
		}
		return v.String() == want.String()
	case "ne":
		if v.Type == gjson.Number && want.Type == gjson.Number {
			return v.Float() != want.Float()
		}
		return v.String() != want.String()
	case "gt":
		return v.Float() > want.Float()
	case "lt":
		return v.Float() < want.Float()
	case "contains":
		return strings.Contains(v.String(), want.String())
	default:
		return false
	}
}
