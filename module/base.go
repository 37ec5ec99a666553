package module

import "encoding/json"

// Base supplies no-op defaults for every Module method except Name and Meta,
// which it derives from the metadata it carries. Concrete modules embed it
// by value and override what they need.
type Base struct {
	meta   Metadata
	handle Handle
}

// NewBase wraps the given metadata in a Base. Metadata defaults are applied
// for any zero-valued scheduling fields.
func NewBase(meta Metadata) Base {
	if meta.Name == "" {
		meta = NewMetadata("unknown")
	}
	meta.init()
	if meta.Access.Default == AccessNone && meta.Access.Grants == nil &&
		meta.Access.Allow == nil && meta.Access.Deny == nil {
		meta.Access = DefaultPolicy()
	}
	return Base{meta: meta}
}

// Name returns the metadata name.
func (b *Base) Name() string { return b.meta.Name }

// Meta exposes the module's metadata.
func (b *Base) Meta() *Metadata { return &b.meta }

// Handle returns the handle issued at registration, or NoHandle before
// registration.
func (b *Base) Handle() Handle { return b.handle }

// Update is a no-op.
func (b *Base) Update(View) {}

// RenderMenu is a no-op.
func (b *Base) RenderMenu(UI) {}

// RenderWindow is a no-op.
func (b *Base) RenderWindow(UI) {}

// RenderDraw is a no-op.
func (b *Base) RenderDraw(UI, DrawLayer, DrawLayer) {}

// BeforeRender is a no-op.
func (b *Base) BeforeRender(UI) {}

// UpdateDependencies declares no dependencies.
func (b *Base) UpdateDependencies() []Handle { return nil }

// HotkeyBindings returns the bindings declared in the metadata.
func (b *Base) HotkeyBindings() []HotkeyBinding { return b.meta.Hotkeys }

// OnHotkey is a no-op.
func (b *Base) OnHotkey(string) {}

// Init is a no-op.
func (b *Base) Init() {}

// OnLoad records the issued handle so the module can make access requests.
func (b *Base) OnLoad(h Handle) { b.handle = h }

// PostLoadInit is a no-op.
func (b *Base) PostLoadInit() {}

// OnUnload is a no-op.
func (b *Base) OnUnload() {}

// Exit is a no-op.
func (b *Base) Exit() {}

// MarshalState serializes the module's metadata-derived state: phase flags,
// weights, window geometry and hotkeys. Modules with domain state override
// this and typically merge their own fields into the same document.
func (b *Base) MarshalState() (json.RawMessage, error) {
	return json.Marshal(basePersist{
		Description: b.meta.Description,
		Category:    b.meta.Category,
		Phases:      b.meta.PhaseStates(),
		Window:      b.meta.Window,
		Hotkeys:     b.meta.Hotkeys,
	})
}

// UnmarshalState restores the metadata-derived state saved by MarshalState.
func (b *Base) UnmarshalState(doc json.RawMessage) error {
	var p basePersist
	if err := json.Unmarshal(doc, &p); err != nil {
		return err
	}
	if p.Description != "" {
		b.meta.Description = p.Description
	}
	if p.Category != "" {
		b.meta.Category = p.Category
	}
	b.meta.ApplyPhaseStates(p.Phases)
	b.meta.Window = p.Window
	if p.Hotkeys != nil {
		b.meta.Hotkeys = p.Hotkeys
	}
	return nil
}

type basePersist struct {
	Description string                `json:"description,omitempty"`
	Category    string                `json:"category,omitempty"`
	Phases      map[string]PhaseState `json:"phases"`
	Window      WindowGeometry        `json:"window"`
	Hotkeys     []HotkeyBinding       `json:"hotkeys,omitempty"`
}
