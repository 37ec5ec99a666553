package module

import "encoding/json"

// UI is the host-supplied render/input context. The runtime forwards it to
// module callbacks without inspecting it; the host and its modules agree on
// the concrete type.
type UI any

// DrawLayer is a host-supplied draw list. RenderDraw receives one foreground
// and one background layer.
type DrawLayer any

// View is the read-scoped registry facade handed to Update. It lets a module
// query siblings and request brokered access without being able to mutate
// the registry's structure mid-frame.
type View interface {
	// Lookup resolves a module name to its handle.
	Lookup(name string) (Handle, bool)

	// Meta returns a copy of the metadata for the given handle.
	Meta(h Handle) (Metadata, bool)

	// Handles returns all registered handles in insertion order.
	Handles() []Handle

	// WithRead runs fn with shared access to the target module, subject to
	// the target's access policy. It returns false, without running fn, when
	// access is denied, the target is unknown, or requester == target.
	WithRead(requester, target Handle, fn func(Module)) bool

	// WithWrite is WithRead with exclusive, mutating access.
	WithWrite(requester, target Handle, fn func(Module)) bool

	// InitData returns the host-provided init payload stored under key.
	InitData(key string) (any, bool)
}

// Module is the capability set every module implements, built-in or
// dynamically loaded. Embed Base for no-op defaults.
//
// A module must not request access to itself through the View during its own
// callbacks; the broker refuses such requests rather than deadlocking.
type Module interface {
	// Name returns the module's stable name, unique within a registry.
	Name() string

	// Meta exposes the module's mutable metadata.
	Meta() *Metadata

	// Update advances the module one frame. view grants read access to the
	// rest of the registry.
	Update(view View)

	// RenderMenu draws the module's menu entry.
	RenderMenu(ui UI)

	// RenderWindow draws the module's standalone window.
	RenderWindow(ui UI)

	// RenderDraw draws into the host's foreground and background layers.
	RenderDraw(ui UI, fg, bg DrawLayer)

	// BeforeRender runs once per frame before any render phase.
	BeforeRender(ui UI)

	// UpdateDependencies lists handles this module must be updated after.
	UpdateDependencies() []Handle

	// HotkeyBindings returns the module's declared hotkeys.
	HotkeyBindings() []HotkeyBinding

	// OnHotkey is called when one of the module's bindings triggers.
	OnHotkey(id string)

	// Init runs once when the registry initializes all modules.
	Init()

	// OnLoad runs at registration time with the newly issued handle.
	OnLoad(h Handle)

	// PostLoadInit runs after every module's OnLoad has completed.
	PostLoadInit()

	// OnUnload runs before the module is removed from the registry.
	OnUnload()

	// Exit runs at host shutdown.
	Exit()

	// MarshalState serializes the module's persistent state as a JSON
	// document.
	MarshalState() (json.RawMessage, error)
}

// Stateful is implemented by modules that can restore persisted state. A
// failed restore is isolated: the registry logs it and leaves the module in
// its default state.
type Stateful interface {
	UnmarshalState(doc json.RawMessage) error
}
