package registry

import "github.com/modkit/modkit/hotkey"

// Hotkeys returns the registry's hotkey manager for direct host use
// (capture mode, cooldown tweaks).
func (r *Registry) Hotkeys() *hotkey.Manager {
	return r.hotkeys
}

// SyncHotkeys re-syncs every module's declared bindings into the manager.
// Call after a module mutates its bindings at runtime; registration and
// unload sync automatically.
func (r *Registry) SyncHotkeys() {
	for _, h := range r.order {
		r.hotkeys.SyncBindings(h, r.cells[h].mod.HotkeyBindings())
	}
}

// DispatchHotkeys polls every binding against the frame's input state and
// routes each trigger to its owning module's OnHotkey with the local binding
// ID. Returns the number of triggers delivered.
func (r *Registry) DispatchHotkeys(in hotkey.InputState) int {
	delivered := 0
	for _, fullID := range r.hotkeys.PollAll(in) {
		prefix, bindingID, ok := hotkey.SplitFullID(fullID)
		if !ok {
			continue
		}
		h, ok := parseHandle(prefix)
		if !ok {
			continue
		}
		c, ok := r.cells[h]
		if !ok {
			continue
		}
		c.lockExclusive()
		c.mod.OnHotkey(bindingID)
		c.unlockExclusive()
		delivered++
	}
	return delivered
}
