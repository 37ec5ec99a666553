package registry

import "github.com/modkit/modkit/module"

// Event is a deferred registry command. Modules and the host emit events
// during a frame; the registry applies them between frames so structural
// mutation never happens while a phase is iterating.
type Event interface {
	event()
}

// OpenWindow enables the window phase for a module.
type OpenWindow struct{ Handle module.Handle }

// CloseWindow disables the window phase for a module.
type CloseWindow struct{ Handle module.Handle }

// UndockGroup detaches a draw group: its members stop drawing in the shared
// layers and render their own windows instead.
type UndockGroup struct{ Path string }

// RedockGroup re-attaches a previously undocked draw group.
type RedockGroup struct{ Path string }

// RebuildMenu invalidates the menu cache.
type RebuildMenu struct{}

// DirtySync re-arms a scripted sync definition by ID.
type DirtySync struct{ ID string }

func (OpenWindow) event()  {}
func (CloseWindow) event() {}
func (UndockGroup) event() {}
func (RedockGroup) event() {}
func (RebuildMenu) event() {}
func (DirtySync) event()   {}

// Emit appends an event to the queue. Safe to call from module callbacks and
// from event application itself; reentrant emissions land in the next batch.
func (r *Registry) Emit(e Event) {
	r.events = append(r.events, e)
}

// ProcessEvents swaps the queue with an empty one and applies the captured
// batch in order. Events emitted during application go to the fresh queue and
// wait for the next call. Returns the number of events applied.
func (r *Registry) ProcessEvents() int {
	batch := r.events
	r.events = nil
	for _, e := range batch {
		r.apply(e)
	}
	return len(batch)
}

// PendingEvents returns the number of queued events.
func (r *Registry) PendingEvents() int {
	return len(r.events)
}

func (r *Registry) apply(e Event) {
	switch ev := e.(type) {
	case OpenWindow:
		if c, ok := r.cells[ev.Handle]; ok {
			c.mod.Meta().SetEnabled(module.PhaseWindow, true)
		}
	case CloseWindow:
		if c, ok := r.cells[ev.Handle]; ok {
			c.mod.Meta().SetEnabled(module.PhaseWindow, false)
		}
	case UndockGroup:
		r.undocked[ev.Path] = true
	case RedockGroup:
		delete(r.undocked, ev.Path)
	case RebuildMenu:
		r.menuDirty = true
	case DirtySync:
		if r.syncNotify != nil {
			r.syncNotify(ev.ID)
		}
	default:
		r.log.Warn("unknown event dropped", "event", e)
	}
}

// GroupUndocked reports whether a draw group path is currently undocked.
func (r *Registry) GroupUndocked(path string) bool {
	return r.undocked[path]
}
