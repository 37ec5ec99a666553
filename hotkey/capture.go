package hotkey

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// BeginCapture puts the manager in capture mode for the given binding ID.
// The next key event observed is written into the binding. Beginning a
// capture for the ID already being captured cancels it (toggle semantics).
func (m *Manager) BeginCapture(id string) {
	if m.capture == id {
		m.capture = ""
		return
	}
	m.capture = id
}

// CancelCapture leaves capture mode without rebinding anything.
func (m *Manager) CancelCapture() {
	m.capture = ""
}

// Capturing returns the binding ID currently being captured.
func (m *Manager) Capturing() (string, bool) {
	return m.capture, m.capture != ""
}

// ObserveKey feeds a key event to the capture state machine. When capturing,
// Escape cancels; any other key rebinds the captured binding to the event's
// chord and returns it along with the binding's ID. Events observed outside
// capture mode are ignored.
func (m *Manager) ObserveKey(ev *tcell.EventKey) (Chord, string, bool) {
	if m.capture == "" || ev == nil {
		return Chord{}, "", false
	}
	if ev.Key() == tcell.KeyEscape {
		m.capture = ""
		return Chord{}, "", false
	}

	chord := Chord{Key: ev.Key(), Mods: ev.Modifiers()}
	if ev.Key() == tcell.KeyRune {
		chord.Rune = ev.Rune()
	}

	id := m.capture
	m.capture = ""
	if b, ok := m.bindings[id]; ok {
		b.chord = chord
		b.wasPressed = false
		b.lastTrigger = time.Time{}
	}
	return chord, id, true
}
