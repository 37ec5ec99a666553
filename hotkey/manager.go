package hotkey

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/modkit/modkit/module"
)

// Chord is a key plus the modifiers that must be held with it. Character
// keys use tcell.KeyRune with Rune set. Extra modifiers beyond Mods do not
// prevent a match.
type Chord struct {
	Key  tcell.Key
	Rune rune
	Mods tcell.ModMask
}

// ChordOf extracts the chord from a bound module binding.
func ChordOf(b module.HotkeyBinding) Chord {
	return Chord{Key: b.Key, Rune: b.Rune, Mods: b.Mods}
}

// Pressed reports whether the chord is currently held according to in.
func (c Chord) Pressed(in InputState) bool {
	return in.IsPressed(c.Key, c.Rune) && in.Modifiers()&c.Mods == c.Mods
}

// InputState supplies the manager with the host's keyboard state for the
// current frame.
type InputState interface {
	// IsPressed reports whether the given key is down. r is consulted only
	// for tcell.KeyRune.
	IsPressed(key tcell.Key, r rune) bool

	// Modifiers returns the modifier keys currently held.
	Modifiers() tcell.ModMask
}

// binding is the runtime state for one registered hotkey.
type binding struct {
	chord       Chord
	cooldown    time.Duration
	lastTrigger time.Time // zero means never triggered
	wasPressed  bool
}

func (b *binding) canTrigger(now time.Time) bool {
	return b.lastTrigger.IsZero() || now.Sub(b.lastTrigger) >= b.cooldown
}

// Manager tracks registered hotkeys, their cooldowns and edge state, plus an
// optional capture target for rebinding.
type Manager struct {
	bindings map[string]*binding
	order    []string // registration order, drives PollAll determinism
	capture  string   // binding ID being captured; empty when idle
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the manager's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an empty hotkey manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		bindings: make(map[string]*binding),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds or replaces a hotkey under the given ID.
func (m *Manager) Register(id string, chord Chord, cooldown time.Duration) {
	if _, exists := m.bindings[id]; !exists {
		m.order = append(m.order, id)
	}
	m.bindings[id] = &binding{chord: chord, cooldown: cooldown}
}

// Unregister removes a hotkey. It reports whether the ID was registered.
func (m *Manager) Unregister(id string) bool {
	if _, ok := m.bindings[id]; !ok {
		return false
	}
	delete(m.bindings, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.capture == id {
		m.capture = ""
	}
	return true
}

// Len returns the number of registered hotkeys.
func (m *Manager) Len() int {
	return len(m.bindings)
}

// IDs returns the registered hotkey IDs in registration order.
func (m *Manager) IDs() []string {
	return append([]string(nil), m.order...)
}

// IsTriggered reports whether the binding fired this frame: the chord went
// from released to pressed and the cooldown has elapsed. Calling it advances
// the binding's edge state, so call it once per binding per frame.
func (m *Manager) IsTriggered(id string, in InputState) bool {
	b, ok := m.bindings[id]
	if !ok {
		return false
	}
	pressed := b.chord.Pressed(in)
	triggered := pressed && !b.wasPressed && b.canTrigger(m.now())
	if triggered {
		b.lastTrigger = m.now()
	}
	b.wasPressed = pressed
	return triggered
}

// IsHeld reports whether the binding's chord is currently held, ignoring
// edge state and cooldown.
func (m *Manager) IsHeld(id string, in InputState) bool {
	b, ok := m.bindings[id]
	if !ok {
		return false
	}
	return b.chord.Pressed(in)
}

// PollAll advances every binding and returns the IDs that triggered this
// frame, in registration order.
func (m *Manager) PollAll(in InputState) []string {
	var triggered []string
	for _, id := range m.order {
		if m.IsTriggered(id, in) {
			triggered = append(triggered, id)
		}
	}
	return triggered
}

// ResetCooldown clears the binding's last-trigger timestamp so the next edge
// fires regardless of cooldown.
func (m *Manager) ResetCooldown(id string) {
	if b, ok := m.bindings[id]; ok {
		b.lastTrigger = time.Time{}
	}
}

// SetCooldown changes the binding's cooldown.
func (m *Manager) SetCooldown(id string, d time.Duration) {
	if b, ok := m.bindings[id]; ok {
		b.cooldown = d
	}
}

// CooldownRemaining returns how long until the binding may trigger again.
// It returns zero when the binding is ready and ok=false for unknown IDs.
func (m *Manager) CooldownRemaining(id string) (time.Duration, bool) {
	b, ok := m.bindings[id]
	if !ok {
		return 0, false
	}
	if b.lastTrigger.IsZero() {
		return 0, true
	}
	elapsed := m.now().Sub(b.lastTrigger)
	if elapsed >= b.cooldown {
		return 0, true
	}
	return b.cooldown - elapsed, true
}

// FindConflict returns the ID of a registered binding sharing the given
// chord, if any.
func (m *Manager) FindConflict(chord Chord) (string, bool) {
	for _, id := range m.order {
		if m.bindings[id].chord == chord {
			return id, true
		}
	}
	return "", false
}

// GenerateID returns "<prefix>_<n>" for the smallest n not already used by
// the given bindings.
func GenerateID(existing []module.HotkeyBinding, prefix string) string {
	for counter := 0; ; counter++ {
		id := fmt.Sprintf("%s_%d", prefix, counter)
		used := false
		for _, b := range existing {
			if b.ID == id {
				used = true
				break
			}
		}
		if !used {
			return id
		}
	}
}
