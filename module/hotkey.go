package module

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
)

// HotkeyBinding declares a hotkey a module responds to. The registry syncs
// bindings into the hotkey manager under a per-handle prefix and routes
// triggers back through Module.OnHotkey with the binding's ID.
type HotkeyBinding struct {
	// ID names the binding within the module (e.g. "toggle-window").
	ID string `json:"id"`

	// Key is the bound key. Character keys use tcell.KeyRune with Rune set.
	Key tcell.Key `json:"key"`

	// Rune is the character for KeyRune bindings.
	Rune rune `json:"rune,omitempty"`

	// Mods are the modifier keys that must be held.
	Mods tcell.ModMask `json:"mods"`

	// CooldownMS is the minimum time between triggers, in milliseconds.
	CooldownMS int64 `json:"cooldownMs"`

	// Bound is false for placeholder bindings awaiting key capture.
	Bound bool `json:"bound"`
}

// NewHotkeyBinding returns a bound binding for the given key.
func NewHotkeyBinding(id string, key tcell.Key, r rune, mods tcell.ModMask) HotkeyBinding {
	return HotkeyBinding{ID: id, Key: key, Rune: r, Mods: mods, Bound: true}
}

// UnboundHotkey returns a placeholder binding with no key attached.
func UnboundHotkey(id string) HotkeyBinding {
	return HotkeyBinding{ID: id}
}

// Cooldown returns the binding's cooldown as a duration.
func (b HotkeyBinding) Cooldown() time.Duration {
	return time.Duration(b.CooldownMS) * time.Millisecond
}

// WithCooldown returns a copy of the binding with the cooldown set.
func (b HotkeyBinding) WithCooldown(d time.Duration) HotkeyBinding {
	b.CooldownMS = d.Milliseconds()
	return b
}

// SameChord reports whether two bindings share the same key and modifiers.
func (b HotkeyBinding) SameChord(other HotkeyBinding) bool {
	return b.Bound && other.Bound &&
		b.Key == other.Key && b.Rune == other.Rune && b.Mods == other.Mods
}

// String renders the binding like "Ctrl+Shift+F5" or "[unbound]".
func (b HotkeyBinding) String() string {
	if !b.Bound {
		return "[unbound]"
	}
	var sb strings.Builder
	if b.Mods&tcell.ModCtrl != 0 {
		sb.WriteString("Ctrl+")
	}
	if b.Mods&tcell.ModShift != 0 {
		sb.WriteString("Shift+")
	}
	if b.Mods&tcell.ModAlt != 0 {
		sb.WriteString("Alt+")
	}
	if b.Mods&tcell.ModMeta != 0 {
		sb.WriteString("Meta+")
	}
	if b.Key == tcell.KeyRune {
		sb.WriteString(string(b.Rune))
	} else if name, ok := tcell.KeyNames[b.Key]; ok {
		sb.WriteString(name)
	} else {
		sb.WriteString(fmt.Sprintf("Key(%d)", b.Key))
	}
	return sb.String()
}
