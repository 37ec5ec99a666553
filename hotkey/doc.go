// Package hotkey detects key-down edges with per-binding cooldowns.
//
// Each registered binding is a chord (key + required modifiers) with a
// cooldown and an identifier. A binding triggers exactly once on the frame
// its key transitions from released to pressed, provided the cooldown has
// elapsed; it re-arms as soon as the key is released, independent of the
// cooldown. A capture sub-mode lets a host UI rebind a key by observing the
// next key event.
//
// The manager polls keyboard state through the InputState interface, so the
// host can back it with tcell events, another input layer, or a test fake.
package hotkey
