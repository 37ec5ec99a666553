package hotkey

import (
	"strings"

	"github.com/modkit/modkit/module"
)

// FullID builds the manager-wide ID for one module binding. Bindings are
// namespaced by handle so two modules can reuse the same local binding ID.
func FullID(h module.Handle, bindingID string) string {
	return h.String() + "::" + bindingID
}

// SplitFullID recovers the local binding ID from a manager-wide ID.
func SplitFullID(fullID string) (prefix, bindingID string, ok bool) {
	i := strings.Index(fullID, "::")
	if i < 0 {
		return "", "", false
	}
	return fullID[:i], fullID[i+2:], true
}

// SyncBindings replaces every registered hotkey belonging to the given
// handle with the handle's current bindings. Unbound placeholders are
// skipped.
func (m *Manager) SyncBindings(h module.Handle, bindings []module.HotkeyBinding) {
	prefix := h.String() + "::"
	var stale []string
	for _, id := range m.order {
		if strings.HasPrefix(id, prefix) {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		m.Unregister(id)
	}

	for _, b := range bindings {
		if !b.Bound {
			continue
		}
		m.Register(FullID(h, b.ID), ChordOf(b), b.Cooldown())
	}
}
