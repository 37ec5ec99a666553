package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/modkit/modkit/module"
)

// Persistence merges every module's own JSON document into one file, keyed by
// module name, alongside host-level extra keys. Top-level keys that belong to
// no registered module survive a load/save round trip byte-for-byte, so a
// file written by a build with more modules is not stripped by a build with
// fewer.

// escapePath escapes a module name for use as an sjson/gjson path component.
func escapePath(name string) string {
	name = strings.ReplaceAll(name, ".", `\.`)
	return strings.ReplaceAll(name, "*", `\*`)
}

// SaveToFile writes the merged document: preserved unknown keys, then the
// host's extra keys, then one document per module in insertion order. A
// module that fails to serialize is logged and skipped; the save continues.
func (r *Registry) SaveToFile(path string, extra map[string]json.RawMessage) error {
	doc := []byte("{}")
	var err error

	for _, key := range sortedKeys(r.extra) {
		if doc, err = sjson.SetRawBytes(doc, escapePath(key), r.extra[key]); err != nil {
			return fmt.Errorf("emit preserved key %q: %w", key, err)
		}
	}
	for _, key := range sortedKeys(extra) {
		if doc, err = sjson.SetRawBytes(doc, escapePath(key), extra[key]); err != nil {
			return fmt.Errorf("emit extra key %q: %w", key, err)
		}
	}

	for _, h := range r.order {
		mod := r.cells[h].mod
		state, serr := mod.MarshalState()
		if serr != nil {
			r.log.Error("module state serialization failed, skipping",
				"module", mod.Name(), "error", serr)
			continue
		}
		if doc, err = sjson.SetRawBytes(doc, escapePath(mod.Name()), state); err != nil {
			return fmt.Errorf("emit module %q: %w", mod.Name(), err)
		}
	}

	return os.WriteFile(path, pretty.Pretty(doc), 0o644)
}

// LoadFromFile applies a saved document. Keys naming a registered module
// restore that module's state; keys naming a factory materialize and register
// the module first; everything else is preserved for the next save. A
// per-module decode failure logs and leaves that module at its defaults
// without aborting the load.
func (r *Registry) LoadFromFile(path string, factories map[string]Factory) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read saved state: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("saved state %s is not valid JSON", path)
	}

	var walkErr error
	gjson.ParseBytes(data).ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		raw := json.RawMessage(v.Raw)

		if h, ok := r.names[name]; ok {
			r.applyState(h, raw)
			return true
		}
		if f, ok := factories[name]; ok {
			h, rerr := r.Register(f())
			if rerr != nil {
				walkErr = fmt.Errorf("materialize %q: %w", name, rerr)
				return false
			}
			r.applyState(h, raw)
			return true
		}
		r.extra[name] = raw
		return true
	})
	return walkErr
}

// applyState hands a persisted document to the module if it can restore
// state. Failures are isolated: log and keep defaults.
func (r *Registry) applyState(h module.Handle, doc json.RawMessage) {
	c := r.cells[h]
	s, ok := c.mod.(module.Stateful)
	if !ok {
		return
	}
	c.lockExclusive()
	err := s.UnmarshalState(doc)
	c.unlockExclusive()
	if err != nil {
		r.log.Warn("module state restore failed, keeping defaults",
			"module", c.mod.Name(), "error", err)
		return
	}
	r.hotkeys.SyncBindings(h, c.mod.HotkeyBindings())
	r.menuDirty = true
}

// ExtraKeys returns the preserved top-level keys from the last load.
func (r *Registry) ExtraKeys() []string {
	return sortedKeys(r.extra)
}

// Extra returns the preserved raw document under key.
func (r *Registry) Extra(key string) (json.RawMessage, bool) {
	v, ok := r.extra[key]
	return v, ok
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
