package dynload

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	lua "github.com/yuin/gopher-lua"

	"github.com/modkit/modkit/module"
)

// keyByName is the reverse of tcell.KeyNames, with lowercase keys so module
// authors can write "f5" or "F5" interchangeably.
var keyByName = func() map[string]tcell.Key {
	m := make(map[string]tcell.Key, len(tcell.KeyNames))
	for k, name := range tcell.KeyNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

var modByName = map[string]tcell.ModMask{
	"ctrl":  tcell.ModCtrl,
	"shift": tcell.ModShift,
	"alt":   tcell.ModAlt,
	"meta":  tcell.ModMeta,
}

// parseKey resolves a key spec from a module record. Single characters bind
// as rune keys, anything else must be a tcell key name.
func parseKey(spec string) (tcell.Key, rune, error) {
	if len([]rune(spec)) == 1 {
		return tcell.KeyRune, []rune(spec)[0], nil
	}
	if k, ok := keyByName[strings.ToLower(spec)]; ok {
		return k, 0, nil
	}
	return 0, 0, fmt.Errorf("unknown key %q", spec)
}

func parseMods(names []string) (tcell.ModMask, error) {
	var mods tcell.ModMask
	for _, n := range names {
		m, ok := modByName[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown modifier %q", n)
		}
		mods |= m
	}
	return mods, nil
}

// parseHotkeys extracts hotkey bindings from the record's hotkeys array:
//
//	hotkeys = { {id = "boost", key = "F5", mods = {"ctrl"}, cooldown_ms = 200} }
//
// Entries without a key become unbound placeholders awaiting capture.
func parseHotkeys(t *lua.LTable) ([]module.HotkeyBinding, error) {
	var bindings []module.HotkeyBinding
	var parseErr error
	t.ForEach(func(_, v lua.LValue) {
		if parseErr != nil {
			return
		}
		entry, ok := v.(*lua.LTable)
		if !ok {
			parseErr = fmt.Errorf("hotkey entry is not a table")
			return
		}
		id, ok := tableString(entry, "id")
		if !ok || id == "" {
			parseErr = fmt.Errorf("hotkey entry missing id")
			return
		}

		b := module.UnboundHotkey(id)
		if spec, ok := tableString(entry, "key"); ok {
			key, r, err := parseKey(spec)
			if err != nil {
				parseErr = fmt.Errorf("hotkey %q: %w", id, err)
				return
			}
			mods, err := parseMods(tableStrings(entry, "mods"))
			if err != nil {
				parseErr = fmt.Errorf("hotkey %q: %w", id, err)
				return
			}
			b = module.NewHotkeyBinding(id, key, r, mods)
		}
		if cd, ok := tableNumber(entry, "cooldown_ms"); ok {
			b.CooldownMS = int64(cd)
		}
		bindings = append(bindings, b)
	})
	return bindings, parseErr
}
