package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/modkit/modkit/dynload"
	"github.com/modkit/modkit/module"
)

const pluginChunk = `
function create_module()
    return {
        name = "visitor",
        version = "1.0.0",
        api_version = "1.0.0",
        update_enabled = true,
        update_after = {"anchor"},
        count = 0,
        update = function(self)
            self.count = self.count + 1
        end,
        marshal_state = function(self)
            return {count = self.count}
        end,
    }
end
`

func writePlugin(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDynamicLoadUnloadRoundTrip(t *testing.T) {
	path := writePlugin(t, t.TempDir(), "visitor.lua", pluginChunk)
	r := New()

	h, err := r.LoadDynamic(path)
	if err != nil {
		t.Fatalf("LoadDynamic: %v", err)
	}
	if r.Len() != 1 || !r.IsDynamic(h) {
		t.Fatalf("Len = %d, IsDynamic = %v", r.Len(), r.IsDynamic(h))
	}
	if _, ok := r.FindByName("visitor"); !ok {
		t.Fatal("dynamic module not findable by name")
	}

	r.Tick(TickAll())

	if err := r.Unregister(h); !errors.Is(err, ErrDynamicModule) {
		t.Errorf("Unregister on dynamic handle err = %v, want ErrDynamicModule", err)
	}
	if err := r.UnloadDynamic(h); err != nil {
		t.Fatalf("UnloadDynamic: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d after unload", r.Len())
	}

	h2, err := r.LoadDynamic(path)
	if err != nil {
		t.Fatalf("second LoadDynamic: %v", err)
	}
	if h2 == h {
		t.Error("reload must produce a fresh handle")
	}
}

func TestDynamicLoadFailureLeavesRegistryUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := writePlugin(t, dir, "bad.lua", `function create_module() return 42 end`)
	r := New()
	if _, err := r.LoadDynamic(path); !errors.Is(err, dynload.ErrMalformedFactory) {
		t.Fatalf("err = %v, want ErrMalformedFactory", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d after failed load", r.Len())
	}
}

func TestDynamicNamedDependencyResolution(t *testing.T) {
	var trace []string
	r := New()
	anchor := newTestModule("anchor", 1, &trace)
	ha, _ := r.Register(anchor)

	path := writePlugin(t, t.TempDir(), "visitor.lua", pluginChunk)
	h, err := r.LoadDynamic(path)
	if err != nil {
		t.Fatalf("LoadDynamic: %v", err)
	}

	mod, _ := r.Get(h)
	deps := mod.UpdateDependencies()
	if len(deps) != 1 || deps[0] != ha {
		t.Errorf("resolved deps = %v, want [%v]", deps, ha)
	}
}

func TestLoadDynamicDir(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "visitor.lua", pluginChunk)
	writePlugin(t, dir, "broken.lua", `nonsense(`)

	r := New()
	handles, err := r.LoadDynamicDir(dir)
	if len(handles) != 1 {
		t.Fatalf("loaded %d modules, want 1", len(handles))
	}
	if err == nil {
		t.Error("expected the broken chunk's error to be reported")
	}
	if _, ok := r.FindByName("visitor"); !ok {
		t.Error("good module missing after batch load")
	}
}

func TestReloadDynamic(t *testing.T) {
	path := writePlugin(t, t.TempDir(), "visitor.lua", pluginChunk)
	r := New()
	h, err := r.LoadDynamic(path)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := r.ReloadDynamic(h, path)
	if err != nil {
		t.Fatalf("ReloadDynamic: %v", err)
	}
	if h2 == h || h2 == module.NoHandle {
		t.Errorf("reload handle = %v, old = %v", h2, h)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d after reload", r.Len())
	}
}
