package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/modkit/modkit/dynload"
	"github.com/modkit/modkit/hotkey"
	"github.com/modkit/modkit/module"
	"github.com/modkit/modkit/tracker"
)

// Factory builds a fresh module instance in its default state. Used to reset
// modules and to materialize modules named in a persisted file.
type Factory func() module.Module

// Registry owns every module, built-in and dynamically loaded, and drives
// their per-frame phases. It is strictly single-threaded: the host calls one
// phase entry point at a time and no callback may suspend.
type Registry struct {
	cells      map[module.Handle]*cell
	order      []module.Handle // insertion order, drives tie-breaks
	names      map[string]module.Handle
	nextHandle uint64

	events []Event

	hotkeys *hotkey.Manager
	tracker *tracker.GlobalTracker

	libs     map[module.Handle]*dynload.Library
	loadOpts []dynload.Option

	initData map[string]any

	menuGroups []MenuGroup
	menuDirty  bool

	undocked map[string]bool

	overrides map[module.Handle]module.AccessLevel
	emergency bool

	// extra holds top-level document keys that belong to no registered
	// module; they are re-emitted verbatim on the next save.
	extra map[string]json.RawMessage

	syncNotify func(id string)

	log *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry's logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithHotkeyManager supplies the hotkey manager, e.g. one with a test clock.
func WithHotkeyManager(m *hotkey.Manager) Option {
	return func(r *Registry) { r.hotkeys = m }
}

// WithLoadOptions sets the options passed through to dynamic module loads.
func WithLoadOptions(opts ...dynload.Option) Option {
	return func(r *Registry) { r.loadOpts = opts }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		cells:     make(map[module.Handle]*cell),
		names:     make(map[string]module.Handle),
		libs:      make(map[module.Handle]*dynload.Library),
		initData:  make(map[string]any),
		undocked:  make(map[string]bool),
		overrides: make(map[module.Handle]module.AccessLevel),
		extra:     make(map[string]json.RawMessage),
		menuDirty: true,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.hotkeys == nil {
		r.hotkeys = hotkey.NewManager()
	}
	return r
}

// namedDependencies is implemented by adapters that declare update
// dependencies by module name rather than by handle.
type namedDependencies interface {
	DependencyNames() []string
	BindDependencies([]module.Handle)
}

// Register adds a built-in module, issues its handle and runs OnLoad. A name
// collision or a declared dependency cycle rejects the module and leaves the
// registry unchanged.
func (r *Registry) Register(m module.Module) (module.Handle, error) {
	name := m.Name()
	if _, taken := r.names[name]; taken {
		return module.NoHandle, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	r.nextHandle++
	h := module.Handle(r.nextHandle)
	r.cells[h] = &cell{mod: m}
	r.order = append(r.order, h)
	r.names[name] = h

	if nd, ok := m.(namedDependencies); ok {
		nd.BindDependencies(r.resolveNames(nd.DependencyNames()))
	}

	if cycle := r.findCycle(); cycle != module.NoHandle {
		delete(r.cells, h)
		delete(r.names, name)
		r.order = r.order[:len(r.order)-1]
		r.nextHandle--
		return module.NoHandle, fmt.Errorf("%w: introduced by %s", ErrDependencyCycle, name)
	}

	if r.tracker != nil {
		r.tracker.RegisterModule(h, name)
	}
	m.OnLoad(h)
	r.hotkeys.SyncBindings(h, m.HotkeyBindings())
	r.menuDirty = true
	r.log.Debug("module registered", "module", name, "handle", h)
	return h, nil
}

// Unregister removes a built-in module after running its OnUnload hook.
func (r *Registry) Unregister(h module.Handle) error {
	c, ok := r.cells[h]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	if _, dynamic := r.libs[h]; dynamic {
		return fmt.Errorf("%w: %s", ErrDynamicModule, c.mod.Name())
	}

	c.lockExclusive()
	c.mod.OnUnload()
	c.unlockExclusive()
	r.detach(h)
	return nil
}

// detach removes a handle from every registry structure without touching the
// module's hooks.
func (r *Registry) detach(h module.Handle) {
	c := r.cells[h]
	delete(r.cells, h)
	delete(r.names, c.mod.Name())
	for i, o := range r.order {
		if o == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	delete(r.overrides, h)
	if r.tracker != nil {
		r.tracker.UnregisterModule(h)
	}
	r.hotkeys.SyncBindings(h, nil)
	r.menuDirty = true
	r.log.Debug("module detached", "handle", h)
}

// Get returns the module behind a handle. Host-side use only; modules reach
// each other through the access broker instead.
func (r *Registry) Get(h module.Handle) (module.Module, bool) {
	c, ok := r.cells[h]
	if !ok {
		return nil, false
	}
	return c.mod, true
}

// FindByName returns the module registered under name.
func (r *Registry) FindByName(name string) (module.Module, bool) {
	h, ok := r.names[name]
	if !ok {
		return nil, false
	}
	return r.cells[h].mod, true
}

// Lookup resolves a module name to its handle.
func (r *Registry) Lookup(name string) (module.Handle, bool) {
	h, ok := r.names[name]
	return h, ok
}

// Meta returns a copy of the metadata for a handle.
func (r *Registry) Meta(h module.Handle) (module.Metadata, bool) {
	c, ok := r.cells[h]
	if !ok {
		return module.Metadata{}, false
	}
	return c.mod.Meta().Clone(), true
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.cells)
}

// Handles returns all handles in insertion order.
func (r *Registry) Handles() []module.Handle {
	return append([]module.Handle(nil), r.order...)
}

// resolveNames maps module names to handles, skipping names not yet
// registered.
func (r *Registry) resolveNames(names []string) []module.Handle {
	var out []module.Handle
	for _, n := range names {
		if h, ok := r.names[n]; ok {
			out = append(out, h)
		}
	}
	return out
}

// AttachTracker installs a lifecycle tracker and backfills it with the
// already-registered modules.
func (r *Registry) AttachTracker(t *tracker.GlobalTracker) {
	r.tracker = t
	if t == nil {
		return
	}
	for _, h := range r.order {
		if _, ok := t.Module(h); !ok {
			t.RegisterModule(h, r.cells[h].mod.Name())
		}
	}
}

// Tracker returns the attached lifecycle tracker, or nil.
func (r *Registry) Tracker() *tracker.GlobalTracker {
	return r.tracker
}

// tracked returns the tracked state for a handle when tracking is enabled.
func (r *Registry) tracked(h module.Handle) *tracker.TrackedModule {
	if r.tracker == nil || !r.tracker.Enabled() {
		return nil
	}
	tm, ok := r.tracker.Module(h)
	if !ok {
		return nil
	}
	return tm
}

// InitAll runs every module's Init in insertion order, then a PostLoadInit
// pass once all have initialized.
func (r *Registry) InitAll() {
	for _, h := range r.order {
		c := r.cells[h]
		tm := r.tracked(h)
		if tm != nil {
			tm.BeginInit()
		}
		c.lockExclusive()
		c.mod.Init()
		c.unlockExclusive()
		if tm != nil {
			tm.EndInit()
		}
	}
	for _, h := range r.order {
		c := r.cells[h]
		c.lockExclusive()
		c.mod.PostLoadInit()
		c.unlockExclusive()
	}
}

// ExitAll runs every module's Exit hook in insertion order.
func (r *Registry) ExitAll() {
	for _, h := range r.order {
		c := r.cells[h]
		c.lockExclusive()
		c.mod.Exit()
		c.unlockExclusive()
	}
}

// UnloadAll unloads every module in reverse insertion order. Dynamic modules
// close their owning library after the unload hook.
func (r *Registry) UnloadAll() {
	for i := len(r.order) - 1; i >= 0; i-- {
		h := r.order[i]
		if _, dynamic := r.libs[h]; dynamic {
			if err := r.UnloadDynamic(h); err != nil {
				r.log.Error("unload failed", "handle", h, "error", err)
			}
			continue
		}
		if err := r.Unregister(h); err != nil {
			r.log.Error("unregister failed", "handle", h, "error", err)
		}
	}
}

// ResetModule replaces a module instance with a fresh one from factory,
// keeping the handle. The old instance's OnUnload runs first.
func (r *Registry) ResetModule(h module.Handle, factory Factory) error {
	c, ok := r.cells[h]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	if _, dynamic := r.libs[h]; dynamic {
		return fmt.Errorf("%w: %s", ErrDynamicModule, c.mod.Name())
	}

	oldName := c.mod.Name()
	fresh := factory()
	if fresh.Name() != oldName {
		return fmt.Errorf("%w: factory built %q, cell holds %q",
			ErrDuplicateName, fresh.Name(), oldName)
	}

	c.lockExclusive()
	c.mod.OnUnload()
	c.mod = fresh
	c.unlockExclusive()
	fresh.OnLoad(h)

	if r.tracker != nil {
		r.tracker.ResetModule(h)
	}
	r.hotkeys.SyncBindings(h, fresh.HotkeyBindings())
	r.menuDirty = true
	return nil
}

// ResetAll resets every module that has a factory, keyed by module name.
func (r *Registry) ResetAll(factories map[string]Factory) {
	for _, h := range append([]module.Handle(nil), r.order...) {
		name := r.cells[h].mod.Name()
		f, ok := factories[name]
		if !ok {
			continue
		}
		if err := r.ResetModule(h, f); err != nil {
			r.log.Error("reset failed", "module", name, "error", err)
		}
	}
}

// SetInitData stores a host payload modules can read during Init or Update.
func (r *Registry) SetInitData(key string, value any) {
	r.initData[key] = value
}

// InitData returns the host payload stored under key.
func (r *Registry) InitData(key string) (any, bool) {
	v, ok := r.initData[key]
	return v, ok
}

// ClearInitData removes a stored payload.
func (r *Registry) ClearInitData(key string) {
	delete(r.initData, key)
}

// SetSyncNotifier installs the callback invoked when a DirtySync event is
// processed. The sync engine registers itself here.
func (r *Registry) SetSyncNotifier(fn func(id string)) {
	r.syncNotify = fn
}

// parseHandle recovers a handle from its "module#N" string form.
func parseHandle(s string) (module.Handle, bool) {
	rest, ok := strings.CutPrefix(s, "module#")
	if !ok {
		return module.NoHandle, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || n == 0 {
		return module.NoHandle, false
	}
	return module.Handle(n), true
}
