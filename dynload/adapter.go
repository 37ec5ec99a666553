package dynload

import (
	"encoding/json"
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/modkit/modkit/module"
)

// UIBinder converts the host's opaque UI context into a Lua value for the
// module's render callbacks. Without one, render callbacks receive nil.
type UIBinder func(ls *lua.LState, ui module.UI) lua.LValue

// Adapter wraps a Lua module record behind the module.Module interface. Every
// callback crosses the boundary protected: a Lua error or a panic inside the
// chunk becomes an error value recorded on the adapter, never a host panic.
//
// The adapter is single-threaded, like the registry that drives it.
type Adapter struct {
	module.Base

	ls   *lua.LState
	self *lua.LTable
	fns  map[string]*lua.LFunction

	depNames []string
	deps     []module.Handle

	bindUI UIBinder
	log    *slog.Logger

	lastErr  error
	errCount uint64
	closed   bool
}

// Callback names looked up on the module record at load time.
var adapterHooks = []string{
	"update", "render_menu", "render_window", "render_draw", "before_render",
	"on_hotkey", "init", "on_load", "post_load_init", "on_unload", "exit",
	"marshal_state", "apply_state",
}

func newAdapter(ls *lua.LState, self *lua.LTable, meta module.Metadata, bindUI UIBinder, log *slog.Logger) *Adapter {
	a := &Adapter{
		Base:     module.NewBase(meta),
		ls:       ls,
		self:     self,
		fns:      make(map[string]*lua.LFunction, len(adapterHooks)),
		depNames: tableStrings(self, "update_after"),
		bindUI:   bindUI,
		log:      log,
	}
	for _, name := range adapterHooks {
		if fn, ok := tableFunc(self, name); ok {
			a.fns[name] = fn
		}
	}
	return a
}

// call invokes one of the record's callbacks with self as the first argument.
// nret is 0 or 1.
func (a *Adapter) call(hook string, nret int, args ...lua.LValue) (ret lua.LValue, err error) {
	if a.closed {
		return lua.LNil, ErrClosed
	}
	fn, ok := a.fns[hook]
	if !ok {
		return lua.LNil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", hook, r)
		}
	}()

	a.ls.Push(fn)
	a.ls.Push(a.self)
	for _, arg := range args {
		a.ls.Push(arg)
	}
	if perr := a.ls.PCall(len(args)+1, nret, nil); perr != nil {
		return lua.LNil, fmt.Errorf("%s: %w", hook, perr)
	}
	if nret == 1 {
		ret = a.ls.Get(-1)
		a.ls.Pop(1)
	}
	return ret, nil
}

// invoke runs a void callback, recording any failure.
func (a *Adapter) invoke(hook string, args ...lua.LValue) {
	if _, err := a.call(hook, 0, args...); err != nil {
		a.fail(err)
	}
}

func (a *Adapter) fail(err error) {
	a.lastErr = err
	a.errCount++
	if a.log != nil {
		a.log.Error("dynamic module callback failed",
			"module", a.Name(), "error", err)
	}
}

// LastError returns the most recent callback failure, or nil.
func (a *Adapter) LastError() error { return a.lastErr }

// ErrorCount returns the number of failed callbacks.
func (a *Adapter) ErrorCount() uint64 { return a.errCount }

func (a *Adapter) uiValue(ui module.UI) lua.LValue {
	if a.bindUI == nil || ui == nil {
		return lua.LNil
	}
	return a.bindUI(a.ls, ui)
}

// DependencyNames lists the module names declared in the record's
// update_after array. The registry resolves them to handles at registration.
func (a *Adapter) DependencyNames() []string {
	return append([]string(nil), a.depNames...)
}

// BindDependencies installs the resolved update-order dependencies.
func (a *Adapter) BindDependencies(deps []module.Handle) {
	a.deps = append([]module.Handle(nil), deps...)
}

// UpdateDependencies returns the handles bound by BindDependencies.
func (a *Adapter) UpdateDependencies() []module.Handle { return a.deps }

// Update forwards to the record's update callback.
func (a *Adapter) Update(module.View) { a.invoke("update") }

// RenderMenu forwards to render_menu.
func (a *Adapter) RenderMenu(ui module.UI) { a.invoke("render_menu", a.uiValue(ui)) }

// RenderWindow forwards to render_window.
func (a *Adapter) RenderWindow(ui module.UI) { a.invoke("render_window", a.uiValue(ui)) }

// RenderDraw forwards to render_draw. Draw layers do not cross the boundary.
func (a *Adapter) RenderDraw(ui module.UI, _, _ module.DrawLayer) {
	a.invoke("render_draw", a.uiValue(ui))
}

// BeforeRender forwards to before_render.
func (a *Adapter) BeforeRender(ui module.UI) { a.invoke("before_render", a.uiValue(ui)) }

// OnHotkey forwards the triggered binding ID to on_hotkey.
func (a *Adapter) OnHotkey(id string) { a.invoke("on_hotkey", lua.LString(id)) }

// Init forwards to init.
func (a *Adapter) Init() { a.invoke("init") }

// OnLoad records the handle and forwards it to on_load as a number.
func (a *Adapter) OnLoad(h module.Handle) {
	a.Base.OnLoad(h)
	a.invoke("on_load", lua.LNumber(h))
}

// PostLoadInit forwards to post_load_init.
func (a *Adapter) PostLoadInit() { a.invoke("post_load_init") }

// OnUnload forwards to on_unload.
func (a *Adapter) OnUnload() { a.invoke("on_unload") }

// Exit forwards to exit.
func (a *Adapter) Exit() { a.invoke("exit") }

// MarshalState calls the record's marshal_state and serializes its returned
// table. Records without one persist their metadata-derived state only.
func (a *Adapter) MarshalState() (json.RawMessage, error) {
	if _, ok := a.fns["marshal_state"]; !ok {
		return a.Base.MarshalState()
	}
	ret, err := a.call("marshal_state", 1)
	if err != nil {
		a.fail(err)
		return nil, err
	}
	return json.Marshal(toGo(ret))
}

// UnmarshalState decodes the persisted document and passes it to apply_state
// as a table. Records without one restore metadata-derived state only.
func (a *Adapter) UnmarshalState(doc json.RawMessage) error {
	if _, ok := a.fns["apply_state"]; !ok {
		return a.Base.UnmarshalState(doc)
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return err
	}
	if _, err := a.call("apply_state", 0, toLua(a.ls, v)); err != nil {
		a.fail(err)
		return err
	}
	return nil
}

// release drops the callback references. The adapter refuses all calls
// afterwards; only Library.Close may invoke it.
func (a *Adapter) release() {
	a.fns = nil
	a.closed = true
}
