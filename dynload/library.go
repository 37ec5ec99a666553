package dynload

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/modkit/modkit/module"
)

// Host API identity. A module record declares the api_name/api_version pair
// it was written against; the loader rejects records whose name differs or
// whose major version differs from the host's.
const (
	HostAPIName    = "modkit"
	HostAPIVersion = "1.0.0"
)

// Library owns one loaded dynamic module: the Lua state the chunk runs in and
// the adapter presenting it to the registry. Close is the only teardown path
// and runs in a fixed order: the module's unload hook first, then the
// adapter's callback references, then the Lua state itself.
type Library struct {
	path    string
	name    string
	version string

	ls      *lua.LState
	adapter *Adapter
	closed  bool
}

// Option configures loading.
type Option func(*loadConfig)

type loadConfig struct {
	apiName    string
	apiVersion string
	bindUI     UIBinder
	log        *slog.Logger
}

// WithHostAPI overrides the host API identity modules are checked against.
func WithHostAPI(name, version string) Option {
	return func(c *loadConfig) {
		c.apiName = name
		c.apiVersion = version
	}
}

// WithUIBinder installs the converter for UI contexts crossing into render
// callbacks.
func WithUIBinder(b UIBinder) Option {
	return func(c *loadConfig) { c.bindUI = b }
}

// WithLogger sets the logger for callback failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *loadConfig) { c.log = log }
}

// Open loads a single-file dynamic module, runs its chunk, calls the
// create_module factory and wraps the returned record in an adapter. On any
// error the Lua state is torn down and nothing leaks.
func Open(path string, opts ...Option) (*Library, error) {
	cfg := loadConfig{apiName: HostAPIName, apiVersion: HostAPIVersion}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	ls := lua.NewState()
	lib, err := open(ls, path, cfg)
	if err != nil {
		ls.Close()
		return nil, err
	}
	return lib, nil
}

func open(ls *lua.LState, path string, cfg loadConfig) (*Library, error) {
	if err := ls.DoFile(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	factory, ok := ls.GetGlobal("create_module").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, path)
	}

	record, err := callFactory(ls, factory)
	if err != nil {
		return nil, err
	}

	name, ok := tableString(record, "name")
	if !ok || !namePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: missing or invalid name", ErrMalformedFactory)
	}
	version, ok := tableString(record, "version")
	if !ok || !semverPattern.MatchString(version) {
		return nil, fmt.Errorf("%w: %s has no valid version", ErrMalformedFactory, name)
	}

	if err := checkAPI(record, cfg, name); err != nil {
		return nil, err
	}

	meta, err := recordMetadata(record, name)
	if err != nil {
		return nil, err
	}

	return &Library{
		path:    path,
		name:    name,
		version: version,
		ls:      ls,
		adapter: newAdapter(ls, record, meta, cfg.bindUI, cfg.log),
	}, nil
}

// callFactory runs create_module protected. A panic or Lua error inside the
// factory is a load failure, not a host crash.
func callFactory(ls *lua.LState, factory *lua.LFunction) (record *lua.LTable, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: factory panicked: %v", ErrLoadFailed, r)
		}
	}()

	ls.Push(factory)
	if perr := ls.PCall(0, 1, nil); perr != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, perr)
	}
	ret := ls.Get(-1)
	ls.Pop(1)

	record, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: factory returned %s", ErrMalformedFactory, ret.Type())
	}
	return record, nil
}

// checkAPI gates the record's declared host API against ours: the name must
// match exactly and the major versions must agree. Minor and patch drift is
// accepted.
func checkAPI(record *lua.LTable, cfg loadConfig, name string) error {
	apiName, _ := tableString(record, "api_name")
	if apiName == "" {
		apiName = cfg.apiName
	}
	apiVersion, ok := tableString(record, "api_version")
	if !ok {
		return fmt.Errorf("%w: %s declares no api_version", ErrMalformedFactory, name)
	}
	if apiName != cfg.apiName || !sameMajor(apiVersion, cfg.apiVersion) {
		return fmt.Errorf("%w: %s targets %s-%s, host is %s-%s",
			ErrVersionMismatch, name, apiName, apiVersion, cfg.apiName, cfg.apiVersion)
	}
	return nil
}

func sameMajor(a, b string) bool {
	return majorOf(a) >= 0 && majorOf(a) == majorOf(b)
}

func majorOf(v string) int {
	head, _, ok := strings.Cut(v, ".")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(head)
	if err != nil {
		return -1
	}
	return n
}

// recordMetadata builds module metadata from the record's declarative fields.
func recordMetadata(record *lua.LTable, name string) (module.Metadata, error) {
	meta := module.NewMetadata(name)
	if s, ok := tableString(record, "description"); ok {
		meta.Description = s
	}
	if s, ok := tableString(record, "category"); ok {
		meta.Category = s
	}
	meta.MenuPath = tableStrings(record, "menu_path")
	meta.DrawGroup = tableStrings(record, "draw_group")

	phases := map[string]module.Phase{
		"update": module.PhaseUpdate,
		"menu":   module.PhaseMenu,
		"window": module.PhaseWindow,
		"draw":   module.PhaseDraw,
	}
	for key, p := range phases {
		if on, ok := tableBool(record, key+"_enabled"); ok {
			meta.SetEnabled(p, on)
		}
		if w, ok := tableNumber(record, key+"_weight"); ok {
			meta.SetWeight(p, w)
		}
	}

	if win, ok := tableTable(record, "window"); ok {
		if x, ok := tableNumber(win, "x"); ok {
			meta.Window.Pos[0] = x
		}
		if y, ok := tableNumber(win, "y"); ok {
			meta.Window.Pos[1] = y
		}
		if w, ok := tableNumber(win, "w"); ok {
			meta.Window.Size[0] = w
		}
		if h, ok := tableNumber(win, "h"); ok {
			meta.Window.Size[1] = h
		}
		if ar, ok := tableBool(win, "auto_resize"); ok {
			meta.Window.AutoResize = ar
		}
	}

	if hk, ok := tableTable(record, "hotkeys"); ok {
		bindings, err := parseHotkeys(hk)
		if err != nil {
			return meta, fmt.Errorf("%w: %s: %v", ErrMalformedFactory, name, err)
		}
		meta.Hotkeys = bindings
	}
	return meta, nil
}

// Path returns the chunk path the library was loaded from.
func (l *Library) Path() string { return l.path }

// Name returns the module's declared name.
func (l *Library) Name() string { return l.name }

// Version returns the module's declared version.
func (l *Library) Version() string { return l.version }

// Module returns the adapter presenting the loaded module.
func (l *Library) Module() *Adapter { return l.adapter }

// Closed reports whether Close has run.
func (l *Library) Closed() bool { return l.closed }

// Close tears the library down: unload hook, then callback references, then
// the Lua state. Safe to call more than once; later calls are no-ops.
func (l *Library) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.adapter.OnUnload()
	l.adapter.release()
	l.ls.Close()
	return nil
}

// String renders the library like "camera-rig v0.3.0 (plugins/camera.lua)".
func (l *Library) String() string {
	return fmt.Sprintf("%s v%s (%s)", l.name, l.version, l.path)
}
