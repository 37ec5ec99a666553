package registry

import (
	"errors"
	"fmt"

	"github.com/modkit/modkit/dynload"
	"github.com/modkit/modkit/module"
)

// LoadDynamic loads one dynamic module and registers its adapter. On any
// failure the library is closed and the registry is unchanged.
func (r *Registry) LoadDynamic(path string) (module.Handle, error) {
	lib, err := dynload.Open(path, r.loadOpts...)
	if err != nil {
		return module.NoHandle, err
	}
	return r.adopt(lib)
}

// adopt registers a loaded library's adapter and takes ownership of the
// library.
func (r *Registry) adopt(lib *dynload.Library) (module.Handle, error) {
	h, err := r.Register(lib.Module())
	if err != nil {
		lib.Close()
		return module.NoHandle, err
	}
	r.libs[h] = lib
	r.log.Info("dynamic module loaded",
		"module", lib.Name(), "version", lib.Version(), "handle", h)
	return h, nil
}

// UnloadDynamic removes a dynamic module and closes its library. The library
// owns the teardown order: unload hook, adapter release, Lua state close.
func (r *Registry) UnloadDynamic(h module.Handle) error {
	lib, ok := r.libs[h]
	if !ok {
		if _, known := r.cells[h]; !known {
			return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
		}
		return fmt.Errorf("%w: %s", ErrNotDynamic, h)
	}
	r.detach(h)
	delete(r.libs, h)
	if err := lib.Close(); err != nil {
		return fmt.Errorf("close %s: %w", lib.Name(), err)
	}
	r.log.Info("dynamic module unloaded", "module", lib.Name(), "handle", h)
	return nil
}

// UnloadDynamicByName unloads the dynamic module registered under name.
func (r *Registry) UnloadDynamicByName(name string) error {
	h, ok := r.names[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHandle, name)
	}
	return r.UnloadDynamic(h)
}

// ReloadDynamic unloads a dynamic module and loads it again from path,
// producing a fresh handle.
func (r *Registry) ReloadDynamic(h module.Handle, path string) (module.Handle, error) {
	if err := r.UnloadDynamic(h); err != nil {
		return module.NoHandle, err
	}
	return r.LoadDynamic(path)
}

// LoadDynamicDir scans a directory and loads every dynamic module in it. A
// module that fails to load or register does not stop the batch; the
// failures come back joined alongside the handles that did load.
func (r *Registry) LoadDynamicDir(dir string) ([]module.Handle, error) {
	libs, scanErr := dynload.OpenDir(dir, r.loadOpts...)
	var handles []module.Handle
	errs := []error{scanErr}
	for _, lib := range libs {
		h, err := r.adopt(lib)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", lib.Name(), err))
			continue
		}
		handles = append(handles, h)
	}
	return handles, errors.Join(errs...)
}

// IsDynamic reports whether the handle belongs to a dynamically loaded
// module.
func (r *Registry) IsDynamic(h module.Handle) bool {
	_, ok := r.libs[h]
	return ok
}

// Library returns the owning library of a dynamic module.
func (r *Registry) Library(h module.Handle) (*dynload.Library, bool) {
	lib, ok := r.libs[h]
	return lib, ok
}
