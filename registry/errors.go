package registry

import "errors"

var (
	// ErrUnknownHandle is returned for operations on a handle that is not
	// registered.
	ErrUnknownHandle = errors.New("unknown module handle")

	// ErrDuplicateName is returned when registering a module whose name is
	// already taken.
	ErrDuplicateName = errors.New("module name already registered")

	// ErrDependencyCycle is returned when registering a module would create
	// a cycle in the declared update-dependency graph.
	ErrDependencyCycle = errors.New("update dependency cycle")

	// ErrDynamicModule is returned when Unregister is called on a
	// dynamically loaded module; use UnloadDynamic so the owning library is
	// closed in order.
	ErrDynamicModule = errors.New("module is dynamically loaded")

	// ErrNotDynamic is returned when UnloadDynamic is called on a built-in
	// module.
	ErrNotDynamic = errors.New("module is not dynamically loaded")
)
