package dynload

import "errors"

// Load errors. All are recoverable: the caller gets the error, nothing is
// registered, and the Lua state is torn down.
var (
	// ErrNotFound is returned when the module file does not exist.
	ErrNotFound = errors.New("dynamic module not found")

	// ErrLoadFailed is returned when the chunk fails to compile or run.
	ErrLoadFailed = errors.New("dynamic module failed to load")

	// ErrSymbolNotFound is returned when the chunk defines no
	// create_module factory.
	ErrSymbolNotFound = errors.New("create_module factory not found")

	// ErrMalformedFactory is returned when the factory's return value is
	// not a well-formed module record.
	ErrMalformedFactory = errors.New("factory returned a malformed module record")

	// ErrVersionMismatch is returned when the module targets a different
	// host API than the one loading it.
	ErrVersionMismatch = errors.New("module API version mismatch")

	// ErrClosed is returned when a closed library is used.
	ErrClosed = errors.New("library is closed")
)
