package module

import "fmt"

// Handle is a stable, opaque identifier for a registered module. Handles are
// issued by the registry in registration order and are never reused within a
// registry's lifetime. The zero value is not a valid handle.
type Handle uint64

// NoHandle is the invalid zero handle.
const NoHandle Handle = 0

// Valid reports whether h refers to a registered module slot.
func (h Handle) Valid() bool {
	return h != NoHandle
}

// String returns a short diagnostic form like "module#3".
func (h Handle) String() string {
	if h == NoHandle {
		return "module#none"
	}
	return fmt.Sprintf("module#%d", uint64(h))
}
