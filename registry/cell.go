package registry

import (
	"fmt"

	"github.com/modkit/modkit/module"
)

// cell is one arena slot: the module plus its runtime-checked lease. The
// runtime is single-threaded, so the counters only ever see nested leases
// taken by callbacks running inside an outer lease. A conflicting lease is a
// programming defect and panics rather than aliasing.
type cell struct {
	mod    module.Module
	shared int
	excl   bool
}

func (c *cell) lockShared() {
	if c.excl {
		panic(fmt.Sprintf("module %q: shared lease while exclusively held", c.mod.Name()))
	}
	c.shared++
}

func (c *cell) unlockShared() {
	c.shared--
}

func (c *cell) lockExclusive() {
	if c.excl || c.shared > 0 {
		panic(fmt.Sprintf("module %q: exclusive lease while already held", c.mod.Name()))
	}
	c.excl = true
}

func (c *cell) unlockExclusive() {
	c.excl = false
}
