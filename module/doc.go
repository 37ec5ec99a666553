// Package module defines the contract every runtime module implements.
//
// A module is a pluggable unit with per-phase render and update callbacks,
// lifecycle hooks, and metadata describing how the registry should schedule
// it. Modules are identified by an opaque Handle issued at registration time;
// the handle is the only key used for lookup, ordering, and cross-module
// access.
//
// Concrete modules normally embed Base, which supplies no-op defaults for
// every hook, and override the callbacks they care about:
//
//	type Clock struct {
//	    module.Base
//	    ticks int
//	}
//
//	func NewClock() *Clock {
//	    c := &Clock{}
//	    c.Base = module.NewBase(module.Metadata{
//	        Name:     "clock",
//	        Category: "demo",
//	    })
//	    return c
//	}
//
//	func (c *Clock) Update(view module.View) { c.ticks++ }
//
// The UI and DrawLayer types are opaque: the runtime never inspects them, it
// only forwards whatever context the host supplied to the render entry
// points.
package module
