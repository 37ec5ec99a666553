// Package registry is the heart of the runtime: it owns every module behind
// an opaque handle and drives the four per-frame phases (update, menu,
// window, draw) in dependency- and weight-aware order.
//
// A typical host frame:
//
//	reg.Tick(registry.TickAll())
//	reg.DispatchHotkeys(input)
//	reg.ProcessEvents()
//	reg.BeforeRender(ui)
//	reg.RenderMenu(ui)
//	reg.RenderWindow(ui)
//	reg.RenderDraw(ui, fg, bg)
//
// Execution is strictly single-threaded and cooperative. Every callback runs
// under a runtime-checked lease on its module's cell; cross-module access
// during update goes through the access broker, which enforces the target
// module's policy and refuses self-access outright. Structural changes
// requested mid-frame travel through the event queue and are applied by
// ProcessEvents between frames.
package registry
