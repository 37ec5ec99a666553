// Package dynload loads separately authored modules at runtime and adapts
// them behind the local module.Module interface.
//
// A dynamic module is a Lua chunk, either a single .lua file or a directory
// with a module.json manifest, that exports one well-known factory:
//
//	function create_module()
//	    return {
//	        name        = "chicken",
//	        version     = "0.3.0",
//	        api_name    = "modkit",
//	        api_version = "1.0.0",
//	        category    = "demo",
//	        update_enabled = true,
//	        update_weight  = 2.0,
//	        update = function(self)
//	            self.count = (self.count or 0) + 1
//	        end,
//	        marshal_state = function(self)
//	            return { count = self.count or 0 }
//	        end,
//	    }
//	end
//
// The host checks the factory's api_name/api_version pair against its own
// before accepting the module; a mismatch is a recoverable load error and
// nothing is registered. Every call across the boundary is run protected:
// a Lua error or a Go panic raised inside the chunk is converted to an error
// value at the boundary and never unwinds into the host.
//
// The returned Library owns both the Lua state and the adapter wrapping it.
// Library.Close tears them down in the only safe order: unload hook first,
// then the adapter's callback references, then the Lua state. The foreign
// code is never invoked after its runtime is gone.
package dynload
