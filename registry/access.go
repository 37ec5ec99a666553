package registry

import "github.com/modkit/modkit/module"

// The access broker. Denial is routine and silent: a refused request returns
// false without running the closure. Lease conflicts, by contrast, panic in
// the cell, since only a defective module can produce one in a
// single-threaded frame.

// permits decides whether requester may access target at the given level.
// Order: self-access refused, then the emergency override, then any global
// per-requester override, then the target's own policy.
func (r *Registry) permits(requester, target module.Handle, level module.AccessLevel) (*cell, bool) {
	if requester == target {
		return nil, false
	}
	c, ok := r.cells[target]
	if !ok {
		return nil, false
	}
	if r.emergency {
		return c, true
	}
	if override, ok := r.overrides[requester]; ok {
		return c, override.Allows(level)
	}
	return c, c.mod.Meta().Access.CanAccess(requester, level)
}

// WithRead runs fn with shared access to the target module. It returns false
// without running fn when the target's policy denies the requester, the
// target is unknown, or requester == target.
func (r *Registry) WithRead(requester, target module.Handle, fn func(module.Module)) bool {
	c, ok := r.permits(requester, target, module.AccessReadOnly)
	if !ok {
		return false
	}
	c.lockShared()
	defer c.unlockShared()
	fn(c.mod)
	return true
}

// WithWrite runs fn with exclusive, mutating access to the target module,
// subject to the same policy checks as WithRead at the read-write level.
func (r *Registry) WithWrite(requester, target module.Handle, fn func(module.Module)) bool {
	c, ok := r.permits(requester, target, module.AccessReadWrite)
	if !ok {
		return false
	}
	c.lockExclusive()
	defer c.unlockExclusive()
	fn(c.mod)
	return true
}

// SetEmergencyOverride toggles the process-wide override that grants every
// request read-write access regardless of policy. Diagnostic use only.
func (r *Registry) SetEmergencyOverride(on bool) {
	if on != r.emergency {
		r.log.Warn("emergency access override changed", "enabled", on)
	}
	r.emergency = on
}

// EmergencyOverride reports whether the process-wide override is active.
func (r *Registry) EmergencyOverride() bool {
	return r.emergency
}

// SetGlobalOverride grants the requester the given level against every
// target, bypassing per-module policies.
func (r *Registry) SetGlobalOverride(requester module.Handle, level module.AccessLevel) {
	r.overrides[requester] = level
}

// ClearGlobalOverride removes a requester's global grant.
func (r *Registry) ClearGlobalOverride(requester module.Handle) {
	delete(r.overrides, requester)
}
