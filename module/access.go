package module

// AccessLevel is the level of cross-module access a policy grants.
type AccessLevel int

const (
	// AccessNone refuses all access.
	AccessNone AccessLevel = iota

	// AccessReadOnly allows shared, read-only access.
	AccessReadOnly

	// AccessReadWrite allows exclusive, mutating access.
	AccessReadWrite
)

// String returns the level name.
func (l AccessLevel) String() string {
	switch l {
	case AccessNone:
		return "none"
	case AccessReadOnly:
		return "read-only"
	case AccessReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// Allows reports whether a grant of level l satisfies a request for level r.
func (l AccessLevel) Allows(r AccessLevel) bool {
	return l >= r
}

// Policy is a module's access-control declaration: what other modules may do
// to it through the registry's access broker. Denial is routine, not an
// error; the broker returns "no access" silently.
type Policy struct {
	// Default is the level granted when no per-requester grant applies.
	Default AccessLevel `json:"default"`

	// Grants overrides Default for specific requesters.
	Grants map[Handle]AccessLevel `json:"-"`

	// Allow, when non-empty, restricts access to the listed requesters.
	Allow map[Handle]struct{} `json:"-"`

	// Deny always refuses the listed requesters, regardless of grants.
	Deny map[Handle]struct{} `json:"-"`
}

// DefaultPolicy grants read-only access to everyone.
func DefaultPolicy() Policy {
	return Policy{Default: AccessReadOnly}
}

// NewPolicy returns a policy with the given default level.
func NewPolicy(def AccessLevel) Policy {
	return Policy{Default: def}
}

// Grant sets the level for a specific requester.
func (p *Policy) Grant(requester Handle, level AccessLevel) {
	if p.Grants == nil {
		p.Grants = make(map[Handle]AccessLevel)
	}
	p.Grants[requester] = level
}

// AllowOnly adds a requester to the allow list. Once the allow list is
// non-empty, only listed requesters may access the module.
func (p *Policy) AllowOnly(requester Handle) {
	if p.Allow == nil {
		p.Allow = make(map[Handle]struct{})
	}
	p.Allow[requester] = struct{}{}
}

// DenyAlways adds a requester to the deny list.
func (p *Policy) DenyAlways(requester Handle) {
	if p.Deny == nil {
		p.Deny = make(map[Handle]struct{})
	}
	p.Deny[requester] = struct{}{}
}

// CanAccess reports whether the requester is granted the requested level.
// The deny list is checked first, then the allow list, then per-requester
// grants, then the default.
func (p *Policy) CanAccess(requester Handle, level AccessLevel) bool {
	if _, denied := p.Deny[requester]; denied {
		return false
	}
	if len(p.Allow) > 0 {
		if _, ok := p.Allow[requester]; !ok {
			return false
		}
	}
	granted := p.Default
	if g, ok := p.Grants[requester]; ok {
		granted = g
	}
	return granted.Allows(level)
}

// Clone returns a deep copy of the policy.
func (p *Policy) Clone() Policy {
	out := Policy{Default: p.Default}
	if p.Grants != nil {
		out.Grants = make(map[Handle]AccessLevel, len(p.Grants))
		for k, v := range p.Grants {
			out.Grants[k] = v
		}
	}
	if p.Allow != nil {
		out.Allow = make(map[Handle]struct{}, len(p.Allow))
		for k := range p.Allow {
			out.Allow[k] = struct{}{}
		}
	}
	if p.Deny != nil {
		out.Deny = make(map[Handle]struct{}, len(p.Deny))
		for k := range p.Deny {
			out.Deny[k] = struct{}{}
		}
	}
	return out
}
