package module

import "testing"

func TestPolicyCanAccess(t *testing.T) {
	const (
		alice Handle = 1
		bob   Handle = 2
		eve   Handle = 3
	)

	tests := []struct {
		name      string
		configure func(*Policy)
		requester Handle
		level     AccessLevel
		want      bool
	}{
		{
			name:      "default read-only allows reads",
			configure: func(*Policy) {},
			requester: alice,
			level:     AccessReadOnly,
			want:      true,
		},
		{
			name:      "default read-only refuses writes",
			configure: func(*Policy) {},
			requester: alice,
			level:     AccessReadWrite,
			want:      false,
		},
		{
			name:      "grant elevates a single requester",
			configure: func(p *Policy) { p.Grant(alice, AccessReadWrite) },
			requester: alice,
			level:     AccessReadWrite,
			want:      true,
		},
		{
			name:      "grant does not leak to other requesters",
			configure: func(p *Policy) { p.Grant(alice, AccessReadWrite) },
			requester: bob,
			level:     AccessReadWrite,
			want:      false,
		},
		{
			name:      "deny wins over grant",
			configure: func(p *Policy) { p.Grant(eve, AccessReadWrite); p.DenyAlways(eve) },
			requester: eve,
			level:     AccessReadOnly,
			want:      false,
		},
		{
			name:      "allow list excludes unlisted requesters",
			configure: func(p *Policy) { p.AllowOnly(alice) },
			requester: bob,
			level:     AccessReadOnly,
			want:      false,
		},
		{
			name:      "allow list admits listed requesters",
			configure: func(p *Policy) { p.AllowOnly(alice) },
			requester: alice,
			level:     AccessReadOnly,
			want:      true,
		},
		{
			name:      "none default refuses everything",
			configure: func(p *Policy) { p.Default = AccessNone },
			requester: alice,
			level:     AccessReadOnly,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.configure(&p)
			if got := p.CanAccess(tt.requester, tt.level); got != tt.want {
				t.Errorf("CanAccess(%v, %v) = %v, want %v", tt.requester, tt.level, got, tt.want)
			}
		})
	}
}

func TestAccessLevelAllows(t *testing.T) {
	if !AccessReadWrite.Allows(AccessReadOnly) {
		t.Error("read-write grant should satisfy read request")
	}
	if AccessReadOnly.Allows(AccessReadWrite) {
		t.Error("read-only grant should not satisfy write request")
	}
	if AccessNone.Allows(AccessReadOnly) {
		t.Error("none grant should not satisfy read request")
	}
}
