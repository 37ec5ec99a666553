package hotkey

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/modkit/modkit/module"
)

// fakeInput is a scriptable InputState.
type fakeInput struct {
	down map[tcell.Key]bool
	runa map[rune]bool
	mods tcell.ModMask
}

func newFakeInput() *fakeInput {
	return &fakeInput{down: make(map[tcell.Key]bool), runa: make(map[rune]bool)}
}

func (f *fakeInput) press(key tcell.Key)   { f.down[key] = true }
func (f *fakeInput) release(key tcell.Key) { delete(f.down, key) }

func (f *fakeInput) IsPressed(key tcell.Key, r rune) bool {
	if key == tcell.KeyRune {
		return f.runa[r]
	}
	return f.down[key]
}

func (f *fakeInput) Modifiers() tcell.ModMask { return f.mods }

// fakeClock advances manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration)  { c.t = c.t.Add(d) }
func (c *fakeClock) set(offset time.Duration) { c.t = time.Unix(0, 0).Add(offset) }

func newTestManager() (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	return NewManager(WithClock(clock.now)), clock
}

func TestCooldownScenario(t *testing.T) {
	// Press at t=0 triggers; held at t=50ms does not re-trigger; released
	// and re-pressed at t=100ms stays quiet (cooldown); re-pressed at
	// t=250ms triggers again.
	m, clock := newTestManager()
	in := newFakeInput()
	m.Register("h", Chord{Key: tcell.KeyF5}, 200*time.Millisecond)

	in.press(tcell.KeyF5)
	if !m.IsTriggered("h", in) {
		t.Fatal("press at t=0 should trigger")
	}

	clock.set(50 * time.Millisecond)
	if m.IsTriggered("h", in) {
		t.Fatal("held key at t=50ms should not re-trigger")
	}

	in.release(tcell.KeyF5)
	if m.IsTriggered("h", in) {
		t.Fatal("released key should not trigger")
	}

	clock.set(100 * time.Millisecond)
	in.press(tcell.KeyF5)
	if m.IsTriggered("h", in) {
		t.Fatal("press at t=100ms should be suppressed by cooldown")
	}

	in.release(tcell.KeyF5)
	m.IsTriggered("h", in)

	clock.set(250 * time.Millisecond)
	in.press(tcell.KeyF5)
	if !m.IsTriggered("h", in) {
		t.Fatal("press at t=250ms should trigger after cooldown")
	}
}

func TestRearmRequiresRelease(t *testing.T) {
	m, clock := newTestManager()
	in := newFakeInput()
	m.Register("h", Chord{Key: tcell.KeyF1}, 0)

	in.press(tcell.KeyF1)
	if !m.IsTriggered("h", in) {
		t.Fatal("first press should trigger")
	}
	// Cooldown is zero but the key never released: no re-trigger.
	clock.advance(time.Second)
	if m.IsTriggered("h", in) {
		t.Fatal("held key should not re-trigger even with zero cooldown")
	}
	in.release(tcell.KeyF1)
	m.IsTriggered("h", in)
	in.press(tcell.KeyF1)
	if !m.IsTriggered("h", in) {
		t.Fatal("press after release should trigger")
	}
}

func TestModifiersMustBeHeld(t *testing.T) {
	m, _ := newTestManager()
	in := newFakeInput()
	m.Register("save", Chord{Key: tcell.KeyRune, Rune: 's', Mods: tcell.ModCtrl}, 0)

	in.runa['s'] = true
	if m.IsTriggered("save", in) {
		t.Fatal("chord without required modifier should not trigger")
	}
	in.runa['s'] = false
	m.IsTriggered("save", in)

	in.mods = tcell.ModCtrl | tcell.ModShift // extra modifiers are fine
	in.runa['s'] = true
	if !m.IsTriggered("save", in) {
		t.Fatal("chord with required modifier held should trigger")
	}
}

func TestIsHeldIgnoresCooldown(t *testing.T) {
	m, _ := newTestManager()
	in := newFakeInput()
	m.Register("h", Chord{Key: tcell.KeyF2}, time.Hour)

	in.press(tcell.KeyF2)
	m.IsTriggered("h", in)
	if !m.IsHeld("h", in) {
		t.Error("IsHeld should report true while key is down")
	}
	in.release(tcell.KeyF2)
	if m.IsHeld("h", in) {
		t.Error("IsHeld should report false after release")
	}
}

func TestResetAndSetCooldown(t *testing.T) {
	m, clock := newTestManager()
	in := newFakeInput()
	m.Register("h", Chord{Key: tcell.KeyF3}, time.Minute)

	in.press(tcell.KeyF3)
	m.IsTriggered("h", in)
	in.release(tcell.KeyF3)
	m.IsTriggered("h", in)

	if remaining, ok := m.CooldownRemaining("h"); !ok || remaining == 0 {
		t.Fatalf("expected pending cooldown, got %v ok=%v", remaining, ok)
	}

	m.ResetCooldown("h")
	if remaining, ok := m.CooldownRemaining("h"); !ok || remaining != 0 {
		t.Fatalf("after reset, remaining = %v, want 0", remaining)
	}

	in.press(tcell.KeyF3)
	if !m.IsTriggered("h", in) {
		t.Fatal("press after reset should trigger despite long cooldown")
	}

	m.SetCooldown("h", 10*time.Millisecond)
	clock.advance(20 * time.Millisecond)
	if remaining, _ := m.CooldownRemaining("h"); remaining != 0 {
		t.Errorf("shortened cooldown should have elapsed, remaining %v", remaining)
	}
}

func TestPollAllOrder(t *testing.T) {
	m, _ := newTestManager()
	in := newFakeInput()
	m.Register("b", Chord{Key: tcell.KeyF2}, 0)
	m.Register("a", Chord{Key: tcell.KeyF1}, 0)

	in.press(tcell.KeyF1)
	in.press(tcell.KeyF2)
	got := m.PollAll(in)
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("PollAll = %v, want registration order [b a]", got)
	}
}

func TestCapture(t *testing.T) {
	m, _ := newTestManager()
	m.Register("jump", Chord{Key: tcell.KeyF1}, 0)

	m.BeginCapture("jump")
	if id, ok := m.Capturing(); !ok || id != "jump" {
		t.Fatalf("Capturing() = %q %v, want jump true", id, ok)
	}

	// Escape cancels without rebinding.
	if _, _, ok := m.ObserveKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)); ok {
		t.Fatal("escape should cancel, not capture")
	}
	if _, ok := m.Capturing(); ok {
		t.Fatal("capture mode should be idle after escape")
	}

	m.BeginCapture("jump")
	chord, id, ok := m.ObserveKey(tcell.NewEventKey(tcell.KeyRune, 'g', tcell.ModAlt))
	if !ok || id != "jump" {
		t.Fatalf("ObserveKey = %q %v, want jump true", id, ok)
	}
	want := Chord{Key: tcell.KeyRune, Rune: 'g', Mods: tcell.ModAlt}
	if chord != want {
		t.Errorf("captured chord = %+v, want %+v", chord, want)
	}
	if conflictID, found := m.FindConflict(want); !found || conflictID != "jump" {
		t.Errorf("rebinding not reflected in manager state")
	}
}

func TestCaptureToggle(t *testing.T) {
	m, _ := newTestManager()
	m.Register("x", Chord{Key: tcell.KeyF1}, 0)
	m.BeginCapture("x")
	m.BeginCapture("x") // toggles off
	if _, ok := m.Capturing(); ok {
		t.Error("second BeginCapture with same id should cancel")
	}
}

func TestSyncBindings(t *testing.T) {
	m, _ := newTestManager()
	const h = module.Handle(7)

	m.SyncBindings(h, []module.HotkeyBinding{
		module.NewHotkeyBinding("one", tcell.KeyF1, 0, tcell.ModNone),
		module.UnboundHotkey("skip-me"),
	})
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (unbound skipped)", m.Len())
	}

	// Re-sync replaces the module's bindings wholesale.
	m.SyncBindings(h, []module.HotkeyBinding{
		module.NewHotkeyBinding("two", tcell.KeyF2, 0, tcell.ModNone),
	})
	ids := m.IDs()
	if len(ids) != 1 || ids[0] != FullID(h, "two") {
		t.Errorf("IDs = %v, want [%s]", ids, FullID(h, "two"))
	}

	if _, bindingID, ok := SplitFullID(ids[0]); !ok || bindingID != "two" {
		t.Errorf("SplitFullID(%q) = %q %v", ids[0], bindingID, ok)
	}
}

func TestGenerateID(t *testing.T) {
	existing := []module.HotkeyBinding{
		{ID: "hotkey_0"},
		{ID: "hotkey_1"},
	}
	if got := GenerateID(existing, "hotkey"); got != "hotkey_2" {
		t.Errorf("GenerateID = %q, want hotkey_2", got)
	}
	if got := GenerateID(nil, "hotkey"); got != "hotkey_0" {
		t.Errorf("GenerateID = %q, want hotkey_0", got)
	}
}
