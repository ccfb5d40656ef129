package control

import "testing"

// fakePortLines records port switch-overs.
type fakePortLines struct {
	applied []Port
}

func (f *fakePortLines) Apply(p Port) {
	f.applied = append(f.applied, p)
}

func TestSelectorToggle(t *testing.T) {
	sel := NewSelector(PortA)
	lines := &fakePortLines{}
	saver := &fakeSaver{}

	events := sel.Tick(PressShort, ms(0), lines, saver)
	if sel.Active() != PortB {
		t.Errorf("after toggle: %v, want B", sel.Active())
	}
	if len(lines.applied) != 1 || lines.applied[0] != PortB {
		t.Errorf("lines driven %v, want [B]", lines.applied)
	}
	if countEvents(events, EventPortSwitched) != 1 {
		t.Error("expected a port-switched event")
	}

	sel.Tick(PressShort, ms(100), lines, saver)
	if sel.Active() != PortA {
		t.Errorf("after second toggle: %v, want A", sel.Active())
	}
}

func TestSelectorIgnoresLongPresses(t *testing.T) {
	sel := NewSelector(PortA)
	lines := &fakePortLines{}

	sel.Tick(PressLong, ms(0), lines, &fakeSaver{})
	sel.Tick(PressMax, ms(10), lines, &fakeSaver{})
	if sel.Active() != PortA {
		t.Errorf("long/max press toggled the port to %v", sel.Active())
	}
	if len(lines.applied) != 0 {
		t.Error("long/max press drove the port lines")
	}
}

func TestSelectorDelayedCommit(t *testing.T) {
	sel := NewSelector(PortA)
	lines := &fakePortLines{}
	saver := &fakeSaver{}

	sel.Tick(PressShort, ms(0), lines, saver)

	// Quiet period not yet over: nothing persisted.
	for at := int64(100); at < 5000; at += 100 {
		sel.Tick(PressNone, ms(at), lines, saver)
	}
	if len(saver.ports) != 0 {
		t.Fatalf("persisted %v before the quiet period elapsed", saver.ports)
	}

	events := sel.Tick(PressNone, ms(5000), lines, saver)
	if len(saver.ports) != 1 || saver.ports[0] != PortB {
		t.Fatalf("persisted %v, want [B]", saver.ports)
	}
	if countEvents(events, EventPortSaved) != 1 {
		t.Error("expected a port-saved event")
	}

	// One write only; further quiet ticks persist nothing.
	sel.Tick(PressNone, ms(6000), lines, saver)
	sel.Tick(PressNone, ms(20000), lines, saver)
	if len(saver.ports) != 1 {
		t.Errorf("persisted %d times, want 1", len(saver.ports))
	}
}

func TestSelectorToggleRestartsCommitDelay(t *testing.T) {
	sel := NewSelector(PortA)
	lines := &fakePortLines{}
	saver := &fakeSaver{}

	sel.Tick(PressShort, ms(0), lines, saver)    // -> B
	sel.Tick(PressShort, ms(4000), lines, saver) // -> A, timer restarts

	// 5s after the first toggle but only 1s after the second.
	sel.Tick(PressNone, ms(5000), lines, saver)
	if len(saver.ports) != 0 {
		t.Fatal("commit delay was not restarted by the second toggle")
	}

	sel.Tick(PressNone, ms(9000), lines, saver)
	if len(saver.ports) != 1 || saver.ports[0] != PortA {
		t.Errorf("persisted %v, want [A] at 5s after the last toggle", saver.ports)
	}
}

func TestSelectorRapidTogglingWritesOnce(t *testing.T) {
	sel := NewSelector(PortA)
	lines := &fakePortLines{}
	saver := &fakeSaver{}

	// Ten fast toggles, then quiet.
	for i := int64(0); i < 10; i++ {
		sel.Tick(PressShort, ms(i*200), lines, saver)
	}
	for at := int64(2000); at <= 7000; at += 100 {
		sel.Tick(PressNone, ms(at), lines, saver)
	}

	if len(saver.ports) != 1 {
		t.Errorf("flash-wear debounce failed: %d writes, want 1", len(saver.ports))
	}
	// Ten toggles from A end on A.
	if sel.Active() != PortA {
		t.Errorf("active port %v, want A", sel.Active())
	}
}
