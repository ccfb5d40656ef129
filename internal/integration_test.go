package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/usb-selector/internal/control"
	"github.com/sweeney/usb-selector/internal/hal"
	"github.com/sweeney/usb-selector/internal/mqtt"
	"github.com/sweeney/usb-selector/internal/store"
)

// The adapters mirror the ones the daemon wires between hal.Outputs and
// the control core.

type relayAdapter struct{ out *hal.FakeOutputs }

func (a relayAdapter) Set(closed bool) { a.out.SetRelay(closed) }
func (a relayAdapter) Closed() bool    { return a.out.Relay() }

type portAdapter struct{ out *hal.FakeOutputs }

func (a portAdapter) Apply(p control.Port) { a.out.SelectPort(p == control.PortB) }

type lampAdapter struct{ out *hal.FakeOutputs }

func (a lampAdapter) SetDuty(d uint16) { a.out.SetStatusDuty(d) }

// rig is a controller restored from a real on-disk store, driven tick by
// tick with every event going through the fake publisher.
type rig struct {
	ctrl *control.Controller
	out  *hal.FakeOutputs
	pub  *mqtt.FakePublisher
	ts   time.Time
}

func newRig(st store.Store) *rig {
	loaded := store.LoadSettings(st)
	out := hal.NewFakeOutputs()
	ctrl := control.NewController(loaded.Settings, loaded.Port,
		relayAdapter{out}, portAdapter{out}, lampAdapter{out},
		store.SettingsWriter{S: st})
	ctrl.Start()
	return &rig{
		ctrl: ctrl,
		out:  out,
		pub:  mqtt.NewFakePublisher(),
		ts:   time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
	}
}

// run ticks every 5ms from 'from' to 'to' inclusive (milliseconds),
// feeding the same input each pass, and publishes every event.
func (r *rig) run(t *testing.T, from, to int64, in control.Input) []control.Event {
	t.Helper()
	var events []control.Event
	for ms := from; ms <= to; ms += 5 {
		in.Now = control.Micros(ms * 1000)
		evs := r.ctrl.Tick(in)
		for _, ev := range evs {
			if err := r.pub.Publish(r.ts, ev); err != nil {
				t.Fatalf("publish at %dms: %v", ms, err)
			}
		}
		events = append(events, evs...)
	}
	return events
}

func idle() control.Input    { return control.Input{Sensor: 1000, SensorValid: true} }
func pressUp() control.Input { return control.Input{Up: true, Sensor: 1000, SensorValid: true} }

// TestIntegrationSetupEditSurvivesRestart edits the upper threshold
// through the menu, commits it, and verifies a fresh boot from the same
// state directory restores the edited value.
func TestIntegrationSetupEditSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	r := newRig(st)

	// Short up press enters editing-upper.
	r.run(t, 100, 400, pressUp())
	r.run(t, 405, 500, idle())
	if r.ctrl.SetupMode() != control.SetupUpper {
		t.Fatalf("expected editing-upper, got %s", r.ctrl.SetupMode())
	}

	// Two short up presses step the threshold twice.
	r.run(t, 600, 700, pressUp())
	r.run(t, 705, 800, idle())
	r.run(t, 900, 1000, pressUp())
	r.run(t, 1005, 1100, idle())

	want := control.DefaultUpperThreshold + 2*control.ThresholdStep
	if got := r.ctrl.Settings().UpperThreshold; got != want {
		t.Fatalf("upper threshold after two steps: got %d, want %d", got, want)
	}

	// A long press commits and exits.
	r.run(t, 1200, 2400, control.Input{Down: true, Sensor: 1000, SensorValid: true})
	events := r.run(t, 2405, 2500, idle())

	var saved *control.Event
	for i := range events {
		if events[i].Type == control.EventSettingSaved {
			saved = &events[i]
		}
	}
	if saved == nil {
		t.Fatal("expected a SETTING_SAVED event on commit")
	}
	if saved.Setting != control.SettingUpperThreshold || saved.Value != want {
		t.Errorf("saved event: got %s=%d, want %s=%d", saved.Setting, saved.Value, control.SettingUpperThreshold, want)
	}
	if saved.Err != nil {
		t.Errorf("saved event carries persist error: %v", saved.Err)
	}
	if r.ctrl.SetupMode() != control.SetupIdle {
		t.Errorf("expected idle after commit, got %s", r.ctrl.SetupMode())
	}

	// Reboot: a new store over the same directory restores the edit.
	st2, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore after restart: %v", err)
	}
	loaded := store.LoadSettings(st2)
	if loaded.Settings.UpperThreshold != want {
		t.Errorf("restored upper threshold: got %d, want %d", loaded.Settings.UpperThreshold, want)
	}
	if len(loaded.Invalid) != 0 {
		t.Errorf("expected no invalid fields after restart, got %v", loaded.Invalid)
	}
}

// TestIntegrationPortToggleSurvivesRestart toggles to port B, waits out
// the commit delay, and verifies the next boot powers port B.
func TestIntegrationPortToggleSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	r := newRig(st)

	r.run(t, 100, 200, control.Input{Select: true, Sensor: 1000, SensorValid: true})
	events := r.run(t, 205, 5400, idle())

	wantTypes := []control.EventType{control.EventPortSwitched, control.EventPortSaved}
	if len(events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantTypes), len(events), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d: got %s, want %s", i, events[i].Type, want)
		}
		if events[i].Port != control.PortB {
			t.Errorf("event %d: got port %s, want B", i, events[i].Port)
		}
	}

	// The switch payload carries the port, nothing else.
	expected := `{"selector":{"timestamp":"2026-02-02T22:18:12Z","event":"PORT_SWITCHED","port":"B"}}`
	if string(r.pub.Payloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", r.pub.Payloads[0], expected)
	}

	st2, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore after restart: %v", err)
	}
	if loaded := store.LoadSettings(st2); loaded.Port != control.PortB {
		t.Errorf("restored port: got %s, want B", loaded.Port)
	}

	// The new boot applies the restored port.
	r2 := newRig(st2)
	if len(r2.out.PortSets) != 1 || r2.out.PortSets[0] != true {
		t.Errorf("expected restored boot to route port B, got %v", r2.out.PortSets)
	}
}

// TestIntegrationRelayEventPayloadFormat verifies the exact JSON
// structure published for a relay transition.
func TestIntegrationRelayEventPayloadFormat(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	r := newRig(st)

	events := r.run(t, 100, 700, control.Input{Sensor: 4000, SensorValid: true})
	if len(events) != 1 || events[0].Type != control.EventRelayHigh {
		t.Fatalf("expected exactly one RELAY_HIGH event, got %+v", events)
	}

	expected := `{"selector":{"timestamp":"2026-02-02T22:18:12Z","event":"RELAY_HIGH","value":4000}}`
	if string(r.pub.Payloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", r.pub.Payloads[0], expected)
	}
	if !r.out.Relay() {
		t.Error("expected relay line closed")
	}
}

// TestIntegrationCorruptStoreFallsBackToDefaults seeds a state directory
// with an out-of-range block and a torn block and verifies restore flags
// both, keeps the valid field, and boots on defaults otherwise.
func TestIntegrationCorruptStoreFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := st.Write(string(control.SettingUpperThreshold), 9999); err != nil {
		t.Fatalf("seed upper: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(control.SettingLowerThreshold)), []byte{0x17, 0x2a}, 0o644); err != nil {
		t.Fatalf("seed torn lower: %v", err)
	}
	if err := st.Write(string(control.SettingLatchTime), 750); err != nil {
		t.Fatalf("seed latch: %v", err)
	}
	if err := st.Write(string(control.SettingActivePort), 7); err != nil {
		t.Fatalf("seed port: %v", err)
	}

	loaded := store.LoadSettings(st)

	if loaded.Settings.UpperThreshold != control.DefaultUpperThreshold {
		t.Errorf("upper: got %d, want default %d", loaded.Settings.UpperThreshold, control.DefaultUpperThreshold)
	}
	if loaded.Settings.LowerThreshold != control.DefaultLowerThreshold {
		t.Errorf("lower: got %d, want default %d", loaded.Settings.LowerThreshold, control.DefaultLowerThreshold)
	}
	if loaded.Settings.LatchTime != 750*time.Millisecond {
		t.Errorf("latch: got %s, want 750ms", loaded.Settings.LatchTime)
	}
	// An unrecognized port value means port A, silently.
	if loaded.Port != control.PortA {
		t.Errorf("port: got %s, want A", loaded.Port)
	}

	wantInvalid := []control.Setting{control.SettingUpperThreshold, control.SettingLowerThreshold}
	if len(loaded.Invalid) != len(wantInvalid) {
		t.Fatalf("invalid fields: got %v, want %v", loaded.Invalid, wantInvalid)
	}
	for i, want := range wantInvalid {
		if loaded.Invalid[i] != want {
			t.Errorf("invalid field %d: got %s, want %s", i, loaded.Invalid[i], want)
		}
	}

	// The controller still boots and runs on the restored mix.
	r := newRig(st)
	r.run(t, 100, 200, idle())
	if r.ctrl.Settings().LatchTime != 750*time.Millisecond {
		t.Errorf("controller latch: got %s, want 750ms", r.ctrl.Settings().LatchTime)
	}
}
