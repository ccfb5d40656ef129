package control

import (
	"testing"
	"time"
)

func testSettings() Settings {
	return Settings{
		UpperThreshold: 3510,
		LowerThreshold: 585,
		LatchTime:      500 * time.Millisecond,
	}
}

func TestRelayStaysLowBelowThreshold(t *testing.T) {
	var h Hysteresis
	s := testSettings()

	for at := int64(0); at < 5000; at += 10 {
		if h.Tick(3000, s, ms(at)) {
			t.Fatalf("relay transitioned at %dms with reading below upper threshold", at)
		}
	}
	if h.State() != RelayLow {
		t.Errorf("expected LOW, got %v", h.State())
	}
}

func TestRelayTransitionRequiresUnbrokenDwell(t *testing.T) {
	var h Hysteresis
	s := testSettings()

	// Above upper threshold for latch-1 ms, then a dip to zero.
	for at := int64(0); at < 499; at += 10 {
		if h.Tick(4000, s, ms(at)) {
			t.Fatalf("transitioned at %dms, before the latch time", at)
		}
	}
	if h.Tick(0, s, ms(499)) {
		t.Fatal("transitioned on the dip sample")
	}
	if h.State() != RelayLow {
		t.Fatalf("expected LOW after broken dwell, got %v", h.State())
	}

	// The dip reset the timer: another latch-1 ms above must not trigger.
	for at := int64(510); at < 1000; at += 10 {
		if h.Tick(4000, s, ms(at)) {
			t.Fatalf("transitioned at %dms, dwell timer was not reset by the dip", at)
		}
	}

	// Unbroken dwell of latch+1 ms transitions exactly once.
	transitions := 0
	for at := int64(1010); at <= 1010+501; at += 10 {
		if h.Tick(4000, s, ms(at)) {
			transitions++
		}
	}
	if transitions != 1 {
		t.Errorf("expected exactly 1 transition, got %d", transitions)
	}
	if h.State() != RelayHigh {
		t.Errorf("expected HIGH, got %v", h.State())
	}
}

func TestRelayHighToLowSymmetric(t *testing.T) {
	var h Hysteresis
	s := testSettings()

	// Drive high first.
	for at := int64(0); at <= 600; at += 10 {
		h.Tick(4000, s, ms(at))
	}
	if h.State() != RelayHigh {
		t.Fatalf("setup: expected HIGH, got %v", h.State())
	}

	// Reading between the thresholds: no timer on either side.
	for at := int64(700); at < 3000; at += 10 {
		if h.Tick(2000, s, ms(at)) {
			t.Fatalf("transitioned at %dms with reading inside the hysteresis band", at)
		}
	}

	// Below lower threshold for the full latch time.
	transitions := 0
	for at := int64(3000); at <= 3600; at += 10 {
		if h.Tick(100, s, ms(at)) {
			transitions++
		}
	}
	if transitions != 1 {
		t.Errorf("expected exactly 1 transition back to LOW, got %d", transitions)
	}
	if h.State() != RelayLow {
		t.Errorf("expected LOW, got %v", h.State())
	}
}

func TestRelayDipResetsTimerToZero(t *testing.T) {
	var h Hysteresis
	s := testSettings()

	h.Tick(4000, s, ms(0))   // dwell starts
	h.Tick(4000, s, ms(400)) // 400ms in
	h.Tick(0, s, ms(410))    // dip cancels
	h.Tick(4000, s, ms(420)) // dwell restarts from zero

	// 499ms after the restart: still low.
	if h.Tick(4000, s, ms(919)) {
		t.Fatal("transitioned before the restarted dwell matured")
	}
	// 500ms after the restart.
	if !h.Tick(4000, s, ms(920)) {
		t.Error("expected transition once the restarted dwell matured")
	}
}

func TestRelayReadingAtThresholdKeepsTimer(t *testing.T) {
	// Exactly at the threshold neither starts nor cancels the dwell.
	var h Hysteresis
	s := testSettings()

	if h.Tick(s.UpperThreshold, s, ms(0)) {
		t.Fatal("reading equal to threshold must not start a transition")
	}
	h.Tick(4000, s, ms(10)) // start dwell
	h.Tick(s.UpperThreshold, s, ms(200))
	if !h.Tick(s.UpperThreshold, s, ms(520)) {
		t.Error("dwell should survive readings equal to the threshold")
	}
}

func TestRelayRuntimeSettingsChange(t *testing.T) {
	// Thresholds and latch time are read per tick, so a setup edit takes
	// effect immediately.
	var h Hysteresis
	s := testSettings()

	h.Tick(3000, s, ms(0))
	s.UpperThreshold = 2500
	h.Tick(3000, s, ms(10)) // now above the (lowered) threshold
	if !h.Tick(3000, s, ms(520)) {
		t.Error("expected transition against the updated threshold")
	}
}

func TestRelayDwellAcrossClockWrap(t *testing.T) {
	var h Hysteresis
	s := testSettings()

	start := Micros(0) - ms(300) // 300ms before the counter wraps
	h.Tick(4000, s, start)
	if h.Tick(4000, s, ms(100)) {
		t.Fatal("transitioned at 400ms of dwell")
	}
	if !h.Tick(4000, s, ms(250)) {
		t.Error("expected transition after 550ms of dwell spanning the wrap")
	}
}
