package control

import (
	"testing"
	"time"
)

// ms converts a millisecond offset to a Micros timestamp.
func ms(v int64) Micros {
	return Micros(v * 1000)
}

// pressFor simulates a full press of the given duration: pressed at t0,
// sampled every 10 ms, released at t0+d.
func pressFor(b *Button, t0 Micros, d time.Duration) {
	b.Update(true, t0)
	step := 10 * time.Millisecond
	for elapsed := step; elapsed < d; elapsed += step {
		b.Update(true, t0+Micros(elapsed.Microseconds()))
	}
	b.Update(false, t0+Micros(d.Microseconds()))
}

func TestClassifyByDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want PressKind
	}{
		{"below bounce floor", 59 * time.Millisecond, PressNone},
		{"exactly short min", 60 * time.Millisecond, PressShort},
		{"mid short", 500 * time.Millisecond, PressShort},
		{"just below long", 999 * time.Millisecond, PressShort},
		{"exactly long min", 1000 * time.Millisecond, PressLong},
		{"mid long", 2500 * time.Millisecond, PressLong},
		{"just below max", 3999 * time.Millisecond, PressLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Button
			pressFor(&b, ms(100), tt.d)
			if got := b.Pending(); got != tt.want {
				t.Errorf("press of %v: got %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

func TestMaxPressFiresWhileHeld(t *testing.T) {
	var b Button
	b.Update(true, ms(0))

	// Still held just before the max tier: nothing pending.
	b.Update(true, ms(3999))
	if b.Pending() != PressNone {
		t.Errorf("expected no event at 3999ms held, got %v", b.Pending())
	}

	// At the tier boundary the event fires without a release.
	b.Update(true, ms(4000))
	if b.Pending() != PressMax {
		t.Fatalf("expected max press at 4000ms held, got %v", b.Pending())
	}
}

func TestMaxPressFiresExactlyOnce(t *testing.T) {
	var b Button
	b.Update(true, ms(0))
	b.Update(true, ms(4000))
	if b.Pending() != PressMax {
		t.Fatalf("expected max press, got %v", b.Pending())
	}
	b.Clear()

	// Holding on: no re-fire while suppressed.
	for at := int64(4500); at <= 20000; at += 500 {
		b.Update(true, ms(at))
		if b.Pending() != PressNone {
			t.Fatalf("suppressed press re-fired at %dms: %v", at, b.Pending())
		}
	}

	// Release produces no further event.
	b.Update(false, ms(20500))
	if b.Pending() != PressNone {
		t.Errorf("release after max press produced %v", b.Pending())
	}
	if b.Held() {
		t.Error("button should be idle after release")
	}

	// A fresh press works again.
	pressFor(&b, ms(21000), 100*time.Millisecond)
	if b.Pending() != PressShort {
		t.Errorf("expected short press after full cycle, got %v", b.Pending())
	}
}

func TestPendingHeldUntilCleared(t *testing.T) {
	var b Button
	pressFor(&b, ms(0), 100*time.Millisecond)
	if b.Pending() != PressShort {
		t.Fatalf("expected short press, got %v", b.Pending())
	}

	// The classifier never clears the event on its own.
	b.Update(false, ms(500))
	b.Update(false, ms(600))
	if b.Pending() != PressShort {
		t.Errorf("pending event cleared implicitly: %v", b.Pending())
	}

	b.Clear()
	if b.Pending() != PressNone {
		t.Error("Clear did not consume the event")
	}
}

func TestPowerOnWithButtonHeld(t *testing.T) {
	// First observed sample is active: treated as press start.
	var b Button
	b.Update(true, ms(0))
	if !b.Held() {
		t.Fatal("expected press in progress from first active sample")
	}
	b.Update(false, ms(200))
	if b.Pending() != PressShort {
		t.Errorf("expected short press from power-on hold, got %v", b.Pending())
	}
}

func TestBounceSuppressed(t *testing.T) {
	var b Button
	pressFor(&b, ms(0), 30*time.Millisecond)
	if b.Pending() != PressNone {
		t.Errorf("30ms bounce classified as %v", b.Pending())
	}
	if b.LastDuration() != 30*time.Millisecond {
		t.Errorf("last duration: got %v, want 30ms", b.LastDuration())
	}
}

func TestClassifyAcrossClockWrap(t *testing.T) {
	// Press starts 2ms before the 32-bit microsecond counter wraps and
	// ends 200ms after. Modular subtraction must still yield 202ms.
	start := Micros(0) - ms(2)
	var b Button
	b.Update(true, start)
	b.Update(true, ms(100))
	b.Update(false, ms(200))

	if b.Pending() != PressShort {
		t.Errorf("expected short press across wrap, got %v", b.Pending())
	}
	if b.LastDuration() != 202*time.Millisecond {
		t.Errorf("duration across wrap: got %v, want 202ms", b.LastDuration())
	}
}

func TestMaxTierAcrossClockWrap(t *testing.T) {
	start := Micros(0) - ms(3000)
	var b Button
	b.Update(true, start)
	b.Update(true, ms(999)) // 3999ms held, spanning the wrap
	if b.Pending() != PressNone {
		t.Fatalf("expected no event at 3999ms held, got %v", b.Pending())
	}
	b.Update(true, ms(1000))
	if b.Pending() != PressMax {
		t.Errorf("expected max press across wrap, got %v", b.Pending())
	}
}
