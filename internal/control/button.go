package control

import "time"

// PressKind classifies a completed (or over-long, still held) button press
// by its duration.
type PressKind uint8

const (
	PressNone PressKind = iota
	PressShort
	PressLong
	PressMax
)

func (k PressKind) String() string {
	switch k {
	case PressNone:
		return "none"
	case PressShort:
		return "short"
	case PressLong:
		return "long"
	case PressMax:
		return "max"
	}
	return "unknown"
}

// pressPhase is the lifecycle of one physical press. The explicit
// suppressed phase replaces a timestamp sentinel: after a max-length
// press fires while the button is still held, the channel stays inert
// until the release is observed.
type pressPhase uint8

const (
	phaseIdle pressPhase = iota
	phaseHeld
	phaseSuppressed
)

// Button classifies presses on one input line by held duration. Update
// is called once per poll pass with the sampled line level; at most one
// pending event is produced per physical press, and it stays pending
// until a consumer clears it.
type Button struct {
	phase        pressPhase
	heldSince    Micros
	pending      PressKind
	lastDuration time.Duration
}

// Update advances the classifier with the current logical line level
// (true = pressed) and the current time.
func (b *Button) Update(pressed bool, now Micros) {
	switch b.phase {
	case phaseIdle:
		// If the device powers on with the button already held, the
		// first active sample is the press start; no history assumed.
		if pressed {
			b.phase = phaseHeld
			b.heldSince = now
		}

	case phaseHeld:
		if !pressed {
			d := now.Since(b.heldSince)
			b.lastDuration = d
			b.phase = phaseIdle
			switch {
			case d >= PressMaxMin:
				// The max tier fires while held (below); a release
				// observed past it without the hold ever being sampled
				// means the press was effectively already handled.
			case d >= PressLongMin:
				b.pending = PressLong
			case d >= PressShortMin:
				b.pending = PressShort
			}
			return
		}
		if now.Since(b.heldSince) >= PressMaxMin {
			// Raised before release so a stuck button fires exactly once.
			b.lastDuration = now.Since(b.heldSince)
			b.pending = PressMax
			b.phase = phaseSuppressed
		}

	case phaseSuppressed:
		if !pressed {
			b.phase = phaseIdle
		}
	}
}

// Pending returns the classified event without consuming it.
func (b *Button) Pending() PressKind {
	return b.pending
}

// Clear consumes the pending event. The classifier never clears it on
// its own; a press left unconsumed is dropped by the controller at the
// end of the tick.
func (b *Button) Clear() {
	b.pending = PressNone
}

// Held reports whether a press is currently in progress (including a
// suppressed over-long press).
func (b *Button) Held() bool {
	return b.phase != phaseIdle
}

// LastDuration returns the duration of the most recently classified press.
func (b *Button) LastDuration() time.Duration {
	return b.lastDuration
}
