package control

import "time"

// Pattern is the requested status lamp behavior.
type Pattern uint8

const (
	PatternOff Pattern = iota
	PatternOn
	PatternBlink
	PatternFadeUp
	PatternFadeDown
	// PatternMirrorRelay is a one-shot read of the physical relay line:
	// it resolves to steady on or off at request time and does not track
	// later relay changes. Re-request it to refresh the mirror.
	PatternMirrorRelay
)

func (p Pattern) String() string {
	switch p {
	case PatternOff:
		return "off"
	case PatternOn:
		return "on"
	case PatternBlink:
		return "blink"
	case PatternFadeUp:
		return "fade-up"
	case PatternFadeDown:
		return "fade-down"
	case PatternMirrorRelay:
		return "mirror-relay"
	}
	return "unknown"
}

// PatternMode selects whether a pattern repeats or runs once and then
// reverts to a configured follow-up pattern.
type PatternMode uint8

const (
	ModeContinuous PatternMode = iota
	ModeSingleShot
)

// Lamp renders the status indicator. Requesters only set the target
// pattern; the per-pattern sub-state (phase counter, phase deadline,
// fade step) is owned here and re-initialized whenever the requested
// pattern differs from the one currently applied.
//
// Phase timing is wall-clock elapsed time checked once per poll pass,
// so rendering fidelity is bounded by the loop period.
type Lamp struct {
	pwm   StatusLamp
	relay RelayLine

	pattern Pattern
	applied Pattern
	mode    PatternMode
	after   Pattern // pattern restored after a single-shot run

	blinkContinuous int
	blinkSingle     int

	fadeTime  time.Duration
	fadeSteps int

	phase      int
	phaseSince Micros
	phaseLen   time.Duration
	fadeStep   uint16
}

// NewLamp creates a Lamp rendering to pwm, with relay available for the
// mirror pattern.
func NewLamp(pwm StatusLamp, relay RelayLine) *Lamp {
	return &Lamp{
		pwm:       pwm,
		relay:     relay,
		fadeTime:  DefaultFadeTime,
		fadeSteps: DefaultFadeSteps,
	}
}

// Request sets a continuous pattern.
func (l *Lamp) Request(p Pattern) {
	l.pattern = p
	l.mode = ModeContinuous
}

// RequestBlink sets a continuous blink-count pattern of n pulses.
func (l *Lamp) RequestBlink(n int) {
	l.blinkContinuous = n
	l.pattern = PatternBlink
	l.mode = ModeContinuous
}

// RequestSingleBlink runs one blink-count sequence of n pulses, then
// reverts to after. If the lamp is already blinking the sequence is not
// restarted; the running phase counter switches to the single-shot count.
func (l *Lamp) RequestSingleBlink(n int, after Pattern) {
	l.blinkSingle = n
	l.pattern = PatternBlink
	l.mode = ModeSingleShot
	l.after = after
}

// Pattern returns the currently requested pattern.
func (l *Lamp) Pattern() Pattern {
	return l.pattern
}

// Tick advances the renderer one poll pass.
func (l *Lamp) Tick(now Micros) {
	if l.pattern != l.applied {
		switch l.pattern {
		case PatternOff:
			l.pwm.SetDuty(DutyDark)
		case PatternOn:
			l.pwm.SetDuty(DutyBright)
		case PatternBlink:
			if l.blinkCount() >= 1 {
				l.phase = 0
				l.phaseSince = now
				l.phaseLen = PulseShort
				l.pwm.SetDuty(DutyDark)
			}
		case PatternFadeDown:
			if l.fadeTime > 0 {
				l.initFade(now)
				l.pwm.SetDuty(DutyBright)
			}
		case PatternFadeUp:
			if l.fadeTime > 0 {
				l.initFade(now)
				l.pwm.SetDuty(DutyDark)
			}
		case PatternMirrorRelay:
			l.mirrorRelay()
		}
		l.applied = l.pattern
	}

	switch l.pattern {
	case PatternBlink:
		l.tickBlink(now)
	case PatternFadeDown:
		l.tickFade(now, false)
	case PatternFadeUp:
		l.tickFade(now, true)
	}
}

func (l *Lamp) initFade(now Micros) {
	l.phase = 0
	l.phaseSince = now
	l.phaseLen = l.fadeTime / time.Duration(l.fadeSteps)
	l.fadeStep = uint16(int(DutyDark) / l.fadeSteps)
}

// mirrorRelay resolves the mirror request into steady on or off from the
// physical relay line.
func (l *Lamp) mirrorRelay() {
	if l.relay.Closed() {
		l.pattern = PatternOn
		l.pwm.SetDuty(DutyBright)
	} else {
		l.pattern = PatternOff
		l.pwm.SetDuty(DutyDark)
	}
}

// blinkCount returns the pulse count for the active mode.
func (l *Lamp) blinkCount() int {
	if l.mode == ModeSingleShot {
		return l.blinkSingle
	}
	return l.blinkContinuous
}

func (l *Lamp) tickBlink(now Micros) {
	if now.Since(l.phaseSince) < l.phaseLen {
		return
	}
	l.phase++
	n := l.blinkCount()

	// Odd phases are lit, even phases dark.
	if l.phase%2 == 1 {
		l.pwm.SetDuty(DutyBright)
	} else {
		l.pwm.SetDuty(DutyDark)
	}

	// The final dark phase is stretched as an end-of-sequence cue, but
	// only when the sequence repeats.
	if l.phase == n*2 && l.mode == ModeContinuous {
		l.phaseLen = PulseLong
	} else {
		l.phaseLen = PulseShort
	}
	l.phaseSince = now

	if l.phase > n*2 {
		if l.mode == ModeContinuous {
			l.phase = 1
		} else {
			l.mode = ModeContinuous
			l.pattern = l.after
		}
	}
}

func (l *Lamp) tickFade(now Micros, up bool) {
	if now.Since(l.phaseSince) < l.phaseLen {
		return
	}

	step := uint16(l.phase) * l.fadeStep
	if up {
		l.pwm.SetDuty(DutyDark - step)
	} else {
		l.pwm.SetDuty(DutyBright + step)
	}
	l.phaseSince = now
	l.phase++

	if l.phase == l.fadeSteps-1 {
		l.phaseLen += fadeSettle
	}

	if l.phase >= l.fadeSteps {
		if l.mode == ModeContinuous {
			// Undo the settle so the next cycle keeps the base cadence.
			l.phaseLen -= fadeSettle
			l.phase = 0
		} else {
			l.mode = ModeContinuous
			l.pattern = l.after
		}
	}
}
