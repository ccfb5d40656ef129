package control

// RelayState is the two-state output of the hysteresis machine.
type RelayState uint8

const (
	RelayLow RelayState = iota
	RelayHigh
)

func (s RelayState) String() string {
	if s == RelayHigh {
		return "HIGH"
	}
	return "LOW"
}

// dwell is an optional timer: either not running, or running since a
// timestamp. Replaces the zero-timestamp sentinel so a legitimate
// timestamp of zero stays unambiguous.
type dwell struct {
	active bool
	since  Micros
}

// Hysteresis decides the relay state from the analog reading using two
// thresholds plus a per-transition dwell filter. A single threshold
// would chatter near the crossing point; requiring the reading to stay
// beyond a threshold for the full latch time filters both noise and
// short transients, at the cost of up to one latch time of latency.
//
// Invariant: at most one dwell timer runs at a time, and only the one
// relevant to the current state (low watches upper, high watches lower).
// The thresholds are not constrained against each other: with lower set
// above upper both dwell conditions can hold and the relay oscillates at
// the latch period, exactly as the hardware would.
type Hysteresis struct {
	state RelayState
	upper dwell
	lower dwell
}

// Tick evaluates one sample against the current settings. It returns
// true when the relay state changed this pass.
func (h *Hysteresis) Tick(reading int32, s Settings, now Micros) bool {
	switch h.state {
	case RelayLow:
		if !h.upper.active && reading > s.UpperThreshold {
			h.upper = dwell{active: true, since: now}
		} else if h.upper.active && reading < s.UpperThreshold {
			// Dipped back below before maturing: restart from zero.
			h.upper = dwell{}
		}
		if h.upper.active && now.Since(h.upper.since) >= s.LatchTime {
			h.state = RelayHigh
			h.upper = dwell{}
			return true
		}

	case RelayHigh:
		if !h.lower.active && reading < s.LowerThreshold {
			h.lower = dwell{active: true, since: now}
		} else if h.lower.active && reading > s.LowerThreshold {
			h.lower = dwell{}
		}
		if h.lower.active && now.Since(h.lower.since) >= s.LatchTime {
			h.state = RelayLow
			h.lower = dwell{}
			return true
		}
	}
	return false
}

// State returns the current relay state.
func (h *Hysteresis) State() RelayState {
	return h.state
}
